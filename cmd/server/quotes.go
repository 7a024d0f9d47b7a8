package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Simplici0/poolquote/internal/export"
	"github.com/Simplici0/poolquote/internal/pricing"
	"github.com/Simplici0/poolquote/internal/store"
)

type saveQuoteRequest struct {
	Offer  export.Offer   `json:"offer"`
	Config pricing.Config `json:"config"`
}

func (s *server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var cfg pricing.Config
	if err := decodeJSON(w, r, &cfg); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	q, err := s.builder().Build(cfg)
	if err != nil {
		s.respondBuildError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, q)
}

func (s *server) handleSaveQuote(w http.ResponseWriter, r *http.Request) {
	var req saveQuoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	q, err := s.builder().Build(req.Config)
	if err != nil {
		s.respondBuildError(w, err)
		return
	}

	now := s.now()
	saved, err := s.store.SaveQuote(r.Context(), store.SavedQuote{
		CreatedAt: now,
		Offer:     req.Offer.WithDefaults(now),
		Config:    req.Config,
		Quote:     q,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("save quote")
		respondError(w, http.StatusInternalServerError, "failed to save quote")
		return
	}

	w.Header().Set("Location", "/api/v1/quotes/"+saved.ID)
	respondJSON(w, http.StatusCreated, saved)
}

func (s *server) handleListQuotes(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	quotes, err := s.store.ListQuotes(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		s.log.Error().Err(err).Msg("list quotes")
		respondError(w, http.StatusInternalServerError, "failed to load quotes")
		return
	}
	respondJSON(w, http.StatusOK, quotes)
}

func (s *server) handleGetQuote(w http.ResponseWriter, r *http.Request) {
	saved, ok := s.loadQuote(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

func (s *server) handleDeleteQuote(w http.ResponseWriter, r *http.Request) {
	err := s.store.DeleteQuote(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "quote not found")
		return
	}
	if err != nil {
		s.log.Error().Err(err).Msg("delete quote")
		respondError(w, http.StatusInternalServerError, "failed to delete quote")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type renderer struct {
	contentType string
	ext         string
	render      func(io.Writer, export.Document) error
}

var renderers = map[string]renderer{
	"pdf":  {contentType: "application/pdf", ext: "pdf", render: export.PDF},
	"xlsx": {contentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", ext: "xlsx", render: export.XLSX},
	"text": {contentType: "text/plain; charset=utf-8", ext: "txt", render: export.Text},
}

func (s *server) handleRenderQuote(w http.ResponseWriter, r *http.Request) {
	rd, ok := renderers[chi.URLParam(r, "format")]
	if !ok {
		respondError(w, http.StatusNotFound, "unknown format")
		return
	}
	saved, ok := s.loadQuote(w, r)
	if !ok {
		return
	}

	// Render fully before writing so a failure can still become a 500.
	var buf bytes.Buffer
	if err := rd.render(&buf, saved.Document(s.cfg.Supplier)); err != nil {
		s.log.Error().Err(err).Str("id", saved.ID).Msg("render quote")
		respondError(w, http.StatusInternalServerError, "failed to render quote")
		return
	}

	w.Header().Set("Content-Type", rd.contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="quote-%s.%s"`, saved.ID[:8], rd.ext))
	_, _ = buf.WriteTo(w)
}

func (s *server) loadQuote(w http.ResponseWriter, r *http.Request) (store.SavedQuote, bool) {
	saved, err := s.store.GetQuote(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "quote not found")
		return store.SavedQuote{}, false
	}
	if err != nil {
		s.log.Error().Err(err).Msg("load quote")
		respondError(w, http.StatusInternalServerError, "failed to load quote")
		return store.SavedQuote{}, false
	}
	return saved, true
}

// respondBuildError maps quote failures: bad input is 400, a configuration
// the price list cannot serve is 422.
func (s *server) respondBuildError(w http.ResponseWriter, err error) {
	if !pricing.IsFatal(err) {
		s.log.Error().Err(err).Msg("build quote")
		respondError(w, http.StatusInternalServerError, "failed to build quote")
		return
	}
	if errors.Is(err, pricing.ErrInvalidConfig) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := errorResponse{Error: err.Error()}
	var oor *pricing.WidthOutOfRangeError
	if errors.As(err, &oor) {
		resp.MaxWidthMm = oor.MaxWidthMm
		if snap := s.holder.Load(); snap != nil {
			resp.BreakpointsMm = snap.Prices.Breakpoints(oor.Model, oor.Modules)
		}
	}
	respondJSON(w, http.StatusUnprocessableEntity, resp)
}
