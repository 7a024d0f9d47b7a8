package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/Simplici0/poolquote/internal/auth"
	"github.com/Simplici0/poolquote/internal/config"
	"github.com/Simplici0/poolquote/internal/migrations"
	"github.com/Simplici0/poolquote/internal/pricing"
	"github.com/Simplici0/poolquote/internal/store"
)

const (
	requestTimeout = 60 * time.Second
	maxUploadBytes = 10 << 20
)

type server struct {
	cfg      config.Config
	store    *store.Store
	holder   *pricing.Holder
	sessions *auth.Sessions
	log      zerolog.Logger
	now      func() time.Time
}

func newServer(cfg config.Config, st *store.Store, logger zerolog.Logger) *server {
	return &server{
		cfg:      cfg,
		store:    st,
		holder:   pricing.NewHolder(nil),
		sessions: auth.NewSessions(cfg.SessionSecret),
		log:      logger,
		now:      time.Now,
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/quotes/calculate", s.handleCalculate)
		r.Post("/quotes", s.handleSaveQuote)
		r.Get("/quotes", s.handleListQuotes)
		r.Route("/quotes/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetQuote)
			r.Delete("/", s.handleDeleteQuote)
			r.Get("/{format}", s.handleRenderQuote)
		})
	})

	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)
	r.Route("/admin", func(r chi.Router) {
		r.Use(s.requireAdmin)
		r.Post("/import/prices", s.handleImportPrices)
		r.Post("/import/surcharges", s.handleImportSurcharges)
		r.Post("/reload", s.handleReload)
	})

	return r
}

// reload rebuilds the pricing snapshot from the database and publishes it.
func (s *server) reload(ctx context.Context) (defaulted int, err error) {
	snap, missing, err := s.store.LoadSnapshot(ctx)
	if err != nil {
		return 0, err
	}
	for _, m := range missing {
		s.log.Warn().
			Str("key", string(m.Key)).
			Str("term", m.Term).
			Str("category", m.Category.String()).
			Msg("surcharge not found, using default")
	}
	s.holder.Swap(snap)
	s.log.Info().
		Int("prices", snap.Prices.Len()).
		Int("surcharges", snap.Surcharges.Len()).
		Int("defaulted", len(missing)).
		Msg("reference data loaded")
	return len(missing), nil
}

func (s *server) builder() *pricing.Builder {
	return pricing.NewBuilder(s.holder.Load(),
		pricing.WithVatRate(s.cfg.VatRate),
		pricing.WithRatePerKm(s.cfg.RatePerKm),
	)
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	version, err := migrations.Version(s.store.DB())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}

	body := map[string]any{
		"status":         "ok",
		"schema_version": version,
	}
	if snap := s.holder.Load(); snap != nil {
		body["models"] = snap.Prices.Models()
		body["prices"] = snap.Prices.Len()
		body["surcharges"] = snap.Surcharges.Len()
		body["loaded_at"] = snap.LoadedAt
	}
	respondJSON(w, http.StatusOK, body)
}

func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.log.Info().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("request")
		}()
		next.ServeHTTP(ww, r)
	})
}

type errorResponse struct {
	Error         string `json:"error"`
	MaxWidthMm    int    `json:"max_width_mm,omitempty"`
	BreakpointsMm []int  `json:"breakpoints_mm,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
