package main

import (
	"errors"
	"io"
	"net/http"

	"github.com/Simplici0/poolquote/internal/feed"
)

type importResponse struct {
	Kind      string `json:"kind"`
	Rows      int    `json:"rows"`
	Defaulted int    `json:"defaulted_surcharges"`
}

func (s *server) handleImportPrices(w http.ResponseWriter, r *http.Request) {
	rows, ok := s.readFeed(w, r)
	if !ok {
		return
	}
	entries, err := feed.ParsePriceRows(rows)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	n, err := s.store.ReplacePrices(r.Context(), entries)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.finishImport(w, r, "prices", n)
}

func (s *server) handleImportSurcharges(w http.ResponseWriter, r *http.Request) {
	rows, ok := s.readFeed(w, r)
	if !ok {
		return
	}
	rules, err := feed.ParseSurchargeRows(rows)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	n, err := s.store.ReplaceSurcharges(r.Context(), rules)
	if err != nil {
		s.log.Error().Err(err).Msg("replace surcharges")
		respondError(w, http.StatusInternalServerError, "failed to store surcharges")
		return
	}
	s.finishImport(w, r, "surcharges", n)
}

func (s *server) handleReload(w http.ResponseWriter, r *http.Request) {
	s.finishImport(w, r, "reload", 0)
}

// finishImport publishes the new snapshot. Quotes already in flight keep the
// snapshot they started with.
func (s *server) finishImport(w http.ResponseWriter, r *http.Request, kind string, n int) {
	defaulted, err := s.reload(r.Context())
	if err != nil {
		s.log.Error().Err(err).Str("kind", kind).Msg("reload reference data")
		respondError(w, http.StatusInternalServerError, "failed to reload reference data")
		return
	}
	s.log.Info().Str("kind", kind).Int("rows", n).Msg("feed imported")
	respondJSON(w, http.StatusOK, importResponse{Kind: kind, Rows: n, Defaulted: defaulted})
}

func (s *server) readFeed(w http.ResponseWriter, r *http.Request) ([][]string, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		respondError(w, http.StatusRequestEntityTooLarge, "upload too large")
		return nil, false
	}
	rows, err := feed.ReadBytes(data)
	if errors.Is(err, feed.ErrEmptyFeed) {
		respondError(w, http.StatusBadRequest, "empty feed")
		return nil, false
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return rows, true
}
