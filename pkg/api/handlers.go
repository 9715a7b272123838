package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rubiojr/sparks/pkg/display"
	"github.com/rubiojr/sparks/pkg/inspire"
	"github.com/rubiojr/sparks/pkg/search"
	"github.com/rubiojr/sparks/pkg/version"
)

func (s *Server) HandleSearch(w http.ResponseWriter, r *http.Request) {
	b := s.Backend()
	if !b.Configured() {
		s.writeNotConfigured(w)
		return
	}

	params, err := search.ParseParams(r.URL.Query(), b.Limits)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Missing query parameter", "Query parameter 'q' is required")
		return
	}

	st := display.Settle(params.Query, true, func() (*search.Result, error) {
		return b.Search.Search(r.Context(), params)
	})
	if st.Phase == display.PhaseUnconfigured {
		s.writeNotConfigured(w)
		return
	}
	if st.Phase == display.PhaseError {
		s.log.Warnf("search %q failed: %v", params.Query, st.Err)
		s.writeError(w, http.StatusBadGateway, "Search failed", st.Message())
		return
	}

	res := st.Result
	photos := make([]PhotoResponse, len(res.Photos))
	for i, p := range res.Photos {
		photos[i] = NewPhotoResponse(p)
	}
	s.writeJSON(w, http.StatusOK, SearchResponse{
		Query:       res.Query,
		Count:       res.Count,
		Source:      res.Source,
		SourceLabel: res.SourceLabel,
		Photos:      photos,
		Total:       len(photos),
		Message:     st.Message(),
	})
}

func (s *Server) HandleInspiration(w http.ResponseWriter, r *http.Request) {
	b := s.Backend()
	if b.Panel == nil {
		s.writeNotConfigured(w)
		return
	}
	s.writeJSON(w, http.StatusOK, b.Panel.Snapshot())
}

func (s *Server) HandleRerollAll(w http.ResponseWriter, r *http.Request) {
	b := s.Backend()
	if b.Panel == nil {
		s.writeNotConfigured(w)
		return
	}

	snap, err := b.Panel.RerollAll(r.Context())
	switch {
	case err == nil, errors.Is(err, inspire.ErrSuperseded):
		// A superseded reroll answers with the state of the newer one.
		s.writeJSON(w, http.StatusOK, snap)
	case errors.Is(err, inspire.ErrEmptyVocabulary):
		s.writeError(w, http.StatusInternalServerError, "Reroll failed", err.Error())
	default:
		s.log.Warnf("reroll aborted: %v", err)
		s.writeError(w, http.StatusServiceUnavailable, "Reroll aborted", err.Error())
	}
}

func (s *Server) HandleRerollWord(w http.ResponseWriter, r *http.Request) {
	b := s.Backend()
	if b.Panel == nil {
		s.writeNotConfigured(w)
		return
	}

	word := r.PathValue("word")
	snap, err := b.Panel.RerollWord(word)
	if errors.Is(err, inspire.ErrUnknownWord) {
		s.writeError(w, http.StatusNotFound, "Word not found", fmt.Sprintf("Word '%s' is not on the panel", word))
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:     "ok",
		Configured: s.Backend().Configured(),
		Timestamp:  time.Now().UTC(),
		Version:    version.APIVersion(),
	}

	s.writeJSON(w, http.StatusOK, health)
}
