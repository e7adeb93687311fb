package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleGetState returns the aggregated state of a capability in a space.
// A missing space yields 404; an existing space with no qualifying members
// yields its (empty) state.
func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	spaceID := chi.URLParam(r, "spaceID")
	capName := chi.URLParam(r, "capability")

	agg, ok := s.aggregators[capName]
	if !ok {
		writeNotFound(w, "unknown capability: "+capName)
		return
	}

	state, err := agg.GetState(r.Context(), spaceID)
	if err != nil {
		writeInternalError(w, err.Error())
		return
	}
	if state == nil {
		writeNotFound(w, "space not found: "+spaceID)
		return
	}
	writeJSON(w, http.StatusOK, state)
}
