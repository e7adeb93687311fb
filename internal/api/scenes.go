package api

import (
	"encoding/json"
	"net/http"

	"github.com/atrium-home/atrium-core/internal/scene"
)

// sceneRequest is the execute/validate request body.
type sceneRequest struct {
	Scene   scene.Ref      `json:"scene"`
	Actions []scene.Action `json:"actions"`
}

// handleExecuteScene runs a scene and returns one result per action.
// Failed actions do not fail the request; the per-action results carry the
// outcomes.
func (s *Server) handleExecuteScene(w http.ResponseWriter, r *http.Request) {
	if s.scenes == nil {
		writeInternalError(w, "scene executor not configured")
		return
	}

	var req sceneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}
	if len(req.Actions) == 0 {
		writeBadRequest(w, "scene has no actions")
		return
	}

	results := s.scenes.Execute(r.Context(), req.Scene, req.Actions)
	writeJSON(w, http.StatusOK, map[string]any{
		"scene_id": req.Scene.ID,
		"results":  results,
	})
}

// handleValidateScene runs the fail-fast validation pass without
// dispatching. Invalid scenes yield 422 naming the first bad action.
func (s *Server) handleValidateScene(w http.ResponseWriter, r *http.Request) {
	if s.scenes == nil {
		writeInternalError(w, "scene executor not configured")
		return
	}

	var req sceneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}

	if err := s.scenes.ValidateActions(r.Context(), req.Actions); err != nil {
		writeError(w, http.StatusUnprocessableEntity, ErrCodeValidation, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"valid": true})
}
