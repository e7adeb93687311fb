package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atrium-home/atrium-core/internal/roles"
)

// handleGetRoleMap returns the space's assignments keyed by target.
func (s *Server) handleGetRoleMap(w http.ResponseWriter, r *http.Request) {
	capName, ok := s.capabilityService(w, r)
	if !ok {
		return
	}
	spaceID := chi.URLParam(r, "spaceID")

	m, err := s.roles[capName].RoleMap(r.Context(), spaceID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// handleSetRole upserts one role assignment.
func (s *Server) handleSetRole(w http.ResponseWriter, r *http.Request) {
	capName, ok := s.capabilityService(w, r)
	if !ok {
		return
	}
	spaceID := chi.URLParam(r, "spaceID")

	var input roles.RoleInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}

	assignment, err := s.roles[capName].SetRole(r.Context(), spaceID, input)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assignment)
}

// handleBulkSetRoles applies a batch of role inputs. Individual failures
// are reported per entry; the response is always 200 with the counts.
func (s *Server) handleBulkSetRoles(w http.ResponseWriter, r *http.Request) {
	capName, ok := s.capabilityService(w, r)
	if !ok {
		return
	}
	spaceID := chi.URLParam(r, "spaceID")

	var inputs []roles.RoleInput
	if err := json.NewDecoder(r.Body).Decode(&inputs); err != nil {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}

	result := s.roles[capName].BulkSetRoles(r.Context(), spaceID, inputs)
	writeJSON(w, http.StatusOK, result)
}

// handleDeleteRole removes an assignment. The channel is passed as the
// channel_id query parameter for channel-scoped capabilities.
func (s *Server) handleDeleteRole(w http.ResponseWriter, r *http.Request) {
	capName, ok := s.capabilityService(w, r)
	if !ok {
		return
	}
	spaceID := chi.URLParam(r, "spaceID")
	deviceID := chi.URLParam(r, "deviceID")
	channelID := r.URL.Query().Get("channel_id")

	if err := s.roles[capName].DeleteRole(r.Context(), spaceID, deviceID, channelID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

// handleGetTargets lists the role-eligible targets in a space.
func (s *Server) handleGetTargets(w http.ResponseWriter, r *http.Request) {
	capName, ok := s.capabilityService(w, r)
	if !ok {
		return
	}
	spaceID := chi.URLParam(r, "spaceID")

	targets, err := s.roles[capName].TargetsInSpace(r.Context(), spaceID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, targets)
}

// handleInferDefaults returns the default role suggestions for a space
// without persisting anything.
func (s *Server) handleInferDefaults(w http.ResponseWriter, r *http.Request) {
	capName, ok := s.capabilityService(w, r)
	if !ok {
		return
	}
	spaceID := chi.URLParam(r, "spaceID")

	inputs, err := s.roles[capName].InferDefaultRoles(r.Context(), spaceID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inputs)
}
