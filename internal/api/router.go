package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/spaces/{spaceID}", func(r chi.Router) {
			r.Get("/state/{capability}", s.handleGetState)

			r.Route("/roles/{capability}", func(r chi.Router) {
				r.Get("/", s.handleGetRoleMap)
				r.Put("/", s.handleSetRole)
				r.Post("/bulk", s.handleBulkSetRoles)
				r.Get("/targets", s.handleGetTargets)
				r.Get("/defaults", s.handleInferDefaults)
				r.Delete("/{deviceID}", s.handleDeleteRole)
			})
		})

		r.Route("/scenes", func(r chi.Router) {
			r.Post("/execute", s.handleExecuteScene)
			r.Post("/validate", s.handleValidateScene)
		})

		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}

// capabilityService resolves the role service for a capability path
// parameter, or writes a 404.
func (s *Server) capabilityService(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := chi.URLParam(r, "capability")
	if _, ok := s.roles[name]; !ok {
		writeNotFound(w, "unknown capability: "+name)
		return "", false
	}
	return name, true
}
