package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jgcallah/cadence/internal/taskservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *taskservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/tasks", h.Agenda)
	r.Post("/tasks", h.AddTask)
	r.Get("/tasks/search", h.SearchTasks)
	r.Post("/tasks/toggle", h.ToggleTask)
	r.Patch("/tasks/metadata", h.UpdateMetadata)
	r.Post("/tasks/rollover", h.Rollover)

	r.Post("/config/reload", h.ReloadConfig)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
