/**
 * @description
 * This file sets up the HTTP router for the collections-service. It defines
 * the API endpoints, associates them with their corresponding handlers, and
 * applies middleware.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// CollectionsRoutes creates and returns a new router for the collections service.
func CollectionsRoutes(h *CollectionsHandlers, internalAPIKey string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Internal endpoints, guarded by the shared service key.
	r.Group(func(r chi.Router) {
		r.Use(InternalAuthMiddleware(internalAPIKey))

		r.Post("/internal/collections/run", h.RunHandler)
		r.Post("/internal/collections/{invoiceID}/pause", h.PauseHandler)
		r.Post("/internal/collections/{invoiceID}/resume", h.ResumeHandler)
		r.Get("/internal/collections/{invoiceID}/timeline", h.TimelineHandler)
	})

	return r
}
