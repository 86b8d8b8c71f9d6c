/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the back-office frontend

ROUTE GROUPS:
  /api/hierarchy/*   Organizational tree
  /api/entries/*     Revenue entries and cascades
  /api/reports/*     Billing reports
  /api/admin/*       Snapshot backfill
  /api/scenarios/*   Demo data

SECURITY NOTE:
  No authentication middleware. Authn/z is an external collaborator and
  out of scope for this service.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Hierarchy routes
		r.Route("/hierarchy", func(r chi.Router) {
			r.Get("/", h.GetHierarchy)
			r.Post("/nodes", h.CreateNode)
			r.Put("/nodes/{id}/parent", h.ReparentNode)
			r.Delete("/nodes/{id}", h.DeleteNode)
		})

		// Entry routes
		r.Route("/entries", func(r chi.Router) {
			r.Get("/", h.ListEntries)
			r.Post("/", h.CreateEntry)
			r.Get("/{id}", h.GetEntry)
			r.Post("/{id}/status", h.UpdateEntryStatus)
			r.Get("/{id}/cascade", h.GetCascade)
		})

		// Report routes
		r.Route("/reports", func(r chi.Router) {
			r.Get("/employees/{id}", h.GetEmployeeReport)
			r.Get("/summary", h.GetSummary)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Post("/backfill", h.BackfillSnapshots)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}
