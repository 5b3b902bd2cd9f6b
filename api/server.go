/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the calendar widget

ROUTE GROUPS:
  /api/calendar/*    Loaded calendar, lookups, reloads, load history
  /api/sessions/*    Selection sessions (periods, weeks, quick, drag, filter)
  /api/sources/*     Stored calendar sources
  /api/scenarios/*   Sample calendars
  /api/reset         Database reset (dev only)

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go, sessions.go: Handler implementations
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

	r.Route("/api", func(r chi.Router) {
		// Calendar routes
		r.Route("/calendar", func(r chi.Router) {
			r.Get("/", h.GetCalendar)
			r.Get("/years/{year}", h.GetYear)
			r.Get("/years/{year}/months", h.GetMonths)
			r.Get("/lookup", h.Lookup)
			r.Get("/current", h.GetCurrent)
			r.Post("/reload", h.ReloadCalendar)
			r.Get("/runs", h.ListLoadRuns)
		})

		// Selection session routes
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.CreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetSession)
				r.Delete("/", h.DeleteSession)
				r.Post("/clear", h.ClearSelection)
				r.Post("/periods", h.SelectPeriods)
				r.Post("/periods/toggle", h.TogglePeriod)
				r.Post("/periods/all", h.SelectAllPeriods)
				r.Post("/weeks/click", h.ClickWeek)
				r.Post("/weeks/range", h.SelectWeekRange)
				r.Post("/custom", h.SelectCustomRange)
				r.Post("/quick", h.SelectQuick)
				r.Post("/drag/start", h.StartDrag)
				r.Post("/drag/update", h.UpdateDrag)
				r.Post("/drag/end", h.EndDrag)
				r.Post("/drag/cancel", h.CancelDrag)
				r.Get("/filter", h.GetFilter)
				r.Put("/filter", h.PutFilter)
			})
		})

		// Source routes
		r.Route("/sources", func(r chi.Router) {
			r.Get("/", h.ListSources)
			r.Post("/", h.CreateSource)
			r.Get("/{id}/rows", h.GetSourceRows)
			r.Delete("/{id}", h.DeleteSource)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})

		r.Post("/reset", h.ResetDatabase)
	})

	return r
}
