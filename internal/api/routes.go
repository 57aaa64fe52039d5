package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

func SetupRoutes(handler *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Setup middleware
	for _, middleware := range SetupMiddleware() {
		r.Use(middleware)
	}

	// JSON content type
	r.Use(render.SetContentType(render.ContentTypeJSON))

	// Health check endpoint
	r.Get("/health", handler.HealthCheck)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/maps", handler.GenerateMap)
		r.Get("/maps/{id}", handler.GetMap)
		r.Get("/maps/{id}/small", handler.GetSmallMap)
		r.Post("/maps/{id}/routes", handler.SolveRoute)
		r.Get("/maps/{id}/routes", handler.ListRoutes)
	})

	return r
}
