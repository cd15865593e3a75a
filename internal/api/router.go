package api

import (
	"encoding/json"
	"net/http"

	"github.com/bcnelson/apikey-console/internal/api/handler"
	"github.com/bcnelson/apikey-console/internal/api/middleware"
	"github.com/bcnelson/apikey-console/internal/config"
	"github.com/bcnelson/apikey-console/internal/service"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new HTTP router with all routes configured.
func NewRouter(console *service.Console, playground *service.Playground, cfg config.HTTPConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		reconciler := "stopped"
		if console.Running() {
			reconciler = "running"
		}
		status, code := "ok", http.StatusOK
		if err := console.Ping(r.Context()); err != nil {
			status, code = "unavailable", http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":     status,
			"reconciler": reconciler,
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.ContentType)

		// API Keys
		keyHandler := handler.NewAPIKeyHandler(console)
		r.Get("/keys", keyHandler.List)
		r.Post("/keys", keyHandler.Create)
		r.Get("/keys/check", keyHandler.Check)
		r.Put("/keys/{id}", keyHandler.Update)
		r.Delete("/keys/{id}", keyHandler.Delete)
		r.Post("/keys/{id}/toggle", keyHandler.Toggle)

		// Expiry sweep
		reconcileHandler := handler.NewReconcileHandler(console)
		r.Post("/reconcile", reconcileHandler.Run)

		// Playground
		playgroundHandler := handler.NewPlaygroundHandler(playground)
		r.With(middleware.RateLimit(cfg.PlaygroundRateLimit)).
			Post("/playground/validate", playgroundHandler.Validate)
	})

	return r
}
