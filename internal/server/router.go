package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sevigo/review-forge/internal/config"
	"github.com/sevigo/review-forge/internal/server/handler"
)

// Handlers bundles the HTTP handlers mounted by NewRouter.
type Handlers struct {
	Reviews     *handler.ReviewHandler
	Attachments *handler.AttachmentHandler
}

// NewRouter creates and configures a new HTTP router with middleware and API routes.
func NewRouter(cfg *config.Config, h Handlers, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Configure middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// A synchronous run is bounded by the pipeline stage timeouts, not the request timeout.
		r.Post("/reviews/{id}/ensure", h.Reviews.Ensure)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(cfg.Server.RequestTimeout))

			r.Post("/reviews", h.Reviews.Create)
			r.Get("/reviews/{id}", h.Reviews.Get)
			r.Delete("/reviews/{id}", h.Reviews.Delete)
			r.Get("/users/{username}/reviews", h.Reviews.History)

			r.Post("/reviews/{id}/files", h.Attachments.Upload)
			r.Get("/reviews/{id}/files", h.Attachments.List)
			r.Delete("/reviews/{id}/files/{filename}", h.Attachments.Delete)
		})
	})

	logger.Debug("HTTP routes registered", "allowed_origins", cfg.Server.AllowedOrigins)
	return r
}
