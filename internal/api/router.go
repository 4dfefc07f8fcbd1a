package api

import (
	"net/http"

	"github.com/Rrens/alap/internal/api/handler"
	customMiddleware "github.com/Rrens/alap/internal/api/middleware"
	"github.com/Rrens/alap/internal/config"
	"github.com/Rrens/alap/internal/llm"
	"github.com/Rrens/alap/internal/metrics"
	"github.com/Rrens/alap/internal/repository"
	"github.com/Rrens/alap/internal/repository/memory"
	"github.com/Rrens/alap/internal/repository/redis"
	"github.com/Rrens/alap/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
)

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, storage *repository.Storage, llmRouter *llm.Router, chatService *service.ChatService) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	// Initialize handlers
	sessionHandler := handler.NewSessionHandler(chatService)
	messageHandler := handler.NewMessageHandler(chatService)
	personaHandler := handler.NewPersonaHandler(chatService)

	rateLimit := newRateLimiter(cfg.Security.RateLimit, storage)

	r.Route("/api/v1", func(r chi.Router) {
		// Sends stream for as long as the model talks, so they sit outside
		// the request timeout.
		r.Group(func(r chi.Router) {
			if rateLimit != nil {
				r.Use(rateLimit.Limit)
			}
			r.Post("/messages", messageHandler.Send)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(cfg.Server.MiddlewareTimeout))

			// Health check
			r.Get("/health", handler.HealthCheck)
			r.Get("/ready", handler.ReadyCheck(storage.KV))

			r.Get("/providers", handler.ListProviders(llmRouter))
			r.Get("/persona", personaHandler.Get)
			r.Get("/state", sessionHandler.State)

			r.Post("/render", handler.Render)
			r.Get("/render/highlight.css", handler.HighlightCSS)

			r.Route("/sessions", func(r chi.Router) {
				r.Post("/", sessionHandler.Create)

				r.Route("/{sessionID}", func(r chi.Router) {
					r.Get("/", sessionHandler.Get)
					r.Put("/active", sessionHandler.Select)
					r.Post("/delete-request", sessionHandler.RequestDelete)
				})
			})

			r.Route("/delete-request", func(r chi.Router) {
				r.Post("/confirm", sessionHandler.ConfirmDelete)
				r.Delete("/", sessionHandler.CancelDelete)
			})
		})
	})

	return r
}

// newRateLimiter shares the redis connection when the redis backend is in
// use and falls back to an in-process token bucket otherwise. A zero rate
// disables limiting.
func newRateLimiter(cfg config.RateLimitConfig, storage *repository.Storage) *customMiddleware.RateLimitMiddleware {
	if cfg.RequestsPerMinute <= 0 {
		log.Info().Msg("Rate limiting disabled")
		return nil
	}

	var limiter customMiddleware.Limiter
	if storage.Redis != nil {
		limiter = redis.NewRateLimiter(storage.Redis, cfg.RequestsPerMinute, cfg.Burst)
	} else {
		limiter = memory.NewRateLimiter(cfg.RequestsPerMinute, cfg.Burst)
	}
	return customMiddleware.NewRateLimitMiddleware(limiter)
}
