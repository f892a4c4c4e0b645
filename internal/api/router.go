package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Rrens/property-assistant/internal/api/handler"
	customMiddleware "github.com/Rrens/property-assistant/internal/api/middleware"
	"github.com/Rrens/property-assistant/internal/config"
	"github.com/Rrens/property-assistant/internal/llm"
	"github.com/Rrens/property-assistant/internal/security"
)

// Dependencies are the services the HTTP layer routes to
type Dependencies struct {
	Chat      handler.ChatService
	Sessions  handler.SessionService
	LLMRouter *llm.Router
	// JWTManager is optional; operator routes are mounted only when set
	JWTManager *security.JWTManager
	// Ready lists the dependencies pinged by the readiness probe
	Ready map[string]handler.Pinger
	// Cache is optional; the flush endpoint is mounted only when set
	Cache handler.CacheFlusher
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)
	if cfg.Server.MiddlewareTimeout > 0 {
		r.Use(middleware.Timeout(cfg.Server.MiddlewareTimeout))
	}

	// CORS for the embeddable widget
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Forwarded-For", "X-Real-IP"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	chatHandler := handler.NewChatHandler(deps.Chat)
	sessionHandler := handler.NewSessionHandler(deps.Sessions)

	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(deps.Ready))
		r.Get("/llm-providers", handler.ListLLMProviders(deps.LLMRouter))

		// Public widget endpoint; rate limiting happens inside the chat service
		r.Post("/chat", chatHandler.Send)

		if deps.JWTManager == nil {
			return
		}

		// Operator routes
		authMiddleware := customMiddleware.NewAuthMiddleware(deps.JWTManager)
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Route("/sessions/{sessionID}", func(r chi.Router) {
				r.Get("/", sessionHandler.Get)
				r.Get("/messages", sessionHandler.Messages)
			})

			r.Post("/properties/{propertyID}/cache/invalidate", sessionHandler.InvalidateCache)

			if deps.Cache != nil {
				r.Post("/cache/flush", handler.FlushCache(deps.Cache))
			}
		})
	})

	return r
}
