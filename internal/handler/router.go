package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/civic-ai/civic-backend/internal/middleware"
	"github.com/civic-ai/civic-backend/internal/service"
	"github.com/civic-ai/civic-backend/pkg/logger"
)

// Services are the business services behind the routes.
type Services struct {
	Auth          *service.AuthService
	Conversations *service.ConversationService
	Query         *service.QueryService
	Images        *service.ImageService
}

// RouterConfig holds the HTTP-level settings.
type RouterConfig struct {
	CORSOrigins       []string
	RateLimitRequests int
	RateLimitWindow   time.Duration
	MaxUploadBytes    int64
}

// NewRouter assembles the API routes.
func NewRouter(svcs Services, health *HealthHandler, cfg RouterConfig, log *logger.Logger) http.Handler {
	authHandler := NewAuthHandler(svcs.Auth, log)
	conversationHandler := NewConversationHandler(svcs.Conversations, log)
	queryHandler := NewQueryHandler(svcs.Query, log)
	ocrHandler := NewOCRHandler(svcs.Images, cfg.MaxUploadBytes, log)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORSOrigins))

	r.Get("/", health.Root)
	r.Get("/health", health.Health)
	r.Get("/ready", health.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))
			r.Post("/signup", authHandler.Signup)
			r.Post("/login", authHandler.Login)
		})
		r.With(middleware.Auth(svcs.Auth, log)).Get("/me", authHandler.Me)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(svcs.Auth, log))
		r.Use(middleware.UserRateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Get("/chats", conversationHandler.List)
		r.Post("/chats", conversationHandler.Create)
		r.Get("/chats/{chat_id}/messages", conversationHandler.Messages)
		r.Delete("/chats/{chat_id}", conversationHandler.Delete)

		r.Post("/query", queryHandler.Ask)
		r.Post("/ocr", ocrHandler.Upload)
	})

	return r
}
