package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/NicoSerenade/parcheverde-uniandes/internal/api/middleware"
	"github.com/NicoSerenade/parcheverde-uniandes/internal/chat"
	"github.com/NicoSerenade/parcheverde-uniandes/internal/config"
	"github.com/NicoSerenade/parcheverde-uniandes/internal/handlers"
	"github.com/NicoSerenade/parcheverde-uniandes/internal/store"
)

// Deps holds everything the router wires together.
type Deps struct {
	Logger   zerolog.Logger
	Config   *config.Config
	DB       store.DataStore
	Redis    *store.RedisStore // nil when sessions are in memory
	Sessions store.SessionStore
	History  *chat.HistoryLoader
	Registry *chat.Registry
	WS       http.Handler
}

// NewRouter creates and configures the HTTP router.
func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware (order matters!)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(d.Config.MaxMessageSize))
	r.Use(middleware.ValidateRequest)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(d.Logger))
	r.Use(chimw.Recoverer)

	// Rate limiting rides on Redis; in development without Redis it is off.
	// The upgrade endpoint is limited here by IP. The message endpoints get
	// their own limiter inside the authenticated group, keyed by identity.
	if d.Redis != nil {
		limiter := middleware.NewRateLimiter(d.Redis.Client(), d.Logger, middleware.RateLimiterConfig{
			Limits: map[string]middleware.RateLimit{
				"GET /ws": {Requests: 30, Window: time.Minute, KeyFunc: middleware.IPKey},
			},
		})
		r.Use(limiter.Middleware)
	}

	// CORS for the browser frontends
	allowedOrigins := d.Config.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	h := handlers.NewHandler(d.DB, d.Redis, d.History, d.Registry)
	auth := middleware.NewAuthMiddleware(d.Sessions)

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	// Public routes
	r.Get("/health", h.Health)
	r.Get("/stats", h.Stats)

	// WebSocket endpoint resolves its own identity so unauthenticated
	// connections can still be told what went wrong.
	r.Handle("/ws", d.WS)

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth)

		if d.Redis != nil {
			limiter := middleware.NewRateLimiter(d.Redis.Client(), d.Logger, middleware.RateLimiterConfig{
				Limits: map[string]middleware.RateLimit{
					"GET /messages/private/":  {Requests: 120, Window: time.Minute, KeyFunc: middleware.IdentityOrIPKey},
					"GET /messages/group/":    {Requests: 120, Window: time.Minute, KeyFunc: middleware.IdentityOrIPKey},
					"POST /messages/private/": {Requests: 60, Window: time.Minute, KeyFunc: middleware.IdentityOrIPKey},
				},
			})
			r.Use(limiter.Middleware)
		}

		r.Get("/messages/private/{peerID}", h.GetPrivateConversation)
		r.Get("/messages/group/{orgID}", h.GetGroupConversation)
		r.Post("/messages/private/{peerID}/read", h.MarkConversationRead)
	})

	return r
}
