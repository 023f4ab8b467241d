// Package api provides the HTTP API for LiveCharge.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/livecharge/livecharge/internal/api/handler"
	"github.com/livecharge/livecharge/internal/api/middleware"
	"github.com/livecharge/livecharge/internal/auth"
	"github.com/livecharge/livecharge/internal/relay"
	"github.com/livecharge/livecharge/internal/station"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version        string
	BuildTime      string
	Logger         zerolog.Logger
	ServiceName    string
	Metrics        *middleware.Metrics
	StationService *station.Service
	AuthService    *auth.Service
	Hub            *relay.Hub

	// MetricsHandler serves GET /metrics when set.
	MetricsHandler http.Handler

	// ReadinessChecks back GET /api/ready.
	ReadinessChecks []handler.ReadinessCheck

	// StaticDir holds the built frontend. Empty disables static serving.
	StaticDir string

	// AllowedOrigins restricts CORS and the WebSocket handshake. Empty allows any origin.
	AllowedOrigins []string

	// VoteRateLimit overrides middleware.VoteRateLimit when Requests is non-zero.
	VoteRateLimit middleware.RateLimit
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "livecharge-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.CORS(middleware.CORSConfig{AllowedOrigins: cfg.AllowedOrigins}))

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.ReadinessChecks...)
	stationHandler := handler.NewStationHandler(cfg.StationService, cfg.Logger)
	authHandler := handler.NewAuthHandler(cfg.AuthService)
	realtimeHandler := handler.NewRealtimeHandler(handler.RealtimeConfig{
		Service:        cfg.StationService,
		Hub:            cfg.Hub,
		Logger:         cfg.Logger,
		AllowedOrigins: cfg.AllowedOrigins,
	})
	staticHandler := handler.NewStaticHandler(cfg.StaticDir)

	voteLimit := middleware.VoteRateLimit
	if cfg.VoteRateLimit.Requests > 0 {
		voteLimit = cfg.VoteRateLimit
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)

		// Ops endpoints (public)
		r.Get("/health", opsHandler.HealthCheck)
		r.Get("/ready", opsHandler.ReadinessCheck)

		// Stations - standard rate limiting on reads, tighter on votes
		r.Route("/stations", func(r chi.Router) {
			r.With(middleware.StandardRateLimit.ByIP()).Get("/", stationHandler.ListStations)
			r.With(middleware.StandardRateLimit.ByIP()).Get("/{id}", stationHandler.GetStation)
			r.With(middleware.RequireJSON, voteLimit.ByIP()).
				Post("/{stationId}/reviews/{reviewId}/vote", stationHandler.Vote)
		})

		// Login gate
		r.With(middleware.RequireJSON, middleware.LoginRateLimit.ByIP()).Post("/login", authHandler.Login)
		r.With(middleware.Session(cfg.AuthService), middleware.StandardRateLimit.BySession()).
			Get("/session", authHandler.Session)

		r.NotFound(staticHandler.ServeHTTP)
	})

	// Real-time channel
	r.Get("/ws", realtimeHandler.ServeWS)

	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	// Frontend with SPA fallback
	r.NotFound(staticHandler.ServeHTTP)

	return r
}
