// Package main provides the entrypoint for the LiveCharge API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/livecharge/livecharge/internal/api"
	"github.com/livecharge/livecharge/internal/api/handler"
	"github.com/livecharge/livecharge/internal/api/middleware"
	"github.com/livecharge/livecharge/internal/auth"
	"github.com/livecharge/livecharge/internal/database"
	"github.com/livecharge/livecharge/internal/metrics"
	"github.com/livecharge/livecharge/internal/relay"
	"github.com/livecharge/livecharge/internal/station"
	"github.com/livecharge/livecharge/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "livecharge-api"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting LiveCharge API")

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	ctx := context.Background()

	telemetryCfg := telemetry.ConfigFromEnv(serviceName, Version)
	tp, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()
	if telemetryCfg.Enabled {
		log.Info().
			Str("otlp_endpoint", telemetryCfg.OTLPEndpoint).
			Float64("sample_ratio", telemetryCfg.SampleRatio).
			Msg("OpenTelemetry initialized")
	}

	httpMetrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	backend, err := database.BackendFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid store configuration")
	}
	store, err := database.OpenStore(ctx, backend, log)
	if err != nil {
		log.Fatal().Err(err).Str("backend", string(backend)).Msg("failed to open station store")
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if closeErr := store.Close(closeCtx); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close station store")
		}
	}()
	if err := store.Repository.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure station indexes")
	}

	repo := station.NewBreakerRepository(store.Repository, station.BreakerConfig{
		Name: "station-store-" + string(backend),
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("station store circuit breaker state changed")
		},
	})

	hub := relay.NewHub(log.With().Str("component", "relay").Logger(), relay.DefaultClientBuffer)
	domainMetrics := metrics.New(hub.Count, hub.Dropped)

	publishers := relay.Fanout{hub}
	if project, topic := os.Getenv("STATION_EVENTS_PROJECT"), os.Getenv("STATION_EVENTS_TOPIC"); project != "" && topic != "" {
		exporter, exportErr := relay.NewPubSubExporter(ctx, relay.PubSubConfig{
			ProjectID: project,
			TopicName: topic,
			Logger:    log,
		})
		if exportErr != nil {
			log.Fatal().Err(exportErr).Msg("failed to initialize station event export")
		}
		defer func() {
			if closeErr := exporter.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("failed to close station event export")
			}
		}()
		publishers = append(publishers, exporter)
		log.Info().Str("topic", topic).Msg("station event export enabled")
	}

	stationService := station.NewService(station.ServiceConfig{
		Repository: repo,
		Publisher:  publishers,
		Recorder:   domainMetrics,
		Logger:     log.With().Str("component", "station").Logger(),
	})

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		jwtSigningKey = "local-dev-signing-key-change-in-production"
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}
	if os.Getenv("LOGIN_PASSWORD") == "" {
		log.Warn().Msg("using default login credentials - not secure for production")
	}
	authService := auth.NewService(auth.ServiceConfig{
		Username: os.Getenv("LOGIN_USERNAME"),
		Password: os.Getenv("LOGIN_PASSWORD"),
		JWTService: auth.NewJWTService(auth.JWTConfig{
			SigningKey: jwtSigningKey,
			Issuer:     "livecharge",
			Audience:   "livecharge-web",
		}),
	})

	router := api.NewRouter(api.RouterConfig{
		Version:        Version,
		BuildTime:      BuildTime,
		Logger:         log,
		ServiceName:    serviceName,
		Metrics:        httpMetrics,
		StationService: stationService,
		AuthService:    authService,
		Hub:            hub,
		MetricsHandler: domainMetrics.Handler(),
		ReadinessChecks: []handler.ReadinessCheck{
			{Name: string(backend), Check: store.Ping},
			{Name: "station-breaker", Check: func(context.Context) error {
				if repo.State() == gobreaker.StateOpen {
					return station.ErrStoreUnavailable
				}
				return nil
			}},
		},
		StaticDir:      os.Getenv("STATIC_DIR"),
		AllowedOrigins: middleware.ParseOrigins(os.Getenv("CORS_ALLOWED_ORIGINS")),
	})

	// No WriteTimeout: it would cut long-lived WebSocket connections.
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Str("store", string(backend)).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
