// Package main provides the entrypoint for the GrowNEX API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/grownex/grownex/internal/analysis"
	"github.com/grownex/grownex/internal/api"
	"github.com/grownex/grownex/internal/api/middleware"
	"github.com/grownex/grownex/internal/auth"
	"github.com/grownex/grownex/internal/database"
	"github.com/grownex/grownex/internal/events"
	"github.com/grownex/grownex/internal/featureflags"
	"github.com/grownex/grownex/internal/soil"
	"github.com/grownex/grownex/internal/storage"
	"github.com/grownex/grownex/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "grownex-api"

	// A missing .env file is fine outside local development.
	_ = godotenv.Load()

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting GrowNEX API")

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize OpenTelemetry
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
		log.Fatal().Err(err).Msg("failed to initialize http metrics")
	}
	analysisMetrics, err := analysis.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize analysis metrics")
	}

	// Storage
	stores, err := storage.Open(ctx, database.ConfigFromEnv(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open storage")
	}
	defer stores.Close()

	// Scoring engine, optionally from a YAML catalog that is reloaded on change
	catalogPath := os.Getenv("CROP_CATALOG_PATH")
	engine, err := soil.LoadEngine(catalogPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", catalogPath).Msg("failed to load crop catalog")
	}
	engineRef := soil.NewEngineRef(engine)
	if catalogPath != "" {
		go func() {
			if watchErr := soil.WatchCatalog(ctx, catalogPath, engineRef, log); watchErr != nil {
				log.Error().Err(watchErr).Msg("crop catalog watcher stopped")
			}
		}()
	}

	// Analysis events
	var publisher events.Publisher = events.NoopPublisher{}
	if projectID := os.Getenv("PUBSUB_PROJECT_ID"); projectID != "" {
		topic := os.Getenv("PUBSUB_TOPIC")
		if topic == "" {
			topic = "grownex-analyses"
		}
		pubsubPublisher, pubErr := events.NewPubSubPublisher(ctx, events.PubSubConfig{
			ProjectID: projectID,
			TopicName: topic,
			Logger:    log,
		})
		if pubErr != nil {
			log.Fatal().Err(pubErr).Msg("failed to create pubsub publisher")
		}
		publisher = pubsubPublisher
		log.Info().Str("topic", topic).Msg("publishing analysis events")
	} else {
		log.Warn().Msg("PUBSUB_PROJECT_ID not set - analysis events are dropped")
	}
	defer publisher.Close()

	// Auth
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		jwtSigningKey = "local-dev-signing-key-change-in-production"
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}

	authService := auth.NewService(auth.ServiceConfig{
		JWTService: auth.NewJWTService(auth.JWTConfig{
			SigningKey: jwtSigningKey,
			Issuer:     getEnv("JWT_ISSUER", "https://api.grownex.app"),
			Audience:   getEnv("JWT_AUDIENCE", "grownex-api"),
		}),
		UserRepo:    stores.Users,
		AdminEmails: auth.ParseAdminEmails(os.Getenv("ADMIN_EMAILS")),
		Logger:      log,
	})
	log.Info().Msg("auth service initialized")

	ffService := featureflags.NewService(featureflags.ServiceConfig{
		Repository: stores.Flags,
		Logger:     log,
		CacheTTL:   featureflags.DefaultCacheTTL,
	})
	log.Info().Msg("feature flags service initialized")

	analysisService := analysis.NewService(analysis.ServiceConfig{
		Repository: stores.Analyses,
		Engine:     engineRef,
		Publisher:  publisher,
		Metrics:    analysisMetrics,
		Logger:     log,
	})
	log.Info().Str("driver", string(stores.Driver)).Msg("analysis service initialized")

	router := api.NewRouter(api.RouterConfig{
		Version:            Version,
		BuildTime:          BuildTime,
		Logger:             log,
		ServiceName:        serviceName,
		Metrics:            httpMetrics,
		AuthService:        authService,
		AnalysisService:    analysisService,
		FeatureFlagService: ffService,
		RequireTLS:         os.Getenv("REQUIRE_TLS") == "true",
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	log.Info().Msg("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
