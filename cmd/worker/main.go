// Package main provides the entrypoint for the GrowNEX background worker.
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
	"github.com/grownex/grownex/internal/database"
	"github.com/grownex/grownex/internal/featureflags"
	"github.com/grownex/grownex/internal/notify"
	"github.com/grownex/grownex/internal/soil"
	"github.com/grownex/grownex/internal/storage"
	"github.com/grownex/grownex/internal/telemetry"
	"github.com/grownex/grownex/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "grownex-worker"

	_ = godotenv.Load()

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting GrowNEX worker")

	cfg := worker.ConfigFromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.Init(ctx, telemetry.ConfigFromEnv(serviceName, Version))
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

	analysisMetrics, err := analysis.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize analysis metrics")
	}

	stores, err := storage.Open(ctx, database.ConfigFromEnv(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open storage")
	}
	defer stores.Close()

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

	// Rescored analyses are not republished, so rescoring never raises alerts.
	analysisService := analysis.NewService(analysis.ServiceConfig{
		Repository: stores.Analyses,
		Engine:     engineRef,
		Metrics:    analysisMetrics,
		Logger:     log,
	})

	ffService := featureflags.NewService(featureflags.ServiceConfig{
		Repository: stores.Flags,
		Logger:     log,
	})

	var notifier notify.Notifier = notify.NoopNotifier{}
	if webhookURL := os.Getenv("ALERT_WEBHOOK_URL"); webhookURL != "" {
		format, formatErr := notify.ParseFormat(os.Getenv("ALERT_WEBHOOK_TYPE"))
		if formatErr != nil {
			log.Fatal().Err(formatErr).Msg("invalid ALERT_WEBHOOK_TYPE")
		}
		webhook, webhookErr := notify.NewWebhookNotifier(notify.WebhookConfig{
			URL:    webhookURL,
			Format: format,
			Logger: log,
		})
		if webhookErr != nil {
			log.Fatal().Err(webhookErr).Msg("failed to create alert webhook")
		}
		notifier = webhook
		log.Info().Str("format", string(format)).Msg("low score alerts enabled")
	} else {
		log.Warn().Msg("ALERT_WEBHOOK_URL not set - low score alerts are only logged")
	}

	rescoreJob := worker.NewRescoreJob(worker.RescoreJobConfig{
		Config:   cfg.Rescore,
		Rescorer: analysisService,
		Logger:   log,
	})

	scheduler, err := worker.NewScheduler(ctx, cfg.Schedule, rescoreJob, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create rescore scheduler")
	}
	scheduler.Start()

	dispatcher := worker.NewDispatcher(worker.DispatcherConfig{
		Alerts:  worker.NewAlertHandler(notifier, ffService, log),
		Rescore: rescoreJob,
		Pinger:  analysisService,
		Logger:  log,
	})

	if cfg.ProjectID != "" {
		handler, handlerErr := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        cfg.ProjectID,
			SubscriptionName: cfg.SubscriptionName,
			Dispatcher:       dispatcher,
			Logger:           log,
		})
		if handlerErr != nil {
			log.Fatal().Err(handlerErr).Msg("failed to create pubsub handler")
		}
		defer handler.Close()

		go func() {
			if startErr := handler.Start(ctx); startErr != nil {
				log.Error().Err(startErr).Msg("pubsub handler stopped")
				stop()
			}
		}()
	} else {
		log.Warn().Msg("PUBSUB_PROJECT_ID not set - only scheduled rescoring will run")
	}

	// Cloud Run needs a listening port, so the worker serves health checks too.
	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: worker.NewHTTPHandler(worker.HTTPConfig{
			Version:    Version,
			Rescore:    rescoreJob,
			Pinger:     analysisService,
			Logger:     log,
			RunContext: ctx,
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health server error")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down worker")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	scheduler.Stop(shutdownCtx)
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
