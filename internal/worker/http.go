package worker

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/grownex/grownex/internal/api/middleware"
	"github.com/grownex/grownex/internal/api/response"
)

// HTTPConfig holds the dependencies of the worker's HTTP surface.
type HTTPConfig struct {
	Version string
	Rescore *RescoreJob
	Pinger  Pinger
	Logger  zerolog.Logger
	// RunContext outlives requests and bounds manually triggered runs.
	RunContext context.Context
}

// NewHTTPHandler serves health, readiness and a manual rescore trigger.
func NewHTTPHandler(cfg HTTPConfig) http.Handler {
	runCtx := cfg.RunContext
	if runCtx == nil {
		runCtx = context.Background()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(cfg.Logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		body := map[string]interface{}{
			"status":  "healthy",
			"version": cfg.Version,
		}
		if cfg.Rescore != nil {
			body["rescore"] = cfg.Rescore.MetricsSnapshot()
		}
		response.JSON(w, r, http.StatusOK, body)
	})

	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if cfg.Pinger != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := cfg.Pinger.Ping(ctx); err != nil {
				cfg.Logger.Warn().Err(err).Msg("storage readiness check failed")
				response.ServiceUnavailable(w, r, "storage unreachable")
				return
			}
		}
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
	})

	r.Post("/jobs/rescore", func(w http.ResponseWriter, r *http.Request) {
		if cfg.Rescore == nil {
			response.ServiceUnavailable(w, r, "rescoring is not configured")
			return
		}
		if cfg.Rescore.Running() {
			response.Conflict(w, r, "rescore already in progress")
			return
		}

		go func() {
			if _, err := cfg.Rescore.Run(runCtx); err != nil && !errors.Is(err, ErrRescoreInProgress) {
				cfg.Logger.Error().Err(err).Msg("manual rescore failed")
			}
		}()

		response.JSON(w, r, http.StatusAccepted, map[string]string{"status": "started"})
	})

	return r
}
