// Package handler provides HTTP handlers for the GrowNEX API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/grownex/grownex/internal/api/models"
	"github.com/grownex/grownex/internal/api/response"
)

// readyTimeout bounds each dependency check in ReadinessCheck.
const readyTimeout = 2 * time.Second

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	storage   Pinger
	logger    zerolog.Logger
}

// NewOpsHandler creates a new OpsHandler. storage may be nil.
func NewOpsHandler(version, buildTime string, storage Pinger, logger zerolog.Logger) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		storage:   storage,
		logger:    logger,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check.
// Responds 503 when the analysis store cannot be reached.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	readiness := models.Readiness{
		Status:     models.HealthStatusOK,
		Time:       models.Timestamp(time.Now()),
		Subsystems: []models.SubsystemStatus{},
	}

	if h.storage != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		sub := models.SubsystemStatus{Name: "storage", Status: models.HealthStatusOK}
		if err := h.storage.Ping(ctx); err != nil {
			h.logger.Warn().Err(err).Msg("storage readiness check failed")
			detail := "storage unreachable"
			sub.Status = models.HealthStatusFail
			sub.Detail = &detail
			readiness.Status = models.HealthStatusFail
		}
		readiness.Subsystems = append(readiness.Subsystems, sub)
	}

	status := http.StatusOK
	if readiness.Status != models.HealthStatusOK {
		status = http.StatusServiceUnavailable
	}
	response.JSON(w, r, status, readiness)
}
