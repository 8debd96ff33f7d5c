package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/grownex/grownex/internal/analysis"
	"github.com/grownex/grownex/internal/api/models"
	"github.com/grownex/grownex/internal/api/response"
	"github.com/grownex/grownex/internal/featureflags"
)

// SoilHandler handles stored soil analysis endpoints.
type SoilHandler struct {
	service *analysis.Service
	flags   *featureflags.Service
	logger  zerolog.Logger
}

// NewSoilHandler creates a new SoilHandler.
func NewSoilHandler(service *analysis.Service, flags *featureflags.Service, logger zerolog.Logger) *SoilHandler {
	return &SoilHandler{
		service: service,
		flags:   flags,
		logger:  logger,
	}
}

// CreateAnalysis handles POST /v1/soil/analyses - score and store a measurement.
func (h *SoilHandler) CreateAnalysis(w http.ResponseWriter, r *http.Request) {
	if h.readOnly(w, r) {
		return
	}

	var req models.SoilAnalysisRequest
	if !response.DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.service.Analyze(r.Context(), callerFrom(r.Context()), &req)
	if err != nil {
		h.writeError(w, r, err, "failed to save soil analysis")
		return
	}

	response.Created(w, r, "/v1/soil/analyses/"+result.ID, result)
}

// ListAnalyses handles GET /v1/soil/analyses - analysis history, newest first.
func (h *SoilHandler) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.ValidationFailed(w, r, []models.FieldError{{
				Field:   "limit",
				Code:    "INVALID_VALUE",
				Message: "limit must be a positive integer",
			}})
			return
		}
		limit = n
	}

	page, err := h.service.List(r.Context(), callerFrom(r.Context()), limit, r.URL.Query().Get("cursor"))
	if err != nil {
		h.writeError(w, r, err, "failed to fetch soil history")
		return
	}

	response.JSON(w, r, http.StatusOK, page)
}

// GetAnalysis handles GET /v1/soil/analyses/{analysisId}.
func (h *SoilHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Get(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "analysisId"))
	if err != nil {
		h.writeError(w, r, err, "failed to fetch analysis")
		return
	}

	response.JSON(w, r, http.StatusOK, result)
}

// UpdateAnalysis handles PUT /v1/soil/analyses/{analysisId} - replace the
// measurement and recompute its recommendations.
func (h *SoilHandler) UpdateAnalysis(w http.ResponseWriter, r *http.Request) {
	if h.readOnly(w, r) {
		return
	}

	var req models.SoilAnalysisRequest
	if !response.DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.service.Update(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "analysisId"), &req)
	if err != nil {
		h.writeError(w, r, err, "failed to update soil analysis")
		return
	}

	response.JSON(w, r, http.StatusOK, result)
}

// DeleteAnalysis handles DELETE /v1/soil/analyses/{analysisId}. Admin only.
func (h *SoilHandler) DeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	if h.readOnly(w, r) {
		return
	}

	if err := h.service.Delete(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "analysisId")); err != nil {
		h.writeError(w, r, err, "failed to delete analysis")
		return
	}

	response.NoContent(w, r)
}

// readOnly writes a 503 and returns true when writes are switched off.
func (h *SoilHandler) readOnly(w http.ResponseWriter, r *http.Request) bool {
	if h.flags != nil && h.flags.ReadOnly(r.Context()) {
		response.ServiceUnavailable(w, r, "analyses are read-only at the moment")
		return true
	}
	return false
}

func (h *SoilHandler) writeError(w http.ResponseWriter, r *http.Request, err error, detail string) {
	var verr *analysis.ValidationError
	switch {
	case errors.As(err, &verr):
		response.ValidationFailed(w, r, verr.Errors)
	case errors.Is(err, analysis.ErrAnalysisNotFound):
		response.NotFound(w, r, "Analysis not found")
	default:
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg(detail)
		response.InternalError(w, r, detail)
	}
}
