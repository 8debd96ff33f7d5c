package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/grownex/grownex/internal/analysis"
	"github.com/grownex/grownex/internal/api/models"
	"github.com/grownex/grownex/internal/api/response"
	"github.com/grownex/grownex/internal/soil"
)

// nutrientUnit is the unit of the N, P and K targets.
const nutrientUnit = "kg/ha"

// RecommendationsHandler handles stateless recommendation endpoints.
type RecommendationsHandler struct {
	service *analysis.Service
	logger  zerolog.Logger
}

// NewRecommendationsHandler creates a new RecommendationsHandler.
func NewRecommendationsHandler(service *analysis.Service, logger zerolog.Logger) *RecommendationsHandler {
	return &RecommendationsHandler{service: service, logger: logger}
}

// Quick handles POST /v1/recommendations/quick - score without storing.
func (h *RecommendationsHandler) Quick(w http.ResponseWriter, r *http.Request) {
	var req models.SoilAnalysisRequest
	if !response.DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.service.Quick(r.Context(), &req)
	if err != nil {
		var verr *analysis.ValidationError
		if errors.As(err, &verr) {
			response.ValidationFailed(w, r, verr.Errors)
			return
		}
		h.logger.Error().Err(err).Msg("quick recommendation failed")
		response.InternalError(w, r, "failed to generate recommendations")
		return
	}

	response.JSON(w, r, http.StatusOK, result)
}

// FertilizerTargets handles GET /v1/recommendations/fertilizers/{soilType}.
// Unknown soil types get the Loamy targets.
func (h *RecommendationsHandler) FertilizerTargets(w http.ResponseWriter, r *http.Request) {
	soilType := resolveSoilType(chi.URLParam(r, "soilType"))
	ranges := h.service.Engine().Ranges(soilType)

	response.JSON(w, r, http.StatusOK, models.NutrientTargets{
		SoilType:   string(soilType),
		Nitrogen:   toNutrientTarget(ranges.Nitrogen),
		Phosphorus: toNutrientTarget(ranges.Phosphorus),
		Potassium:  toNutrientTarget(ranges.Potassium),
	})
}

// CropsForSoil handles GET /v1/recommendations/crops/{soilType}.
// Unknown soil types get the Loamy crops.
func (h *RecommendationsHandler) CropsForSoil(w http.ResponseWriter, r *http.Request) {
	soilType := resolveSoilType(chi.URLParam(r, "soilType"))
	crops := h.service.Engine().CropsForSoil(soilType)

	out := make([]models.CropSuitability, 0, len(crops))
	for _, c := range crops {
		out = append(out, models.CropSuitability{
			Name:        c.Name,
			Suitability: string(soil.Suitable),
			Reason:      "Well adapted to " + string(soilType) + " soil conditions",
			PHMin:       c.PHMin,
			PHMax:       c.PHMax,
			Timing:      c.Timing,
			Yield:       c.Yield,
		})
	}

	response.JSON(w, r, http.StatusOK, out)
}

func resolveSoilType(raw string) soil.SoilType {
	s := soil.SoilType(raw)
	if !s.Valid() {
		return soil.Loamy
	}
	return s
}

func toNutrientTarget(r soil.NutrientRange) models.NutrientTarget {
	return models.NutrientTarget{Min: r.Min, Max: r.Max, Ideal: r.Ideal, Unit: nutrientUnit}
}
