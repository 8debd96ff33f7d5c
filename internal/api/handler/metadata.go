package handler

import (
	"net/http"

	"github.com/grownex/grownex/internal/api/models"
	"github.com/grownex/grownex/internal/api/response"
	"github.com/grownex/grownex/internal/soil"
)

// MetadataHandler handles metadata endpoints.
type MetadataHandler struct{}

// NewMetadataHandler creates a new MetadataHandler.
func NewMetadataHandler() *MetadataHandler {
	return &MetadataHandler{}
}

// ListSoilTypes handles GET /v1/metadata/soil-types.
func (h *MetadataHandler) ListSoilTypes(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, toTypeOptions(soil.SoilTypes()))
}

// ListIrrigationTypes handles GET /v1/metadata/irrigation-types.
func (h *MetadataHandler) ListIrrigationTypes(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, toTypeOptions(soil.IrrigationTypes()))
}

func toTypeOptions(infos []soil.TypeInfo) []models.TypeOption {
	out := make([]models.TypeOption, len(infos))
	for i, info := range infos {
		out[i] = models.TypeOption{Value: info.Value, Description: info.Description}
	}
	return out
}
