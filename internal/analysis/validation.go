package analysis

import (
	"strings"
	"unicode/utf8"

	"github.com/grownex/grownex/internal/api/models"
	"github.com/grownex/grownex/internal/soil"
)

// Validation constants.
const (
	MinLocationLength = 3
	MaxLocationLength = 100
	MaxPH             = 14
	MaxOrganicCarbon  = 100
)

// Field error codes.
const (
	CodeRequired   = "REQUIRED"
	CodeOutOfRange = "OUT_OF_RANGE"
	CodeInvalid    = "INVALID_VALUE"
)

// ValidationError carries the field errors of a rejected request.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

// validateRequest checks the request and converts it into a measurement.
func validateRequest(req *models.SoilAnalysisRequest) (soil.Measurement, []models.FieldError) {
	var errs []models.FieldError
	add := func(field, code, msg string) {
		errs = append(errs, models.FieldError{Field: field, Message: msg, Code: code})
	}

	if req.LandArea == nil {
		add("land_area", CodeRequired, "Land area is required")
	} else if *req.LandArea <= 0 {
		add("land_area", CodeOutOfRange, "Land area must be positive")
	}

	location := strings.TrimSpace(req.Location)
	switch n := utf8.RuneCountInString(location); {
	case n == 0:
		add("location", CodeRequired, "Location is required")
	case n < MinLocationLength:
		add("location", CodeOutOfRange, "Location must be at least 3 characters")
	case n > MaxLocationLength:
		add("location", CodeOutOfRange, "Location must not exceed 100 characters")
	}

	soilType := soil.SoilType(req.SoilType)
	if req.SoilType == "" {
		add("soil_type", CodeRequired, "Soil type is required")
	} else if !soilType.Valid() {
		add("soil_type", CodeInvalid, "Soil type must be one of: Sandy, Clay, Loamy, Silty, Peaty, Chalky")
	}

	irrigation := soil.Irrigation(req.Irrigation)
	if req.Irrigation == "" {
		add("irrigation", CodeRequired, "Irrigation is required")
	} else if !irrigation.Valid() {
		add("irrigation", CodeInvalid, "Irrigation must be one of: Drip, Sprinkler, Flood, Center Pivot, Manual")
	}

	if req.PHLevel == nil {
		add("ph_level", CodeRequired, "pH level is required")
	} else if *req.PHLevel < 0 || *req.PHLevel > MaxPH {
		add("ph_level", CodeOutOfRange, "pH level must be between 0 and 14")
	}

	nonNegative := []struct {
		field string
		label string
		value *float64
	}{
		{"nitrogen", "Nitrogen", req.Nitrogen},
		{"phosphorus", "Phosphorus", req.Phosphorus},
		{"potassium", "Potassium", req.Potassium},
		{"zinc", "Zinc", req.Zinc},
	}
	for _, f := range nonNegative {
		if f.value == nil {
			add(f.field, CodeRequired, f.label+" is required")
		} else if *f.value < 0 {
			add(f.field, CodeOutOfRange, f.label+" must be positive")
		}
	}

	if req.OrganicCarbon == nil {
		add("organic_carbon", CodeRequired, "Organic carbon is required")
	} else if *req.OrganicCarbon < 0 {
		add("organic_carbon", CodeOutOfRange, "Organic carbon must be positive")
	} else if *req.OrganicCarbon > MaxOrganicCarbon {
		add("organic_carbon", CodeOutOfRange, "Organic carbon must not exceed 100%")
	}

	if len(errs) > 0 {
		return soil.Measurement{}, errs
	}

	return soil.Measurement{
		LandArea:      *req.LandArea,
		Location:      location,
		SoilType:      soilType,
		Irrigation:    irrigation,
		PH:            *req.PHLevel,
		Nitrogen:      *req.Nitrogen,
		Phosphorus:    *req.Phosphorus,
		Potassium:     *req.Potassium,
		OrganicCarbon: *req.OrganicCarbon,
		Zinc:          *req.Zinc,
	}, nil
}
