// Package soil scores soil measurements and derives fertilizer, pesticide
// and crop recommendations from them.
//
// Everything in this package is pure: no I/O, no clocks, no shared mutable
// state. An Engine is immutable after construction and can be shared by any
// number of goroutines.
package soil

// SoilType is the texture class of a field.
type SoilType string

// Soil types.
const (
	Sandy  SoilType = "Sandy"
	Clay   SoilType = "Clay"
	Loamy  SoilType = "Loamy"
	Silty  SoilType = "Silty"
	Peaty  SoilType = "Peaty"
	Chalky SoilType = "Chalky"
)

// AllSoilTypes lists the soil types in display order.
var AllSoilTypes = []SoilType{Sandy, Clay, Loamy, Silty, Peaty, Chalky}

// Valid reports whether s is a known soil type.
func (s SoilType) Valid() bool {
	for _, t := range AllSoilTypes {
		if s == t {
			return true
		}
	}
	return false
}

// Irrigation is the irrigation method used on a field.
type Irrigation string

// Irrigation methods.
const (
	Drip        Irrigation = "Drip"
	Sprinkler   Irrigation = "Sprinkler"
	Flood       Irrigation = "Flood"
	CenterPivot Irrigation = "Center Pivot"
	Manual      Irrigation = "Manual"
)

// AllIrrigations lists the irrigation methods in display order.
var AllIrrigations = []Irrigation{Drip, Sprinkler, Flood, CenterPivot, Manual}

// Valid reports whether i is a known irrigation method.
func (i Irrigation) Valid() bool {
	for _, t := range AllIrrigations {
		if i == t {
			return true
		}
	}
	return false
}

// Measurement is one soil test of a field. Nutrient values are kg/ha,
// organic carbon is a percentage and zinc is ppm.
type Measurement struct {
	LandArea      float64
	Location      string
	SoilType      SoilType
	Irrigation    Irrigation
	PH            float64
	Nitrogen      float64
	Phosphorus    float64
	Potassium     float64
	OrganicCarbon float64
	Zinc          float64
}

// Priority ranks a recommendation.
type Priority string

// Priorities.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Suitability labels a crop match.
type Suitability string

// Suitability labels.
const (
	Suitable          Suitability = "Suitable"
	HighlyRecommended Suitability = "Highly Recommended"
)

// Recommendation is a fertilizer or pesticide application.
type Recommendation struct {
	Name        string   `json:"name"`
	Application string   `json:"application"`
	Frequency   string   `json:"frequency,omitempty"`
	Purpose     string   `json:"purpose"`
	Priority    Priority `json:"priority"`
}

// CropMatch is a crop suggested for a measurement.
type CropMatch struct {
	Name        string      `json:"name"`
	Timing      string      `json:"timing"`
	Yield       string      `json:"yield"`
	Suitability Suitability `json:"suitability"`
	Score       int         `json:"score"`
	Priority    Priority    `json:"priority"`
}

// Recommendations groups the three recommendation lists.
type Recommendations struct {
	Fertilizers []Recommendation
	Pesticides  []Recommendation
	Crops       []CropMatch
}

// Result is the full analysis of a measurement.
type Result struct {
	Score float64
	Recommendations
}
