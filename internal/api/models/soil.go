package models

// SoilAnalysisRequest is the body of analyze, update and quick requests.
// Numeric fields are pointers so a missing value can be told apart from zero.
type SoilAnalysisRequest struct {
	LandArea      *float64 `json:"land_area"`
	Location      string   `json:"location"`
	SoilType      string   `json:"soil_type"`
	Irrigation    string   `json:"irrigation"`
	PHLevel       *float64 `json:"ph_level"`
	Nitrogen      *float64 `json:"nitrogen"`
	Phosphorus    *float64 `json:"phosphorus"`
	Potassium     *float64 `json:"potassium"`
	OrganicCarbon *float64 `json:"organic_carbon"`
	Zinc          *float64 `json:"zinc"`
}

// Recommendation is a fertilizer or pesticide application.
type Recommendation struct {
	Name        string `json:"name"`
	Application string `json:"application"`
	Frequency   string `json:"frequency,omitempty"`
	Purpose     string `json:"purpose"`
	Priority    string `json:"priority"`
}

// CropRecommendation is a ranked crop suggestion.
type CropRecommendation struct {
	Name        string `json:"name"`
	Timing      string `json:"timing"`
	Yield       string `json:"yield"`
	Suitability string `json:"suitability"`
	Score       int    `json:"score"`
	Priority    string `json:"priority"`
}

// ScoreBreakdown holds the per-factor sub-scores.
type ScoreBreakdown struct {
	PH            float64 `json:"ph"`
	Nitrogen      float64 `json:"nitrogen"`
	Phosphorus    float64 `json:"phosphorus"`
	Potassium     float64 `json:"potassium"`
	OrganicCarbon float64 `json:"organic_carbon"`
	Zinc          float64 `json:"zinc"`
}

// SoilRecommendations is the result of a quick analysis.
type SoilRecommendations struct {
	SoilScore        float64              `json:"soil_score"`
	Breakdown        ScoreBreakdown       `json:"breakdown"`
	Fertilizers      []Recommendation     `json:"fertilizers"`
	Pesticides       []Recommendation     `json:"pesticides"`
	RecommendedCrops []CropRecommendation `json:"recommended_crops"`
}

// SoilAnalysis is a stored analysis.
type SoilAnalysis struct {
	ID            string  `json:"id"`
	UserID        *string `json:"user_id,omitempty"`
	LandArea      float64 `json:"land_area"`
	Location      string  `json:"location"`
	SoilType      string  `json:"soil_type"`
	Irrigation    string  `json:"irrigation"`
	PHLevel       float64 `json:"ph_level"`
	Nitrogen      float64 `json:"nitrogen"`
	Phosphorus    float64 `json:"phosphorus"`
	Potassium     float64 `json:"potassium"`
	OrganicCarbon float64 `json:"organic_carbon"`
	Zinc          float64 `json:"zinc"`

	SoilRecommendations

	CreatedAt Timestamp `json:"created_at"`
	UpdatedAt Timestamp `json:"updated_at"`
}

// PagedSoilAnalyses represents a paginated analysis history.
type PagedSoilAnalyses struct {
	Items []SoilAnalysis    `json:"items"`
	Meta  PagedResponseMeta `json:"meta"`
}

// NutrientTarget is the target band of one nutrient.
type NutrientTarget struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Ideal float64 `json:"ideal"`
	Unit  string  `json:"unit"`
}

// NutrientTargets holds the N, P and K targets of a soil type.
type NutrientTargets struct {
	SoilType   string         `json:"soil_type"`
	Nitrogen   NutrientTarget `json:"nitrogen"`
	Phosphorus NutrientTarget `json:"phosphorus"`
	Potassium  NutrientTarget `json:"potassium"`
}

// CropSuitability is a catalog crop suited to a soil type.
type CropSuitability struct {
	Name        string  `json:"name"`
	Suitability string  `json:"suitability"`
	Reason      string  `json:"reason"`
	PHMin       float64 `json:"ph_min"`
	PHMax       float64 `json:"ph_max"`
	Timing      string  `json:"timing"`
	Yield       string  `json:"yield"`
}
