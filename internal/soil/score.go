package soil

// Breakdown holds the six sub-scores behind a health score, each in [2, 10].
type Breakdown struct {
	PH            float64 `json:"ph"`
	Nitrogen      float64 `json:"nitrogen"`
	Phosphorus    float64 `json:"phosphorus"`
	Potassium     float64 `json:"potassium"`
	OrganicCarbon float64 `json:"organic_carbon"`
	Zinc          float64 `json:"zinc"`
}

// Sum adds the sub-scores.
func (b Breakdown) Sum() float64 {
	return b.PH + b.Nitrogen + b.Phosphorus + b.Potassium + b.OrganicCarbon + b.Zinc
}

// Score converts the sum to the 0-10 scale with one decimal.
func (b Breakdown) Score() float64 {
	return roundTenths(b.Sum() / 60 * 10)
}

// Breakdown computes the sub-scores of m.
func (e *Engine) Breakdown(m Measurement) Breakdown {
	r := e.ranges.Lookup(m.SoilType)
	return Breakdown{
		PH:            PHScore(m.PH),
		Nitrogen:      NutrientScore(m.Nitrogen, r.Nitrogen),
		Phosphorus:    NutrientScore(m.Phosphorus, r.Phosphorus),
		Potassium:     NutrientScore(m.Potassium, r.Potassium),
		OrganicCarbon: OrganicCarbonScore(m.OrganicCarbon),
		Zinc:          ZincScore(m.Zinc),
	}
}

// HealthScore returns the overall soil health score of m in [0, 10].
func (e *Engine) HealthScore(m Measurement) float64 {
	return e.Breakdown(m).Score()
}
