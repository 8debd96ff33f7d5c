package soil

// pesticideRule adds its recommendation when applies reports true. Rules are
// evaluated in order and each one fires independently.
type pesticideRule struct {
	applies func(m Measurement, score float64) bool
	rec     Recommendation
}

// LowHealthThreshold is the score below which soil is treated as unhealthy.
const LowHealthThreshold = 6.0

var pesticideRules = []pesticideRule{
	{
		applies: func(m Measurement, _ float64) bool { return m.PH > 7.5 },
		rec: Recommendation{
			Name:        "Chlorpyrifos 20% EC",
			Application: "2 ml/liter water",
			Purpose:     "Termite & root borer control (alkaline soil)",
			Priority:    PriorityHigh,
		},
	},
	{
		applies: func(m Measurement, _ float64) bool { return m.SoilType == Clay || m.SoilType == Silty },
		rec: Recommendation{
			Name:        "Mancozeb 75% WP",
			Application: "2.5 gm/liter water",
			Purpose:     "Fungal disease prevention (heavy soils)",
			Priority:    PriorityMedium,
		},
	},
	{
		applies: func(Measurement, float64) bool { return true },
		rec: Recommendation{
			Name:        "Imidacloprid 17.8% SL",
			Application: "0.5 ml/liter water",
			Purpose:     "Sucking pest control",
			Priority:    PriorityMedium,
		},
	},
	{
		applies: func(_ Measurement, score float64) bool { return score < LowHealthThreshold },
		rec: Recommendation{
			Name:        "Carbendazim 50% WP",
			Application: "1 gm/liter water",
			Purpose:     "Soil-borne disease prevention (low soil health)",
			Priority:    PriorityHigh,
		},
	},
}

// Pesticides lists pesticide applications for m at the given health score.
// The sucking-pest rule always fires, so the list is never empty.
func Pesticides(m Measurement, score float64) []Recommendation {
	out := make([]Recommendation, 0, len(pesticideRules))
	for _, r := range pesticideRules {
		if r.applies(m, score) {
			out = append(out, r.rec)
		}
	}
	return out
}
