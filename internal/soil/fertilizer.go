package soil

import (
	"fmt"
	"math"
)

// Nutrient identifies a macronutrient.
type Nutrient int

// Macronutrients.
const (
	Nitrogen Nutrient = iota
	Phosphorus
	Potassium
)

func (n Nutrient) String() string {
	switch n {
	case Nitrogen:
		return "nitrogen"
	case Phosphorus:
		return "phosphorus"
	case Potassium:
		return "potassium"
	default:
		return "unknown"
	}
}

func (n Nutrient) value(m Measurement) float64 {
	switch n {
	case Nitrogen:
		return m.Nitrogen
	case Phosphorus:
		return m.Phosphorus
	default:
		return m.Potassium
	}
}

func (n Nutrient) rangeOf(r SoilRanges) NutrientRange {
	switch n {
	case Nitrogen:
		return r.Nitrogen
	case Phosphorus:
		return r.Phosphorus
	default:
		return r.Potassium
	}
}

// deficitProduct corrects a macronutrient shortfall. Factor converts kg/ha of
// deficit into kg of product per unit of land area.
type deficitProduct struct {
	nutrient  Nutrient
	name      string
	factor    float64
	frequency string
	purpose   string
	priority  Priority
}

var deficitProducts = []deficitProduct{
	{Nitrogen, "Urea (46-0-0)", 2.17, "Before sowing & 30 days after", "Nitrogen supplementation", PriorityHigh},
	{Phosphorus, "DAP (18-46-0)", 4.35, "At the time of sowing", "Phosphorus supplementation", PriorityHigh},
	{Potassium, "Muriate of Potash (0-0-60)", 1.67, "Before sowing", "Potassium supplementation", PriorityMedium},
}

const (
	// ZincThreshold is the zinc level (ppm) below which zinc sulphate is added.
	ZincThreshold = 0.6

	zincSulphateRate = 25
	maintenanceRate  = 100
)

// Fertilizers lists fertilizer applications for m in fixed order. The list is
// never empty: with no deficit a maintenance NPK dose is returned.
func (e *Engine) Fertilizers(m Measurement) []Recommendation {
	r := e.ranges.Lookup(m.SoilType)
	var out []Recommendation

	for _, p := range deficitProducts {
		nr := p.nutrient.rangeOf(r)
		v := p.nutrient.value(m)
		if v >= nr.Min {
			continue
		}
		out = append(out, Recommendation{
			Name:        p.name,
			Application: totalKg((nr.Ideal - v) * p.factor * m.LandArea),
			Frequency:   p.frequency,
			Purpose:     p.purpose,
			Priority:    p.priority,
		})
	}

	if m.Zinc < ZincThreshold {
		out = append(out, Recommendation{
			Name:        "Zinc Sulphate",
			Application: totalKg(zincSulphateRate * m.LandArea),
			Frequency:   "Once before sowing",
			Purpose:     "Zinc micronutrient",
			Priority:    PriorityMedium,
		})
	}

	if len(out) == 0 {
		out = append(out, Recommendation{
			Name:        "Balanced NPK Fertilizer",
			Application: totalKg(maintenanceRate * m.LandArea),
			Frequency:   "Maintenance application",
			Purpose:     "General soil health",
			Priority:    PriorityLow,
		})
	}
	return out
}

func totalKg(kg float64) string {
	return fmt.Sprintf("%d kg/total", int64(math.Floor(kg+0.5)))
}
