package soil

import "math"

// Band is an inclusive [Lower, Upper] interval mapped to a sub-score.
type Band struct {
	Lower float64
	Upper float64
	Score float64
}

// BandTable is an ordered list of bands evaluated first-match-wins.
type BandTable struct {
	Bands []Band
	Floor float64
}

// Score returns the score of the first band containing v, or the floor.
func (t BandTable) Score(v float64) float64 {
	for _, b := range t.Bands {
		if v >= b.Lower && v <= b.Upper {
			return b.Score
		}
	}
	return t.Floor
}

const floorScore = 2

var (
	phBands = BandTable{
		Bands: []Band{
			{6.0, 7.5, 10},
			{5.5, 8.0, 8},
			{5.0, 8.5, 6},
			{4.5, 9.0, 4},
		},
		Floor: floorScore,
	}

	carbonBands = BandTable{
		Bands: []Band{
			{0.75, 2.0, 10},
			{0.5, 3.0, 8},
			{0.3, 4.0, 6},
			{0.2, 5.0, 4},
		},
		Floor: floorScore,
	}

	zincBands = BandTable{
		Bands: []Band{
			{0.6, 2.0, 10},
			{0.4, 3.0, 8},
			{0.3, 4.0, 6},
			{0.2, 5.0, 4},
		},
		Floor: floorScore,
	}
)

// PHScore scores soil pH.
func PHScore(ph float64) float64 { return phBands.Score(ph) }

// OrganicCarbonScore scores organic carbon (%).
func OrganicCarbonScore(oc float64) float64 { return carbonBands.Score(oc) }

// ZincScore scores zinc (ppm).
func ZincScore(zn float64) float64 { return zincBands.Score(zn) }

// NutrientScore scores a macronutrient against its soil range. Inside the
// range the score falls linearly from 10 at the ideal to 6 at the farther
// edge; outside it starts at 6 and drops with the relative distance, never
// below 2.
func NutrientScore(v float64, r NutrientRange) float64 {
	switch {
	case v >= r.Min && v <= r.Max:
		span := math.Max(r.Ideal-r.Min, r.Max-r.Ideal)
		return roundTenths(10 - math.Abs(v-r.Ideal)/span*4)
	case v < r.Min:
		return roundTenths(math.Max(floorScore, 6-(r.Min-v)/r.Min*4))
	case v > r.Max:
		return roundTenths(math.Max(floorScore, 6-(v-r.Max)/r.Max*4))
	default:
		// NaN
		return floorScore
	}
}

// roundTenths rounds half-up to one decimal.
func roundTenths(x float64) float64 {
	return math.Floor(x*10+0.5) / 10
}
