package soil

import (
	"errors"
	"fmt"
)

// NutrientRange is the acceptable band of a macronutrient for one soil type.
type NutrientRange struct {
	Min   float64 `json:"min" yaml:"min"`
	Max   float64 `json:"max" yaml:"max"`
	Ideal float64 `json:"ideal" yaml:"ideal"`
}

// Validate checks 0 < min < ideal < max.
func (r NutrientRange) Validate() error {
	if r.Min <= 0 {
		return errors.New("min must be positive")
	}
	if !(r.Min < r.Ideal && r.Ideal < r.Max) {
		return fmt.Errorf("want min < ideal < max, got %v/%v/%v", r.Min, r.Ideal, r.Max)
	}
	return nil
}

// SoilRanges holds the N, P and K targets of one soil type.
type SoilRanges struct {
	Nitrogen   NutrientRange `json:"nitrogen" yaml:"nitrogen"`
	Phosphorus NutrientRange `json:"phosphorus" yaml:"phosphorus"`
	Potassium  NutrientRange `json:"potassium" yaml:"potassium"`
}

// RangeTable maps each soil type to its nutrient targets.
type RangeTable map[SoilType]SoilRanges

// DefaultRanges returns a copy of the built-in nutrient table (kg/ha).
func DefaultRanges() RangeTable {
	return RangeTable{
		Sandy: {
			Nitrogen:   NutrientRange{Min: 200, Max: 280, Ideal: 240},
			Phosphorus: NutrientRange{Min: 30, Max: 50, Ideal: 40},
			Potassium:  NutrientRange{Min: 250, Max: 400, Ideal: 325},
		},
		Clay: {
			Nitrogen:   NutrientRange{Min: 250, Max: 350, Ideal: 300},
			Phosphorus: NutrientRange{Min: 40, Max: 60, Ideal: 50},
			Potassium:  NutrientRange{Min: 300, Max: 500, Ideal: 400},
		},
		Loamy: {
			Nitrogen:   NutrientRange{Min: 250, Max: 300, Ideal: 275},
			Phosphorus: NutrientRange{Min: 40, Max: 50, Ideal: 45},
			Potassium:  NutrientRange{Min: 300, Max: 400, Ideal: 350},
		},
		Silty: {
			Nitrogen:   NutrientRange{Min: 220, Max: 320, Ideal: 270},
			Phosphorus: NutrientRange{Min: 35, Max: 55, Ideal: 45},
			Potassium:  NutrientRange{Min: 280, Max: 450, Ideal: 365},
		},
		Peaty: {
			Nitrogen:   NutrientRange{Min: 180, Max: 260, Ideal: 220},
			Phosphorus: NutrientRange{Min: 25, Max: 45, Ideal: 35},
			Potassium:  NutrientRange{Min: 200, Max: 350, Ideal: 275},
		},
		Chalky: {
			Nitrogen:   NutrientRange{Min: 200, Max: 300, Ideal: 250},
			Phosphorus: NutrientRange{Min: 45, Max: 65, Ideal: 55},
			Potassium:  NutrientRange{Min: 350, Max: 550, Ideal: 450},
		},
	}
}

// Lookup returns the ranges for s. Unknown soil types fall back to Loamy.
func (t RangeTable) Lookup(s SoilType) SoilRanges {
	if r, ok := t[s]; ok {
		return r
	}
	return t[Loamy]
}

// Validate checks that the table has a Loamy fallback entry and that every
// range is well formed.
func (t RangeTable) Validate() error {
	if _, ok := t[Loamy]; !ok {
		return fmt.Errorf("range table: missing %s fallback entry", Loamy)
	}
	for s, r := range t {
		for name, nr := range map[string]NutrientRange{
			"nitrogen":   r.Nitrogen,
			"phosphorus": r.Phosphorus,
			"potassium":  r.Potassium,
		} {
			if err := nr.Validate(); err != nil {
				return fmt.Errorf("range table: %s %s: %w", s, name, err)
			}
		}
	}
	return nil
}

func (t RangeTable) clone() RangeTable {
	out := make(RangeTable, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}
