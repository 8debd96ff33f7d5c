package soil

import (
	"errors"
	"fmt"
	"sort"
)

// Level is a coarse nutrient level.
type Level string

// Nutrient levels.
const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

func (l Level) valid() bool {
	return l == LevelLow || l == LevelMedium || l == LevelHigh
}

// LevelThresholds classifies a nutrient: above High is high, above Medium is
// medium, anything else is low.
type LevelThresholds struct {
	Medium float64
	High   float64
}

// Classify returns the level of v.
func (t LevelThresholds) Classify(v float64) Level {
	switch {
	case v > t.High:
		return LevelHigh
	case v > t.Medium:
		return LevelMedium
	default:
		return LevelLow
	}
}

// NutrientNeeds are the N, P and K levels a crop prefers.
type NutrientNeeds struct {
	Nitrogen   Level `yaml:"nitrogen" json:"nitrogen"`
	Phosphorus Level `yaml:"phosphorus" json:"phosphorus"`
	Potassium  Level `yaml:"potassium" json:"potassium"`
}

// Crop is one catalog entry.
type Crop struct {
	Name       string        `yaml:"name" json:"name"`
	Soils      []SoilType    `yaml:"soils" json:"soils"`
	PHMin      float64       `yaml:"ph_min" json:"ph_min"`
	PHMax      float64       `yaml:"ph_max" json:"ph_max"`
	Nutrients  NutrientNeeds `yaml:"nutrients" json:"nutrients"`
	Irrigation []Irrigation  `yaml:"irrigation" json:"irrigation"`
	Timing     string        `yaml:"timing" json:"timing"`
	Yield      string        `yaml:"yield" json:"yield"`
	Priority   Priority      `yaml:"priority" json:"priority"`
}

// GrowsIn reports whether the crop lists s as a suitable soil.
func (c Crop) GrowsIn(s SoilType) bool {
	for _, t := range c.Soils {
		if t == s {
			return true
		}
	}
	return false
}

func (c Crop) irrigatedBy(i Irrigation) bool {
	for _, t := range c.Irrigation {
		if t == i {
			return true
		}
	}
	return false
}

// Validate checks a single catalog entry.
func (c Crop) Validate() error {
	if c.Name == "" {
		return errors.New("name is required")
	}
	if len(c.Soils) == 0 {
		return errors.New("at least one soil type is required")
	}
	for _, s := range c.Soils {
		if !s.Valid() {
			return fmt.Errorf("unknown soil type %q", s)
		}
	}
	for _, i := range c.Irrigation {
		if !i.Valid() {
			return fmt.Errorf("unknown irrigation %q", i)
		}
	}
	if c.PHMin > c.PHMax {
		return fmt.Errorf("ph_min %v above ph_max %v", c.PHMin, c.PHMax)
	}
	for _, l := range []Level{c.Nutrients.Nitrogen, c.Nutrients.Phosphorus, c.Nutrients.Potassium} {
		if !l.valid() {
			return fmt.Errorf("unknown nutrient level %q", l)
		}
	}
	switch c.Priority {
	case PriorityLow, PriorityMedium, PriorityHigh:
	default:
		return fmt.Errorf("unknown priority %q", c.Priority)
	}
	return nil
}

// Catalog is an ordered list of crops. Order breaks score ties.
type Catalog []Crop

// Validate checks every entry and rejects duplicate names.
func (c Catalog) Validate() error {
	if len(c) == 0 {
		return errors.New("catalog is empty")
	}
	seen := make(map[string]bool, len(c))
	for i, crop := range c {
		if err := crop.Validate(); err != nil {
			return fmt.Errorf("crop %d (%s): %w", i, crop.Name, err)
		}
		if seen[crop.Name] {
			return fmt.Errorf("crop %d: duplicate name %q", i, crop.Name)
		}
		seen[crop.Name] = true
	}
	return nil
}

func (c Catalog) clone() Catalog {
	out := make(Catalog, len(c))
	for i, crop := range c {
		crop.Soils = append([]SoilType(nil), crop.Soils...)
		crop.Irrigation = append([]Irrigation(nil), crop.Irrigation...)
		out[i] = crop
	}
	return out
}

// DefaultCatalog returns the built-in crop catalog.
func DefaultCatalog() Catalog {
	return Catalog{
		{
			Name:       "Wheat",
			Soils:      []SoilType{Loamy, Clay, Silty},
			PHMin:      6.0,
			PHMax:      7.5,
			Nutrients:  NutrientNeeds{LevelMedium, LevelMedium, LevelMedium},
			Irrigation: []Irrigation{Drip, Sprinkler, Flood},
			Timing:     "Oct-Nov | Mar-Apr",
			Yield:      "18-22 quintals/acre",
			Priority:   PriorityHigh,
		},
		{
			Name:       "Maize",
			Soils:      []SoilType{Loamy, Sandy, Silty},
			PHMin:      5.5,
			PHMax:      7.5,
			Nutrients:  NutrientNeeds{LevelHigh, LevelMedium, LevelHigh},
			Irrigation: []Irrigation{Drip, Sprinkler},
			Timing:     "Jun-Jul | Sep-Oct",
			Yield:      "25-30 quintals/acre",
			Priority:   PriorityMedium,
		},
		{
			Name:       "Potato",
			Soils:      []SoilType{Loamy, Sandy, Silty},
			PHMin:      5.0,
			PHMax:      6.5,
			Nutrients:  NutrientNeeds{LevelMedium, LevelHigh, LevelHigh},
			Irrigation: []Irrigation{Drip, Sprinkler},
			Timing:     "Oct-Nov | Feb-Mar",
			Yield:      "80-100 quintals/acre",
			Priority:   PriorityHigh,
		},
		{
			Name:       "Mustard",
			Soils:      []SoilType{Loamy, Clay, Silty},
			PHMin:      6.0,
			PHMax:      7.5,
			Nutrients:  NutrientNeeds{LevelMedium, LevelMedium, LevelMedium},
			Irrigation: []Irrigation{Drip, Sprinkler, Flood},
			Timing:     "Oct-Nov | Feb-Mar",
			Yield:      "6-8 quintals/acre",
			Priority:   PriorityMedium,
		},
		{
			Name:       "Rice",
			Soils:      []SoilType{Clay, Silty},
			PHMin:      5.5,
			PHMax:      7.0,
			Nutrients:  NutrientNeeds{LevelHigh, LevelMedium, LevelMedium},
			Irrigation: []Irrigation{Flood},
			Timing:     "Jun-Jul | Oct-Nov",
			Yield:      "25-30 quintals/acre",
			Priority:   PriorityLow,
		},
		{
			Name:       "Cotton",
			Soils:      []SoilType{Sandy, Loamy},
			PHMin:      6.0,
			PHMax:      8.0,
			Nutrients:  NutrientNeeds{LevelMedium, LevelMedium, LevelHigh},
			Irrigation: []Irrigation{Drip, Sprinkler},
			Timing:     "Apr-May | Oct-Nov",
			Yield:      "8-12 quintals/acre",
			Priority:   PriorityMedium,
		},
	}
}

// MatchWeights configures crop scoring.
type MatchWeights struct {
	Soil       int
	PH         int
	Nutrient   int
	Irrigation int

	// MinScore is the lowest score a crop needs to be listed.
	MinScore int
	// HighlyRecommendedScore is the lowest score labelled Highly Recommended.
	HighlyRecommendedScore int
	// Limit caps the number of crops returned.
	Limit int

	Nitrogen   LevelThresholds
	Phosphorus LevelThresholds
	Potassium  LevelThresholds
}

// DefaultMatchWeights returns the standard crop scoring weights.
func DefaultMatchWeights() MatchWeights {
	return MatchWeights{
		Soil:                   3,
		PH:                     2,
		Nutrient:               1,
		Irrigation:             2,
		MinScore:               5,
		HighlyRecommendedScore: 7,
		Limit:                  4,
		Nitrogen:               LevelThresholds{Medium: 150, High: 250},
		Phosphorus:             LevelThresholds{Medium: 25, High: 45},
		Potassium:              LevelThresholds{Medium: 200, High: 350},
	}
}

// Levels classifies the N, P and K values of m.
func (w MatchWeights) Levels(m Measurement) NutrientNeeds {
	return NutrientNeeds{
		Nitrogen:   w.Nitrogen.Classify(m.Nitrogen),
		Phosphorus: w.Phosphorus.Classify(m.Phosphorus),
		Potassium:  w.Potassium.Classify(m.Potassium),
	}
}

// scoreCrop returns the match score of c for a measurement with the given
// nutrient levels.
func (w MatchWeights) scoreCrop(c Crop, m Measurement, levels NutrientNeeds) int {
	score := 0
	if c.GrowsIn(m.SoilType) {
		score += w.Soil
	}
	if m.PH >= c.PHMin && m.PH <= c.PHMax {
		score += w.PH
	}
	if c.Nutrients.Nitrogen == levels.Nitrogen {
		score += w.Nutrient
	}
	if c.Nutrients.Phosphorus == levels.Phosphorus {
		score += w.Nutrient
	}
	if c.Nutrients.Potassium == levels.Potassium {
		score += w.Nutrient
	}
	if c.irrigatedBy(m.Irrigation) {
		score += w.Irrigation
	}
	return score
}

// Crops ranks the catalog against m and returns the best matches.
func (e *Engine) Crops(m Measurement) []CropMatch {
	w := e.weights
	levels := w.Levels(m)

	matches := make([]CropMatch, 0, len(e.catalog))
	for _, c := range e.catalog {
		score := w.scoreCrop(c, m, levels)
		if score < w.MinScore {
			continue
		}
		suitability := Suitable
		if score >= w.HighlyRecommendedScore {
			suitability = HighlyRecommended
		}
		matches = append(matches, CropMatch{
			Name:        c.Name,
			Timing:      c.Timing,
			Yield:       c.Yield,
			Suitability: suitability,
			Score:       score,
			Priority:    c.Priority,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if w.Limit > 0 && len(matches) > w.Limit {
		matches = matches[:w.Limit]
	}
	return matches
}
