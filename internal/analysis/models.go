// Package analysis stores soil analyses and keeps their recommendations in
// step with the scoring engine.
package analysis

import (
	"errors"
	"reflect"
	"slices"
	"time"

	"github.com/grownex/grownex/internal/soil"
)

// Repository errors.
var (
	ErrAnalysisNotFound = errors.New("analysis not found")
	ErrAnalysisChanged  = errors.New("analysis changed since it was read")
)

// Analysis is a stored measurement together with the score and
// recommendations computed from it.
type Analysis struct {
	ID          string
	UserID      string
	Measurement soil.Measurement
	Score       float64
	Breakdown   soil.Breakdown
	Fertilizers []soil.Recommendation
	Pesticides  []soil.Recommendation
	Crops       []soil.CropMatch
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// apply overwrites the derived fields with a fresh engine result.
func (a *Analysis) apply(e *soil.Engine) {
	res := e.Analyze(a.Measurement)
	a.Score = res.Score
	a.Breakdown = e.Breakdown(a.Measurement)
	a.Fertilizers = res.Fertilizers
	a.Pesticides = res.Pesticides
	a.Crops = res.Crops
}

// clone returns a deep copy so callers never share slices with a repository.
func (a *Analysis) clone() *Analysis {
	cpy := *a
	cpy.Fertilizers = slices.Clone(a.Fertilizers)
	cpy.Pesticides = slices.Clone(a.Pesticides)
	cpy.Crops = slices.Clone(a.Crops)
	return &cpy
}

// sameResult reports whether two analyses carry identical derived fields.
func sameResult(a, b *Analysis) bool {
	return a.Score == b.Score &&
		a.Breakdown == b.Breakdown &&
		reflect.DeepEqual(a.Fertilizers, b.Fertilizers) &&
		reflect.DeepEqual(a.Pesticides, b.Pesticides) &&
		sameCrops(a.Crops, b.Crops)
}

func sameCrops(a, b []soil.CropMatch) bool {
	return len(a) == len(b) && (len(a) == 0 || reflect.DeepEqual(a, b))
}
