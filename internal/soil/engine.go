package soil

import (
	"fmt"
	"sync/atomic"
)

// Engine scores measurements and builds recommendations from a fixed range
// table, crop catalog and set of match weights.
type Engine struct {
	ranges  RangeTable
	catalog Catalog
	weights MatchWeights
}

// Option configures an Engine.
type Option func(*Engine)

// WithRanges replaces the nutrient range table.
func WithRanges(t RangeTable) Option {
	return func(e *Engine) { e.ranges = t.clone() }
}

// WithCatalog replaces the crop catalog.
func WithCatalog(c Catalog) Option {
	return func(e *Engine) { e.catalog = c.clone() }
}

// WithMatchWeights replaces the crop scoring weights.
func WithMatchWeights(w MatchWeights) Option {
	return func(e *Engine) { e.weights = w }
}

// NewEngine builds an engine from the defaults plus opts and validates the
// result.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		ranges:  DefaultRanges(),
		catalog: DefaultCatalog(),
		weights: DefaultMatchWeights(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.ranges.Validate(); err != nil {
		return nil, err
	}
	if err := e.catalog.Validate(); err != nil {
		return nil, fmt.Errorf("crop catalog: %w", err)
	}
	return e, nil
}

var defaultEngine = mustEngine()

func mustEngine() *Engine {
	e, err := NewEngine()
	if err != nil {
		panic(err)
	}
	return e
}

// DefaultEngine returns the shared engine built from the built-in tables.
func DefaultEngine() *Engine { return defaultEngine }

// Recommend builds all three recommendation lists for m at the given score.
func (e *Engine) Recommend(m Measurement, score float64) Recommendations {
	return Recommendations{
		Fertilizers: e.Fertilizers(m),
		Pesticides:  Pesticides(m, score),
		Crops:       e.Crops(m),
	}
}

// Analyze scores m and derives its recommendations.
func (e *Engine) Analyze(m Measurement) Result {
	score := e.HealthScore(m)
	return Result{Score: score, Recommendations: e.Recommend(m, score)}
}

// Ranges returns the nutrient targets used for s, after the Loamy fallback.
func (e *Engine) Ranges(s SoilType) SoilRanges {
	return e.ranges.Lookup(s)
}

// Catalog returns a copy of the crop catalog.
func (e *Engine) Catalog() Catalog {
	return e.catalog.clone()
}

// CropsForSoil returns the catalog crops that list s as a suitable soil.
func (e *Engine) CropsForSoil(s SoilType) []Crop {
	var out []Crop
	for _, c := range e.catalog.clone() {
		if c.GrowsIn(s) {
			out = append(out, c)
		}
	}
	return out
}

// ComputeHealthScore scores m with the default engine.
func ComputeHealthScore(m Measurement) float64 {
	return defaultEngine.HealthScore(m)
}

// ComputeRecommendations builds recommendations for m with the default engine.
func ComputeRecommendations(m Measurement, score float64) Recommendations {
	return defaultEngine.Recommend(m, score)
}

// EngineRef holds the current engine and lets it be swapped at runtime, for
// example when the crop catalog is reloaded.
type EngineRef struct {
	p atomic.Pointer[Engine]
}

// NewEngineRef returns a ref holding e, or the default engine if e is nil.
func NewEngineRef(e *Engine) *EngineRef {
	if e == nil {
		e = defaultEngine
	}
	r := &EngineRef{}
	r.p.Store(e)
	return r
}

// Load returns the current engine.
func (r *EngineRef) Load() *Engine {
	if e := r.p.Load(); e != nil {
		return e
	}
	return defaultEngine
}

// Store installs e as the current engine.
func (r *EngineRef) Store(e *Engine) {
	r.p.Store(e)
}
