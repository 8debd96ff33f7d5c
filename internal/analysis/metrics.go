package analysis

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/grownex/grownex/internal/analysis"

// Metrics records analysis counts and the score distribution.
// A nil *Metrics records nothing.
type Metrics struct {
	analyses metric.Int64Counter
	scores   metric.Float64Histogram
	rescored metric.Int64Counter
}

// NewMetrics creates the analysis instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	analyses, err := meter.Int64Counter(
		"grownex.analysis.total",
		metric.WithDescription("Number of soil analyses computed"),
		metric.WithUnit("{analysis}"),
	)
	if err != nil {
		return nil, err
	}

	scores, err := meter.Float64Histogram(
		"grownex.analysis.soil_score",
		metric.WithDescription("Distribution of soil health scores"),
		metric.WithUnit("1"),
		metric.WithExplicitBucketBoundaries(2, 3, 4, 5, 6, 7, 8, 9, 10),
	)
	if err != nil {
		return nil, err
	}

	rescored, err := meter.Int64Counter(
		"grownex.analysis.rescored",
		metric.WithDescription("Number of stored analyses whose result changed on rescoring"),
		metric.WithUnit("{analysis}"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{analyses: analyses, scores: scores, rescored: rescored}, nil
}

func (m *Metrics) recordAnalysis(ctx context.Context, operation, soilType string, score float64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("soil_type", soilType),
	)
	m.analyses.Add(ctx, 1, attrs)
	m.scores.Record(ctx, score, attrs)
}

func (m *Metrics) recordRescore(ctx context.Context) {
	if m == nil {
		return
	}
	m.rescored.Add(ctx, 1)
}
