// Package observe provides the observability primitives of introscore:
// OpenTelemetry metrics, tracing, trace-aware logging, and HTTP middleware
// that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API and exposed in
// Prometheus format by the handler returned from [InitProvider]. Tests should
// use [NewMetrics] with their own [metric.MeterProvider] to avoid cross-test
// pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all introscore metrics.
const meterName = "github.com/MrWong99/introscore"

// Metrics holds all OpenTelemetry metric instruments for the application.
type Metrics struct {
	// ScoreDuration tracks the wall time of one scoring call.
	ScoreDuration metric.Float64Histogram

	// CompositeScore records the composite of every produced report.
	CompositeScore metric.Float64Histogram

	// CriterionScore records each criterion score. Use with attribute:
	//   attribute.String("criterion", ...)
	CriterionScore metric.Float64Histogram

	// ScoreRequests counts scoring calls. Use with attributes:
	//   attribute.String("grade", ...), attribute.String("status", ...)
	ScoreRequests metric.Int64Counter

	// EngineReloads counts engine swaps after a config change. Use with
	// attribute attribute.String("status", ...).
	EngineReloads metric.Int64Counter

	// BatchInFlight tracks transcripts currently being scored by batch runs.
	BatchInFlight metric.Int64UpDownCounter

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets are tuned for in-memory scoring, which finishes in well
// under a second.
var latencyBuckets = []float64{
	0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1,
}

// pointBuckets cover the 0-100 composite in grade-aligned steps.
var pointBuckets = []float64{
	10, 20, 30, 40, 50, 55, 60, 70, 80, 85, 90, 95, 100,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider].
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.ScoreDuration, err = m.Float64Histogram("introscore.score.duration",
		metric.WithDescription("Latency of scoring one transcript."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.CompositeScore, err = m.Float64Histogram("introscore.score.composite",
		metric.WithDescription("Composite rubric score of produced reports."),
		metric.WithUnit("{point}"),
		metric.WithExplicitBucketBoundaries(pointBuckets...),
	); err != nil {
		return nil, err
	}
	if met.CriterionScore, err = m.Float64Histogram("introscore.criterion.score",
		metric.WithDescription("Per-criterion rubric score by criterion."),
		metric.WithUnit("{point}"),
		metric.WithExplicitBucketBoundaries(0, 1, 2, 4, 5, 6, 8, 10, 15, 20),
	); err != nil {
		return nil, err
	}
	if met.ScoreRequests, err = m.Int64Counter("introscore.score.requests",
		metric.WithDescription("Total scoring calls by grade and status."),
	); err != nil {
		return nil, err
	}
	if met.EngineReloads, err = m.Int64Counter("introscore.engine.reloads",
		metric.WithDescription("Total engine reloads by status."),
	); err != nil {
		return nil, err
	}
	if met.BatchInFlight, err = m.Int64UpDownCounter("introscore.batch.in_flight",
		metric.WithDescription("Transcripts currently being scored by batch runs."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("introscore.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Call it only after
// [InitProvider] so the instruments bind to the SDK provider.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String].
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordScoreRequest increments the scoring call counter.
func (m *Metrics) RecordScoreRequest(ctx context.Context, grade, status string) {
	m.ScoreRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("grade", grade),
			attribute.String("status", status),
		),
	)
}

// RecordCriterion records one criterion score.
func (m *Metrics) RecordCriterion(ctx context.Context, criterion string, score float64) {
	m.CriterionScore.Record(ctx, score,
		metric.WithAttributes(attribute.String("criterion", criterion)),
	)
}

// RecordReload increments the engine reload counter.
func (m *Metrics) RecordReload(ctx context.Context, status string) {
	m.EngineReloads.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}
