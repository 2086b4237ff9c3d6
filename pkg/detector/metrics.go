package detector

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Metrics holds the OpenTelemetry instruments shared by all four detector
// providers.
type Metrics struct {
	runs       metric.Int64Counter
	runErrors  metric.Int64Counter
	runLatency metric.Float64Histogram
	fallbacks  metric.Int64Counter
	tracer     trace.Tracer
}

// NewMetrics builds a Metrics instance against the given meter and tracer.
func NewMetrics(meter metric.Meter, tracer trace.Tracer) (*Metrics, error) {
	runs, err := meter.Int64Counter(
		"detector_runs_total",
		metric.WithDescription("Total number of detector invocations"),
	)
	if err != nil {
		return nil, err
	}

	runErrors, err := meter.Int64Counter(
		"detector_run_errors_total",
		metric.WithDescription("Total number of detector invocations that fell back to an unknown result"),
	)
	if err != nil {
		return nil, err
	}

	runLatency, err := meter.Float64Histogram(
		"detector_run_duration_seconds",
		metric.WithDescription("Duration of a single detector invocation"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	fallbacks, err := meter.Int64Counter(
		"detector_fallback_invocations_total",
		metric.WithDescription("Total number of times a secondary (heuristic) strategy ran because the primary was unknown"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		runs:       runs,
		runErrors:  runErrors,
		runLatency: runLatency,
		fallbacks:  fallbacks,
		tracer:     tracer,
	}, nil
}

// RecordRun records one detector invocation for modality using strategy.
func (m *Metrics) RecordRun(modality, strategy string, duration time.Duration, unknown bool) {
	if m.runs == nil || m.runLatency == nil {
		return
	}

	ctx := context.Background()
	attrs := attribute.NewSet(
		attribute.String("modality", modality),
		attribute.String("strategy", strategy),
	)

	m.runs.Add(ctx, 1, metric.WithAttributeSet(attrs))
	m.runLatency.Record(ctx, duration.Seconds(), metric.WithAttributeSet(attrs))
	if unknown && m.runErrors != nil {
		m.runErrors.Add(ctx, 1, metric.WithAttributeSet(attrs))
	}
}

// RecordFallback records that the secondary strategy ran for modality.
func (m *Metrics) RecordFallback(modality string) {
	if m.fallbacks == nil {
		return
	}
	m.fallbacks.Add(context.Background(), 1, metric.WithAttributeSet(attribute.NewSet(attribute.String("modality", modality))))
}

// StartSpan starts a span named detector.<op> tagged with modality.
//
//nolint:spancheck // caller owns the returned span's lifecycle
func (m *Metrics) StartSpan(ctx context.Context, modality, op string) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, "detector."+op, trace.WithAttributes(attribute.String("modality", modality)))
}

// DefaultMetrics wires a Metrics instance off the global otel providers.
func DefaultMetrics() *Metrics {
	meter := otel.Meter("insighthire-detector")
	tracer := otel.Tracer("insighthire-detector")
	metrics, err := NewMetrics(meter, tracer)
	if err != nil {
		return NoOpMetrics()
	}
	return metrics
}

// NoOpMetrics returns a Metrics instance that records nothing, used in tests.
func NoOpMetrics() *Metrics {
	return &Metrics{tracer: noop.NewTracerProvider().Tracer("noop")}
}
