package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// PipelineMetrics holds the instruments recorded by the cleaning and
// enrichment steps. A nil *PipelineMetrics records nothing.
type PipelineMetrics struct {
	rowsLoaded   metric.Int64Counter
	rowsRemoved  metric.Int64Counter
	stepDuration metric.Float64Histogram
}

// NewPipelineMetrics creates the pipeline instruments on meter. A nil meter
// yields no-op instruments.
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter(MeterName)
	}

	rowsLoaded, err := meter.Int64Counter(
		"balag_rows_loaded_total",
		metric.WithDescription("Rows read from each source"),
	)
	if err != nil {
		return nil, err
	}

	rowsRemoved, err := meter.Int64Counter(
		"balag_rows_removed_total",
		metric.WithDescription("Rows dropped by each cleaning rule"),
	)
	if err != nil {
		return nil, err
	}

	stepDuration, err := meter.Float64Histogram(
		"balag_step_duration_seconds",
		metric.WithDescription("Pipeline step duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		rowsLoaded:   rowsLoaded,
		rowsRemoved:  rowsRemoved,
		stepDuration: stepDuration,
	}, nil
}

// RowsLoaded records n rows read from source
func (m *PipelineMetrics) RowsLoaded(ctx context.Context, source string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.rowsLoaded.Add(ctx, int64(n), metric.WithAttributes(attribute.String("source", source)))
}

// RowsRemoved records n rows dropped by rule within dimension
func (m *PipelineMetrics) RowsRemoved(ctx context.Context, dimension, rule string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.rowsRemoved.Add(ctx, int64(n), metric.WithAttributes(
		attribute.String("dimension", dimension),
		attribute.String("rule", rule),
	))
}

// StepDuration records how long a step ran and whether it succeeded
func (m *PipelineMetrics) StepDuration(ctx context.Context, step string, d time.Duration, success bool) {
	if m == nil {
		return
	}
	status := "success"
	if !success {
		status = "failure"
	}
	m.stepDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("step", step),
		attribute.String("status", status),
	))
}
