package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records actionflow metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordHandlerExecution records a handler invocation with its duration
	// and error status.
	RecordHandlerExecution(ctx context.Context, action, handlerID string, duration time.Duration, err error)

	// RecordDispatch records a dispatch completion.
	RecordDispatch(ctx context.Context, action string, success bool, duration time.Duration)

	// RecordAbort records an aborted dispatch.
	RecordAbort(ctx context.Context, action, reason string)

	// RecordRateDrop records a handler invocation dropped by a rate gate.
	RecordRateDrop(ctx context.Context, action, gate string)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	handlerExecutions metric.Int64Counter
	handlerLatency    metric.Float64Histogram
	handlerErrors     metric.Int64Counter
	dispatches        metric.Int64Counter
	dispatchLatency   metric.Float64Histogram
	aborts            metric.Int64Counter
	rateDrops         metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("actionflow")

	handlerExecutions, err := meter.Int64Counter("actionflow.handler.executions",
		metric.WithDescription("Number of handler invocations"),
	)
	if err != nil {
		return nil, err
	}

	handlerLatency, err := meter.Float64Histogram("actionflow.handler.latency_ms",
		metric.WithDescription("Handler invocation latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	handlerErrors, err := meter.Int64Counter("actionflow.handler.errors",
		metric.WithDescription("Number of handler errors"),
	)
	if err != nil {
		return nil, err
	}

	dispatches, err := meter.Int64Counter("actionflow.dispatches",
		metric.WithDescription("Number of dispatches"),
	)
	if err != nil {
		return nil, err
	}

	dispatchLatency, err := meter.Float64Histogram("actionflow.dispatch.latency_ms",
		metric.WithDescription("Dispatch latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	aborts, err := meter.Int64Counter("actionflow.aborts",
		metric.WithDescription("Number of aborted dispatches"),
	)
	if err != nil {
		return nil, err
	}

	rateDrops, err := meter.Int64Counter("actionflow.rate.drops",
		metric.WithDescription("Number of handler invocations dropped by rate gates"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		handlerExecutions: handlerExecutions,
		handlerLatency:    handlerLatency,
		handlerErrors:     handlerErrors,
		dispatches:        dispatches,
		dispatchLatency:   dispatchLatency,
		aborts:            aborts,
		rateDrops:         rateDrops,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordHandlerExecution records a handler invocation.
func (m *otelMetrics) RecordHandlerExecution(ctx context.Context, action, handlerID string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("action", action),
		attribute.String("handler_id", handlerID),
	}

	m.handlerExecutions.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.handlerLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))

	if err != nil {
		m.handlerErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordDispatch records a dispatch completion.
func (m *otelMetrics) RecordDispatch(ctx context.Context, action string, success bool, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("action", action),
		attribute.Bool("success", success),
	}
	m.dispatches.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.dispatchLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordAbort records an aborted dispatch.
func (m *otelMetrics) RecordAbort(ctx context.Context, action, reason string) {
	m.aborts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.String("reason", reason),
	))
}

// RecordRateDrop records a rate-gated handler invocation.
func (m *otelMetrics) RecordRateDrop(ctx context.Context, action, gate string) {
	m.rateDrops.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.String("gate", gate),
	))
}
