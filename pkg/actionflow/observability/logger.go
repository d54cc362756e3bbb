// Package observability provides production-grade observability features
// for actionflow: structured logging, metrics, and distributed tracing.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds dispatch context to a logger.
// Returns a new logger with dispatch_id, action, and handler_id fields.
//
// Example:
//
//	enriched := EnrichLogger(logger, "d-123", "file.save", "h-1")
//	enriched.Info("doing work") // includes dispatch_id, action, handler_id
func EnrichLogger(logger *slog.Logger, dispatchID, action, handlerID string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("dispatch_id", dispatchID),
		slog.String("action", action),
		slog.String("handler_id", handlerID),
	)
}

// LogDispatchStart logs the start of a dispatch.
func LogDispatchStart(logger *slog.Logger, dispatchID, action string, handlerCount int) {
	if logger == nil {
		return
	}
	logger.Debug("dispatch starting",
		slog.String("dispatch_id", dispatchID),
		slog.String("action", action),
		slog.Int("handlers", handlerCount),
	)
}

// LogDispatchComplete logs successful dispatch completion.
func LogDispatchComplete(logger *slog.Logger, dispatchID, action string, durationMs float64, handlersRun int) {
	if logger == nil {
		return
	}
	logger.Debug("dispatch completed",
		slog.String("dispatch_id", dispatchID),
		slog.String("action", action),
		slog.Float64("duration_ms", durationMs),
		slog.Int("handlers_run", handlersRun),
	)
}

// LogDispatchAborted logs a dispatch that ended by abort.
func LogDispatchAborted(logger *slog.Logger, dispatchID, action, reason string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Info("dispatch aborted",
		slog.String("dispatch_id", dispatchID),
		slog.String("action", action),
		slog.String("reason", reason),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogHandlerStart logs handler invocation start.
func LogHandlerStart(logger *slog.Logger, handlerID string) {
	if logger == nil {
		return
	}
	logger.Debug("handler starting",
		slog.String("handler_id", handlerID),
	)
}

// LogHandlerComplete logs successful handler completion.
func LogHandlerComplete(logger *slog.Logger, handlerID string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("handler completed",
		slog.String("handler_id", handlerID),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogHandlerError logs handler failure.
func LogHandlerError(logger *slog.Logger, handlerID string, err error) {
	if logger == nil {
		return
	}
	logger.Error("handler failed",
		slog.String("handler_id", handlerID),
		slog.String("error", err.Error()),
	)
}

// LogRateDrop logs a handler invocation dropped by its rate gate.
func LogRateDrop(logger *slog.Logger, action, handlerID, gate string) {
	if logger == nil {
		return
	}
	logger.Debug("handler rate limited",
		slog.String("action", action),
		slog.String("handler_id", handlerID),
		slog.String("gate", gate),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
