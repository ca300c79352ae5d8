package sandbox

import "go.uber.org/zap"

// Logger is an optional interface for observability during code execution.
// Implementations can log executions, tool calls, and timing information.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: logging must be best-effort; Logf should not panic.
// - Ownership: format/args are read-only.
type Logger interface {
	// Logf logs a formatted message.
	Logf(format string, args ...any)
}

// Metrics is an optional sink for execution counters. The telemetry
// package provides a Prometheus-backed implementation.
type Metrics interface {
	// ObserveExecution records one finished execution.
	ObserveExecution(status Status, seconds float64)

	// ObserveToolCall records one tool invocation.
	ObserveToolCall(tool string, failed bool)
}

// zapLogger adapts a zap.SugaredLogger to the Logger interface.
type zapLogger struct {
	s *zap.SugaredLogger
}

// NewZapLogger wraps a zap logger so it can be used as the executor's Logger.
func NewZapLogger(l *zap.Logger) Logger {
	return &zapLogger{s: l.Sugar()}
}

func (z *zapLogger) Logf(format string, args ...any) {
	z.s.Infof(format, args...)
}
