// Package telemetry exposes Prometheus metrics for snippet executions and
// tool calls. It implements the sandbox.Metrics interface.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sandrundev/sandrun/sandbox"
)

// Metrics holds the execution collectors.
type Metrics struct {
	registry *prometheus.Registry

	executions *prometheus.CounterVec
	duration   prometheus.Histogram
	toolCalls  *prometheus.CounterVec
}

// New creates a Metrics instance with its own Prometheus registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sandrun",
			Name:      "executions_total",
			Help:      "Snippet executions by terminal status.",
		}, []string{"status"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sandrun",
			Name:      "execution_duration_seconds",
			Help:      "Wall-clock snippet execution time.",
			Buckets:   prometheus.DefBuckets,
		}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sandrun",
			Name:      "tool_calls_total",
			Help:      "Tool invocations by tool name and outcome.",
		}, []string{"tool", "outcome"}),
	}
	m.registry.MustRegister(m.executions, m.duration, m.toolCalls)
	return m
}

// ObserveExecution records one finished execution.
func (m *Metrics) ObserveExecution(status sandbox.Status, seconds float64) {
	m.executions.WithLabelValues(string(status)).Inc()
	m.duration.Observe(seconds)
}

// ObserveToolCall records one tool invocation.
func (m *Metrics) ObserveToolCall(tool string, failed bool) {
	outcome := "ok"
	if failed {
		outcome = "error"
	}
	m.toolCalls.WithLabelValues(tool, outcome).Inc()
}

// Handler returns an HTTP handler serving the metrics in Prometheus
// exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
