package telemetry

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/sandrundev/sandrun/sandbox"
)

func TestObserveExecution(t *testing.T) {
	m := New()
	m.ObserveExecution(sandbox.StatusSuccess, 0.25)
	m.ObserveExecution(sandbox.StatusError, 1.5)
	m.ObserveExecution(sandbox.StatusSuccess, 0.1)

	if got := testutil.ToFloat64(m.executions.WithLabelValues("success")); got != 2 {
		t.Errorf("executions{success} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.executions.WithLabelValues("error")); got != 1 {
		t.Errorf("executions{error} = %v, want 1", got)
	}
}

func TestObserveToolCall(t *testing.T) {
	m := New()
	m.ObserveToolCall("add", false)
	m.ObserveToolCall("add", false)
	m.ObserveToolCall("add", true)

	if got := testutil.ToFloat64(m.toolCalls.WithLabelValues("add", "ok")); got != 2 {
		t.Errorf("tool_calls{add,ok} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.toolCalls.WithLabelValues("add", "error")); got != 1 {
		t.Errorf("tool_calls{add,error} = %v, want 1", got)
	}
}

func TestHandlerServesExposition(t *testing.T) {
	m := New()
	m.ObserveExecution(sandbox.StatusSuccess, 0.05)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, metric := range []string{"sandrun_executions_total", "sandrun_execution_duration_seconds"} {
		if !strings.Contains(body, metric) {
			t.Errorf("exposition missing %s", metric)
		}
	}
}
