package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewMetrics(t *testing.T) {
	m := NewMetrics()

	if m == nil {
		t.Fatal("NewMetrics returned nil")
	}

	if m.registry == nil {
		t.Error("Registry is nil")
	}

	// Verify invocation metrics
	if m.InvocationsTotal == nil {
		t.Error("InvocationsTotal is nil")
	}
	if m.InvocationDuration == nil {
		t.Error("InvocationDuration is nil")
	}
	if m.RateLimitedTotal == nil {
		t.Error("RateLimitedTotal is nil")
	}
	if m.PermissionDeniedTotal == nil {
		t.Error("PermissionDeniedTotal is nil")
	}
	if m.ValidationFailedTotal == nil {
		t.Error("ValidationFailedTotal is nil")
	}

	// Verify dispatcher state metrics
	if m.ActiveCalls == nil {
		t.Error("ActiveCalls is nil")
	}
	if m.HistoryEntries == nil {
		t.Error("HistoryEntries is nil")
	}
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics()

	// Record some sample metrics so they appear in output
	m.InvocationsTotal.WithLabelValues("file-reader", "completed").Inc()
	m.InvocationDuration.WithLabelValues("file-reader").Observe(0.5)
	m.RateLimitedTotal.WithLabelValues("command-executor").Inc()
	m.PermissionDeniedTotal.WithLabelValues("command-executor").Inc()
	m.ValidationFailedTotal.WithLabelValues("file-reader").Inc()
	m.ActiveCalls.Set(2)
	m.HistoryEntries.Set(42)

	handler := m.Handler()
	if handler == nil {
		t.Fatal("Handler returned nil")
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	body := rec.Body.String()
	for _, metric := range []string{
		"tool_invocations_total",
		"tool_invocation_duration_seconds",
		"tool_rate_limited_total",
		"tool_permission_denied_total",
		"tool_validation_failed_total",
		"tool_active_calls",
		"tool_history_entries",
	} {
		if !strings.Contains(body, metric) {
			t.Errorf("metrics output missing %s", metric)
		}
	}
}

func TestRegistryAccessor(t *testing.T) {
	m := NewMetrics()

	if m.Registry() != m.registry {
		t.Error("Registry() returned a different registry")
	}
}
