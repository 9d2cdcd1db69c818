package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the tool invocation subsystem
type Metrics struct {
	registry *prometheus.Registry

	// Invocation metrics
	InvocationsTotal      *prometheus.CounterVec
	InvocationDuration    *prometheus.HistogramVec
	RateLimitedTotal      *prometheus.CounterVec
	PermissionDeniedTotal *prometheus.CounterVec
	ValidationFailedTotal *prometheus.CounterVec

	// Dispatcher state
	ActiveCalls    prometheus.Gauge
	HistoryEntries prometheus.Gauge
}

// NewMetrics creates and registers all metrics
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		// Invocation metrics
		InvocationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tool_invocations_total",
				Help: "Total number of tool invocations by terminal status",
			},
			[]string{"tool", "status"},
		),
		InvocationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tool_invocation_duration_seconds",
				Help:    "Duration of tool invocations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool"},
		),
		RateLimitedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tool_rate_limited_total",
				Help: "Total number of invocations denied by the rate limiter",
			},
			[]string{"tool"},
		),
		PermissionDeniedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tool_permission_denied_total",
				Help: "Total number of invocations denied by the permission evaluator",
			},
			[]string{"tool"},
		),
		ValidationFailedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tool_validation_failed_total",
				Help: "Total number of invocations rejected by parameter validation",
			},
			[]string{"tool"},
		),

		// Dispatcher state
		ActiveCalls: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tool_active_calls",
				Help: "Number of calls currently in the running state",
			},
		),
		HistoryEntries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tool_history_entries",
				Help: "Number of entries currently held by the history store",
			},
		),
	}

	// Register all metrics
	m.registerMetrics()

	return m
}

// registerMetrics registers all metrics with the registry
func (m *Metrics) registerMetrics() {
	m.registry.MustRegister(m.InvocationsTotal)
	m.registry.MustRegister(m.InvocationDuration)
	m.registry.MustRegister(m.RateLimitedTotal)
	m.registry.MustRegister(m.PermissionDeniedTotal)
	m.registry.MustRegister(m.ValidationFailedTotal)
	m.registry.MustRegister(m.ActiveCalls)
	m.registry.MustRegister(m.HistoryEntries)
}

// Handler returns an HTTP handler for the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
