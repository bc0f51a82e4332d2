// Package metrics exposes Prometheus counters for reminder dispatch.
package metrics

import (
	"fmt"
	"net/http"

	"renewal_notifier/internal/domain/notification"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsPath = "/metrics"

// DispatchMetrics counts dispatch outcomes and tracks transport breaker state.
type DispatchMetrics struct {
	DispatchTotal       *prometheus.CounterVec // by method and outcome: sent, failed, rejected
	DueRunsTotal        *prometheus.CounterVec // by result: ok, error
	BreakerState        *prometheus.GaugeVec   // 0=closed, 1=half-open, 2=open
	LastDueRunTimestamp prometheus.Gauge

	registry *prometheus.Registry
}

// NewDispatchMetrics creates the metrics and registers them on registry.
func NewDispatchMetrics(registry *prometheus.Registry) (*DispatchMetrics, error) {
	m := &DispatchMetrics{
		DispatchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "renewal_notifier_dispatch_total",
				Help: "Reminder dispatch attempts by method and outcome",
			},
			[]string{"method", "outcome"},
		),
		DueRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "renewal_notifier_due_runs_total",
				Help: "Scheduled dispatch-due runs by result",
			},
			[]string{"result"},
		),
		BreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "renewal_notifier_transport_breaker_state",
				Help: "Circuit breaker state per transport (0=closed, 1=half-open, 2=open)",
			},
			[]string{"method"},
		),
		LastDueRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "renewal_notifier_last_due_run_timestamp_seconds",
			Help: "Unix time of the last completed dispatch-due run",
		}),
		registry: registry,
	}

	for _, c := range []prometheus.Collector{m.DispatchTotal, m.DueRunsTotal, m.BreakerState, m.LastDueRunTimestamp} {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register dispatch metrics: %w", err)
		}
	}
	return m, nil
}

func (m *DispatchMetrics) ObserveDispatch(method notification.Method, outcome string) {
	m.DispatchTotal.WithLabelValues(string(method), outcome).Inc()
}

// ObserveBreakerState records a breaker transition. Unknown state names are ignored.
func (m *DispatchMetrics) ObserveBreakerState(method notification.Method, state string) {
	var v float64
	switch state {
	case "closed":
		v = 0
	case "half-open":
		v = 1
	case "open":
		v = 2
	default:
		return
	}
	m.BreakerState.WithLabelValues(string(method)).Set(v)
}

// ObserveDueRun records the end of a dispatch-due run.
func (m *DispatchMetrics) ObserveDueRun(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.DueRunsTotal.WithLabelValues(result).Inc()
	m.LastDueRunTimestamp.SetToCurrentTime()
}

// RegisterHandlers adds the metrics route to mux.
func (m *DispatchMetrics) RegisterHandlers(mux *http.ServeMux) {
	mux.Handle(metricsPath, promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
