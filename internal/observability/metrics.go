package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes the engine's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	httpErrors       *prometheus.CounterVec
	sweepRuns        *prometheus.CounterVec
	sweepDuration    prometheus.Histogram
	ticketsScanned   prometheus.Counter
	escalationsFired *prometheus.CounterVec
}

// NewMetrics registers all collectors on a private registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	m := &Metrics{
		registry: registry,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sla_engine",
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by path, method and status.",
		}, []string{"path", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sla_engine",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path", "method"}),
		httpErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sla_engine",
			Name:      "http_errors_total",
			Help:      "Domain errors returned by the API, by code.",
		}, []string{"path", "method", "code"}),
		sweepRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sla_engine",
			Name:      "sweep_runs_total",
			Help:      "Sweep cycles, by outcome.",
		}, []string{"outcome"}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sla_engine",
			Name:      "sweep_duration_seconds",
			Help:      "Wall-clock duration of one sweep cycle.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		ticketsScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sla_engine",
			Name:      "sweep_tickets_scanned_total",
			Help:      "Active tickets examined across all sweep cycles.",
		}),
		escalationsFired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sla_engine",
			Name:      "escalations_fired_total",
			Help:      "Escalations executed, by trigger.",
		}, []string{"trigger"}),
	}
	registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.httpErrors,
		m.sweepRuns,
		m.sweepDuration,
		m.ticketsScanned,
		m.escalationsFired,
	)
	return m
}

// Handler serves the scrape endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(path, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.httpErrors.WithLabelValues(path, method, code).Inc()
}

// RecordSweep records the outcome of one sweep cycle.
func (m *Metrics) RecordSweep(scanned int, duration time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.sweepRuns.WithLabelValues(outcome).Inc()
	m.sweepDuration.Observe(duration.Seconds())
	m.ticketsScanned.Add(float64(scanned))
}

// RecordEscalation counts a fired escalation by trigger.
func (m *Metrics) RecordEscalation(trigger string) {
	if m == nil {
		return
	}
	m.escalationsFired.WithLabelValues(trigger).Inc()
}
