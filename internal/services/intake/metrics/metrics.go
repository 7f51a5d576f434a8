// Package metrics exposes Prometheus counters and histograms for card saves
// and intake API calls.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MichaelAguilera/intake/internal/services/intake/screening"
)

const namespace = "intake"

// Metrics owns a private registry so tests and multiple servers do not
// collide on the global one.
type Metrics struct {
	registry     *prometheus.Registry
	saves        *prometheus.CounterVec
	saveDuration *prometheus.HistogramVec
	requests     *prometheus.CounterVec
	requestTime  *prometheus.HistogramVec
}

// New creates and registers the intake metrics plus Go runtime and process
// collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "card_saves_total",
			Help:      "Card save attempts by card and outcome.",
		}, []string{"card", "outcome"}),
		saveDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "card_save_duration_seconds",
			Help:      "Time from save request to merged response.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"card"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Intake API requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		requestTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Intake API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	m.registry.MustRegister(
		m.saves,
		m.saveDuration,
		m.requests,
		m.requestTime,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry backing Handler.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveSave implements screening.SaveObserver.
func (m *Metrics) ObserveSave(_ context.Context, event screening.SaveEvent) {
	if m == nil {
		return
	}
	m.saves.WithLabelValues(event.Card, string(event.Outcome)).Inc()
	if event.Outcome == screening.OutcomeSaved || event.Outcome == screening.OutcomeFailed {
		m.saveDuration.WithLabelValues(event.Card).Observe(event.Elapsed.Seconds())
	}
}

// ObserveRequest implements intakeapi.Observer. A zero status is recorded as
// code "error".
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.requests.WithLabelValues(method, route, code).Inc()
	m.requestTime.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
