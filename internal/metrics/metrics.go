// Package metrics exports Prometheus metrics about shortcut dispatches.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/canonical/sqlmagic/shortcut"
)

// Dispatch outcomes used as the result label.
const (
	ResultSuccess         = "success"
	ResultEmptyQuery      = "empty_query"
	ResultUnknownShortcut = "unknown_shortcut"
	ResultExecutionFailed = "execution_failed"
	ResultRenderFailed    = "render_failed"
	ResultError           = "error"
)

// Metrics holds the dispatch collectors and the registry they are exported from.
type Metrics struct {
	registry *prometheus.Registry

	// DispatchTotal counts dispatches by shortcut and result.
	DispatchTotal *prometheus.CounterVec

	// DispatchDuration is the latency of dispatches, including rendering.
	DispatchDuration *prometheus.HistogramVec
}

// New returns metrics registered on a fresh registry alongside the Go runtime collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		DispatchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sqlmagic_dispatch_total",
				Help: "Total number of shortcut dispatches",
			},
			[]string{"shortcut", "result"},
		),
		DispatchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sqlmagic_dispatch_duration_seconds",
				Help:    "Shortcut dispatch latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"shortcut"},
		),
	}

	m.registry.MustRegister(
		m.DispatchTotal,
		m.DispatchDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the registry the metrics are exported from.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Observe implements shortcut.Observer. Unknown shortcuts share a single label value.
func (m *Metrics) Observe(name shortcut.Name, elapsed time.Duration, err error) {
	if errors.Is(err, shortcut.ErrUnknownShortcut) {
		name = shortcut.Unregistered
	}

	m.DispatchTotal.WithLabelValues(string(name), Result(err)).Inc()
	m.DispatchDuration.WithLabelValues(string(name)).Observe(elapsed.Seconds())
}

// Result returns the result label for a dispatch error.
func Result(err error) string {
	switch {
	case err == nil:
		return ResultSuccess
	case errors.Is(err, shortcut.ErrEmptyQuery):
		return ResultEmptyQuery
	case errors.Is(err, shortcut.ErrUnknownShortcut):
		return ResultUnknownShortcut
	case errors.Is(err, shortcut.ErrExecutionFailed):
		return ResultExecutionFailed
	case errors.Is(err, shortcut.ErrRenderFailed):
		return ResultRenderFailed
	default:
		return ResultError
	}
}
