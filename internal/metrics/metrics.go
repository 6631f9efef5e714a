// Package metrics exposes Prometheus instruments for renders and the HTTP
// surface, plus a rolling window of recent render latencies.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dgallion1/schemadoc/internal/loader"
	"github.com/dgallion1/schemadoc/internal/render"
)

// Render outcome labels.
const (
	StatusOK        = "ok"
	StatusLoadError = "load_error"
	StatusError     = "error"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	RendersTotal   *prometheus.CounterVec
	RenderDuration *prometheus.HistogramVec

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	BuildTargetsTotal *prometheus.CounterVec

	// Latency keeps the last hour of successful render durations.
	Latency *RenderStats

	registry *prometheus.Registry
}

// NewMetrics creates and registers all metrics with registry.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		RendersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "schemadoc_renders_total",
				Help: "Total number of schema renders",
			},
			[]string{"dialect", "status"},
		),
		RenderDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "schemadoc_render_duration_seconds",
				Help:    "Load, filter and render duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
			},
			[]string{"dialect"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "schemadoc_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "schemadoc_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		BuildTargetsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "schemadoc_build_targets_total",
				Help: "Build targets by outcome",
			},
			[]string{"outcome"},
		),
		Latency:  NewRenderStats(time.Hour),
		registry: registry,
	}

	registry.MustRegister(
		m.RendersTotal,
		m.RenderDuration,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.BuildTargetsTotal,
	)
	return m
}

// RenderDone records one finished render.
func (m *Metrics) RenderDone(d render.Dialect, elapsed time.Duration, err error) {
	m.RendersTotal.WithLabelValues(string(d), renderStatus(err)).Inc()
	if err != nil {
		return
	}
	m.RenderDuration.WithLabelValues(string(d)).Observe(elapsed.Seconds())
	m.Latency.Record(elapsed.Milliseconds())
}

func renderStatus(err error) string {
	var loadErr *loader.SchemaLoadError
	switch {
	case err == nil:
		return StatusOK
	case errors.As(err, &loadErr):
		return StatusLoadError
	default:
		return StatusError
	}
}

// TargetDone counts a finished build target; outcome is written,
// unchanged or failed.
func (m *Metrics) TargetDone(outcome string) {
	m.BuildTargetsTotal.WithLabelValues(outcome).Inc()
}

// ObserveRequest records one served HTTP request. route should be the
// router pattern, not the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
