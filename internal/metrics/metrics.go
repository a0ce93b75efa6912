// Package metrics provides Prometheus metrics for the shot tracker.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithRegistry sets the registry metrics are registered on and served from.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

// LocalBuckets spans 0.5ms to about 1s, the range of a local SQLite write or
// loopback request. prometheus.DefBuckets starts at 5ms and misses most of it.
var LocalBuckets = prometheus.ExponentialBuckets(0.0005, 2, 12)

// WithHistogramBuckets sets custom histogram buckets for latency metrics.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.histogramBuckets = buckets
		}
	}
}

// Manager owns the collectors. A nil *Manager is a valid no-op recorder.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	saves               *prometheus.CounterVec
	saveDuration        *prometheus.HistogramVec
	shots               prometheus.Gauge
	parameters          prometheus.Gauge
	imports             *prometheus.CounterVec
}

// NewManager creates the collectors on a private registry unless one is given.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "shottrack",
		histogramBuckets: prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	auto := promauto.With(m.registry)
	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route and status code",
	}, []string{"route", "code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route",
		Buckets:   m.histogramBuckets,
	}, []string{"route"})
	m.saves = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "storage",
		Name:      "saves_total",
		Help:      "Durable writes by collection and result",
	}, []string{"collection", "result"})
	m.saveDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "storage",
		Name:      "save_duration_seconds",
		Help:      "Durable write latency by collection",
		Buckets:   m.histogramBuckets,
	}, []string{"collection"})
	m.shots = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "shots",
		Help:      "Shots currently held in memory",
	})
	m.parameters = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "custom_parameters",
		Help:      "Custom parameter definitions currently held in memory",
	})
	m.imports = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "imports_total",
		Help:      "Backup imports by result",
	}, []string{"result"})
	return m
}

// Registry returns the registry backing the manager.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest records one served HTTP request.
func (m *Manager) ObserveRequest(route string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.httpRequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// ObserveSave records one durable write of a collection.
func (m *Manager) ObserveSave(collection string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.saves.WithLabelValues(collection, result(err == nil)).Inc()
	m.saveDuration.WithLabelValues(collection).Observe(elapsed.Seconds())
}

// ObserveImport records a backup import attempt.
func (m *Manager) ObserveImport(ok bool) {
	if m == nil {
		return
	}
	m.imports.WithLabelValues(result(ok)).Inc()
}

// SetSizes publishes the in-memory collection sizes.
func (m *Manager) SetSizes(shots, parameters int) {
	if m == nil {
		return
	}
	m.shots.Set(float64(shots))
	m.parameters.Set(float64(parameters))
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
