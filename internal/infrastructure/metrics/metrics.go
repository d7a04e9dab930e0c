// Package metrics holds the Prometheus collectors of the console: upstream
// API traffic, slice fetch outcomes, exports and live workspaces.
//
// Thread Safety: Safe for concurrent use by multiple goroutines.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "posconsole"

// Config tunes the collectors.
type Config struct {
	// Namespace overrides the metric prefix. Default: "posconsole".
	Namespace string

	// HistogramBuckets are the buckets for every duration histogram.
	// Default: prometheus.DefBuckets
	HistogramBuckets []float64

	// WithRuntime registers the Go runtime and process collectors.
	WithRuntime bool
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		Namespace:        Namespace,
		HistogramBuckets: prometheus.DefBuckets,
		WithRuntime:      true,
	}
}

// Registry owns a private prometheus.Registry so tests and multiple servers
// never collide on the global default registry.
type Registry struct {
	registry *prometheus.Registry

	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	sliceFetches     *prometheus.CounterVec
	sliceDuration    *prometheus.HistogramVec
	exports          *prometheus.CounterVec
	exportBytes      *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	workspaces       prometheus.Gauge
}

// New creates and registers every collector.
func New(cfg Config) *Registry {
	if cfg.Namespace == "" {
		cfg.Namespace = Namespace
	}
	if len(cfg.HistogramBuckets) == 0 {
		cfg.HistogramBuckets = prometheus.DefBuckets
	}

	r := &Registry{registry: prometheus.NewRegistry()}

	r.upstreamRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: "upstream",
		Name:      "requests_total",
		Help:      "Requests sent to the POS API, by method, endpoint and status code.",
	}, []string{"method", "endpoint", "status"})

	r.upstreamDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Subsystem: "upstream",
		Name:      "request_duration_seconds",
		Help:      "Duration of POS API requests in seconds.",
		Buckets:   cfg.HistogramBuckets,
	}, []string{"method", "endpoint"})

	r.sliceFetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: "slice",
		Name:      "fetches_total",
		Help:      "Slice fetches by slice name and outcome (ok, error, superseded).",
	}, []string{"slice", "outcome"})

	r.sliceDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Subsystem: "slice",
		Name:      "fetch_duration_seconds",
		Help:      "Time from fetch start to reducer application.",
		Buckets:   cfg.HistogramBuckets,
	}, []string{"slice"})

	r.exports = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: "export",
		Name:      "total",
		Help:      "Generated exports by resource, format and outcome.",
	}, []string{"resource", "format", "outcome"})

	r.exportBytes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: "export",
		Name:      "bytes_total",
		Help:      "Bytes of generated export documents.",
	}, []string{"format"})

	r.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "BFF requests by route and status code.",
	}, []string{"method", "route", "status"})

	r.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "BFF request latency in seconds.",
		Buckets:   cfg.HistogramBuckets,
	}, []string{"method", "route"})

	r.workspaces = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: cfg.Namespace,
		Name:      "workspaces_active",
		Help:      "Live per-user workspaces held by the BFF.",
	})

	r.registry.MustRegister(
		r.upstreamRequests, r.upstreamDuration,
		r.sliceFetches, r.sliceDuration,
		r.exports, r.exportBytes,
		r.httpRequests, r.httpDuration,
		r.workspaces,
	)
	if cfg.WithRuntime {
		r.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return r
}

// Gatherer exposes the registry for tests and custom exporters.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.registry }

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// ObserveRequest records one upstream API call. A zero status means the call
// never produced a response (network failure, cancellation).
func (r *Registry) ObserveRequest(method, endpoint string, status int, elapsed time.Duration) {
	code := "none"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	r.upstreamRequests.WithLabelValues(method, endpoint, code).Inc()
	r.upstreamDuration.WithLabelValues(method, endpoint).Observe(elapsed.Seconds())
}

// ObserveFetch implements slice.Observer.
func (r *Registry) ObserveFetch(slice, outcome string, elapsed time.Duration) {
	r.sliceFetches.WithLabelValues(slice, outcome).Inc()
	r.sliceDuration.WithLabelValues(slice).Observe(elapsed.Seconds())
}

// ObserveExport records a generated (or failed) export document.
func (r *Registry) ObserveExport(resource, format string, size int, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.exports.WithLabelValues(resource, format, outcome).Inc()
	if err == nil && size > 0 {
		r.exportBytes.WithLabelValues(format).Add(float64(size))
	}
}

// ObserveHTTP records one BFF request. route is the gin route template,
// never the raw path, to keep label cardinality bounded.
func (r *Registry) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// SetWorkspaces sets the live workspace gauge.
func (r *Registry) SetWorkspaces(n int) { r.workspaces.Set(float64(n)) }
