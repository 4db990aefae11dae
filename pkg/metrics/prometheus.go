// Package metrics provides Prometheus metrics for the evaluation sync service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values shared by callers.
const (
	PullRemote        = "remote"
	PullLocalFallback = "local_fallback"
	PullMemoryKept    = "memory_kept"

	ResultOK       = "ok"
	ResultError    = "error"
	ResultConflict = "conflict"
	ResultInvalid  = "invalid"
)

// latencyBuckets covers local disk writes up to slow remote round trips.
var latencyBuckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Sync coordinator
	syncPulls      *prometheus.CounterVec
	syncWrites     *prometheus.CounterVec
	syncDuration   *prometheus.HistogramVec
	syncInFlight   prometheus.Gauge
	syncSkipped    prometheus.Counter
	syncLastUnix   prometheus.Gauge
	recordsVisible prometheus.Gauge

	// Remote document
	remoteRequests     *prometheus.CounterVec
	remoteMalformed    prometheus.Counter
	remoteRequestTimer *prometheus.HistogramVec

	// Local store
	localStoreOps *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec
	httpRateLimited     *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "gautier",
		subsystem:        "evaluations",
		histogramBuckets: latencyBuckets,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
		Buckets:     m.histogramBuckets,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	m.syncPulls = m.counterVec("sync_pulls_total",
		"Pull cycles by the source the visible collection came from", "source")
	m.syncWrites = m.counterVec("sync_writes_total",
		"Read-modify-write cycles (save, delete) by result", "op", "result")
	m.syncDuration = m.histogramVec("sync_duration_milliseconds",
		"Duration of sync cycles in milliseconds", "op")
	m.syncInFlight = m.gauge("sync_in_flight",
		"1 while a sync cycle is running")
	m.syncSkipped = m.counter("sync_skipped_total",
		"Scheduled pulls skipped because another cycle was in flight")
	m.syncLastUnix = m.gauge("sync_last_success_unix",
		"Unix timestamp of the last successful exchange with the remote document")
	m.recordsVisible = m.gauge("records",
		"Number of evaluations in the in-memory repository")

	m.remoteRequests = m.counterVec("remote_requests_total",
		"Requests to the remote document by method and status", "method", "status")
	m.remoteMalformed = m.counter("remote_malformed_documents_total",
		"Remote bodies that were not a JSON array and were treated as empty")
	m.remoteRequestTimer = m.histogramVec("remote_request_duration_milliseconds",
		"Remote document request latency in milliseconds", "method")

	m.localStoreOps = m.counterVec("local_store_operations_total",
		"Local store loads and saves by result", "op", "result")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", "endpoint", "method", "status_code")
	m.httpErrors = m.counterVec("http_errors_total",
		"HTTP error responses by endpoint and error type", "endpoint", "method", "error_type")
	m.httpRateLimited = m.counterVec("http_rate_limited_total",
		"Requests rejected by the write rate limiter", "endpoint")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_gc_pause_time_milliseconds",
		Help:        "GC pause time in milliseconds",
		ConstLabels: m.constLabels,
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// RecordPull counts a pull by the source that ended up visible.
func RecordPull(source string) { globalManager.syncPulls.WithLabelValues(source).Inc() }

// RecordWrite counts a save or delete cycle.
func RecordWrite(op, result string) { globalManager.syncWrites.WithLabelValues(op, result).Inc() }

// ObserveSync records how long a sync cycle took.
func ObserveSync(op string, d time.Duration) {
	globalManager.syncDuration.WithLabelValues(op).Observe(float64(d.Milliseconds()))
}

// SetSyncInFlight flips the in-flight gauge.
func SetSyncInFlight(running bool) {
	if running {
		globalManager.syncInFlight.Set(1)
		return
	}
	globalManager.syncInFlight.Set(0)
}

// RecordSyncSkipped counts a scheduled pull that found a cycle in flight.
func RecordSyncSkipped() { globalManager.syncSkipped.Inc() }

// UpdateLastSync stores the time of the last successful remote exchange.
func UpdateLastSync(t time.Time) { globalManager.syncLastUnix.Set(float64(t.Unix())) }

// UpdateRecords sets the visible record count.
func UpdateRecords(n int) { globalManager.recordsVisible.Set(float64(n)) }

// RecordRemoteRequest counts a request to the remote document; status is the
// HTTP code or "transport_error".
func RecordRemoteRequest(method, status string, d time.Duration) {
	globalManager.remoteRequests.WithLabelValues(method, status).Inc()
	globalManager.remoteRequestTimer.WithLabelValues(method).Observe(float64(d.Milliseconds()))
}

// RecordMalformedDocument counts a remote body coerced to an empty collection.
func RecordMalformedDocument() { globalManager.remoteMalformed.Inc() }

// RecordLocalStore counts a local store load or save.
func RecordLocalStore(op, result string) { globalManager.localStoreOps.WithLabelValues(op, result).Inc() }

// RecordHTTPRequest increments the HTTP requests counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordHTTPError counts an error response.
func RecordHTTPError(endpoint, method, errorType string) {
	globalManager.httpErrors.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordRateLimited counts a request rejected by the rate limiter.
func RecordRateLimited(endpoint string) { globalManager.httpRateLimited.WithLabelValues(endpoint).Inc() }

// UpdateSystemMemoryUsage updates the system memory usage gauge.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount updates the goroutine count gauge.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// RecordSystemGCPauseTime records GC pause time.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.systemGCPauseTime.Observe(pauseMs) }

// Configure rebuilds the global manager with opts on a fresh registry. It
// must run before anything captures GetRegistry and before the first
// series is recorded.
func Configure(opts ...Option) {
	registry := prometheus.NewRegistry()
	globalManager = NewManager(append([]Option{WithPrometheusRegistry(registry)}, opts...)...)
	customRegistry = registry
}

// GetRegistry returns the custom Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
