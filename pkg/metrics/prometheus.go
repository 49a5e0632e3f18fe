// Package metrics provides Prometheus metrics for the shelfpulse dashboard service.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Bucket label values for the classification gauges.
const (
	BucketTopSaleable      = "top_saleable"
	BucketNonSaleable      = "non_saleable"
	BucketRatedToday       = "rated_today"
	BucketSaleableTotal    = "saleable_total"
	BucketNonSaleableTotal = "non_saleable_total"
)

// Fetch outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var knownBuckets = map[string]struct{}{ //nolint:gochecknoglobals // fixed label set
	BucketTopSaleable:      {},
	BucketNonSaleable:      {},
	BucketRatedToday:       {},
	BucketSaleableTotal:    {},
	BucketNonSaleableTotal: {},
}

// Manager manages all Prometheus metrics for the dashboard service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Classification
	classificationsTotal  prometheus.Counter
	classificationLatency prometheus.Histogram
	bucketSize            *prometheus.GaugeVec
	recordsClassified     prometheus.Gauge

	// Upstream sources
	sourceFetches      *prometheus.CounterVec
	sourceFetchLatency *prometheus.HistogramVec
	sourceRecords      prometheus.Gauge

	// Refresh and snapshot lifecycle
	refreshTotal        *prometheus.CounterVec
	refreshDiscarded    prometheus.Counter
	snapshotLastUnix    prometheus.Gauge
	snapshotPublished   prometheus.Counter
	snapshotFetchFailed prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

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

// NewManager creates a new metrics manager. Metrics are registered on the
// configured registry (prometheus.DefaultRegisterer unless overridden).
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "shelfpulse",
		subsystem:        "dashboard",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
		Buckets:     m.histogramBuckets,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.classificationsTotal = auto.NewCounter(m.counterOpts(
		"classifications_total",
		"Total number of classification runs over a fetched snapshot",
	))
	m.classificationLatency = auto.NewHistogram(m.histogramOpts(
		"classification_latency_milliseconds",
		"Classification latency in milliseconds",
	))
	m.bucketSize = auto.NewGaugeVec(m.gaugeOpts(
		"bucket_size",
		"Size of each dashboard bucket in the latest snapshot (totals are pre-truncation)",
	), []string{"bucket"})
	m.recordsClassified = auto.NewGauge(m.gaugeOpts(
		"records_classified",
		"Number of performance records in the latest classified snapshot",
	))

	m.sourceFetches = auto.NewCounterVec(m.counterOpts(
		"source_fetches_total",
		"Total upstream fetches by source and outcome",
	), []string{"source", "outcome"})
	m.sourceFetchLatency = auto.NewHistogramVec(m.histogramOpts(
		"source_fetch_latency_milliseconds",
		"Upstream fetch latency in milliseconds by source",
	), []string{"source"})
	m.sourceRecords = auto.NewGauge(m.gaugeOpts(
		"source_performance_records",
		"Number of records returned by the performance source on the last fetch",
	))

	m.refreshTotal = auto.NewCounterVec(m.counterOpts(
		"refresh_total",
		"Total refresh attempts by outcome",
	), []string{"outcome"})
	m.refreshDiscarded = auto.NewCounter(m.counterOpts(
		"refresh_discarded_total",
		"Refresh results dropped because the request was cancelled or superseded",
	))
	m.snapshotLastUnix = auto.NewGauge(m.gaugeOpts(
		"snapshot_last_unix",
		"Unix timestamp of the last published snapshot",
	))
	m.snapshotPublished = auto.NewCounter(m.counterOpts(
		"snapshot_published_total",
		"Total number of snapshots published",
	))
	m.snapshotFetchFailed = auto.NewGauge(m.gaugeOpts(
		"snapshot_fetch_failed",
		"1 when the current snapshot is a fetch failure, 0 otherwise",
	))

	m.httpRequests = auto.NewCounterVec(m.counterOpts(
		"http_requests_total",
		"Total number of HTTP requests by endpoint and method",
	), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts(
		"http_request_duration_milliseconds",
		"HTTP request duration in milliseconds",
	), []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = auto.NewCounterVec(m.counterOpts(
		"errors_by_component_total",
		"Total number of errors by component",
	), []string{"component", "error_type"})
	m.errorRateByType = auto.NewCounterVec(m.counterOpts(
		"errors_by_type_total",
		"Total number of errors by type",
	), []string{"error_type", "severity"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counterOpts(
		"errors_by_endpoint_total",
		"Total number of errors by endpoint",
	), []string{"endpoint", "method", "error_type"})
	m.errorLatency = auto.NewHistogramVec(m.histogramOpts(
		"error_latency_milliseconds",
		"Latency of operations that resulted in errors",
	), []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts(
		"system_memory_usage_bytes",
		"System memory usage in bytes",
	))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts(
		"system_goroutine_count",
		"Number of goroutines",
	))
	gc := m.histogramOpts("system_gc_pause_time_milliseconds", "GC pause time in milliseconds")
	gc.Buckets = []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}
	m.systemGCPauseTime = auto.NewHistogram(gc)
}

// RecordClassification records one classification run and its latency.
func RecordClassification(latencyMs float64, records int) {
	globalManager.classificationsTotal.Inc()
	globalManager.classificationLatency.Observe(latencyMs)
	globalManager.recordsClassified.Set(float64(records))
}

// UpdateBucketSize sets the size gauge for one dashboard bucket.
func UpdateBucketSize(bucket string, size int) error {
	if _, ok := knownBuckets[bucket]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownBucket, bucket)
	}
	globalManager.bucketSize.WithLabelValues(bucket).Set(float64(size))
	return nil
}

// RecordSourceFetch records one upstream fetch.
func RecordSourceFetch(source, outcome string, latencyMs float64) {
	globalManager.sourceFetches.WithLabelValues(source, outcome).Inc()
	globalManager.sourceFetchLatency.WithLabelValues(source).Observe(latencyMs)
}

// UpdateSourceRecords sets the record count of the last performance payload.
func UpdateSourceRecords(count int) {
	globalManager.sourceRecords.Set(float64(count))
}

// RecordRefresh increments the refresh counter for the given outcome.
func RecordRefresh(outcome string) {
	globalManager.refreshTotal.WithLabelValues(outcome).Inc()
}

// RecordRefreshDiscarded counts a refresh whose result was never applied.
func RecordRefreshDiscarded() {
	globalManager.refreshDiscarded.Inc()
}

// RecordSnapshotPublished records a snapshot publish at unix time ts.
func RecordSnapshotPublished(ts float64, fetchFailed bool) {
	globalManager.snapshotPublished.Inc()
	globalManager.snapshotLastUnix.Set(ts)
	if fetchFailed {
		globalManager.snapshotFetchFailed.Set(1)
		return
	}
	globalManager.snapshotFetchFailed.Set(0)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
