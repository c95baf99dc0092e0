package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns the Prometheus collectors of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Dataset ingestion
	datasetsLoaded    prometheus.Counter
	datasetsRejected  *prometheus.CounterVec
	individualsLoaded *prometheus.CounterVec
	activeSessions    prometheus.Gauge

	// Scoring
	pairsScored        prometheus.Counter
	scoringErrors      *prometheus.CounterVec
	compatibilityScore prometheus.Histogram
	scoringLatency     prometheus.Histogram

	// Match batches
	queueLength     prometheus.Gauge
	queueRejected   prometheus.Counter
	matchBatches    prometheus.Counter
	matchBatchPairs prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "loftmatch",
		subsystem:        "scorer",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		customLabels:     make(map[string]string),
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
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
		Buckets:     buckets,
	}
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.datasetsLoaded = auto.NewCounter(m.counterOpts("datasets_loaded_total",
		"Total number of datasets accepted"))
	m.datasetsRejected = auto.NewCounterVec(m.counterOpts("datasets_rejected_total",
		"Total number of datasets rejected by reason"), []string{"reason"})
	m.individualsLoaded = auto.NewCounterVec(m.counterOpts("individuals_loaded_total",
		"Total number of individuals loaded by gender bucket"), []string{"gender"})
	m.activeSessions = auto.NewGauge(m.gaugeOpts("active_sessions",
		"Number of datasets currently held in memory"))

	m.pairsScored = auto.NewCounter(m.counterOpts("pairs_scored_total",
		"Total number of pairs scored"))
	m.scoringErrors = auto.NewCounterVec(m.counterOpts("scoring_errors_total",
		"Total number of failed scoring requests by error kind"), []string{"kind"})
	m.compatibilityScore = auto.NewHistogram(m.histogramOpts("compatibility_score",
		"Distribution of compatibility scores", prometheus.LinearBuckets(0, 10, 11)))
	m.scoringLatency = auto.NewHistogram(m.histogramOpts("scoring_latency_milliseconds",
		"Histogram of scoring latency in milliseconds", m.histogramBuckets))

	m.queueLength = auto.NewGauge(m.gaugeOpts("queue_length",
		"Number of pair jobs waiting for a worker"))
	m.queueRejected = auto.NewCounter(m.counterOpts("queue_rejected_total",
		"Total number of pair jobs refused because the queue was full or closed"))
	m.matchBatches = auto.NewCounter(m.counterOpts("match_batches_total",
		"Total number of completed best-match batches"))
	m.matchBatchPairs = auto.NewHistogram(m.histogramOpts("match_batch_pairs",
		"Number of pairs scored per best-match batch", prometheus.ExponentialBuckets(1, 4, 8)))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total",
		"Total number of HTTP requests by endpoint and method"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", m.histogramBuckets), []string{"endpoint", "method", "status_code"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_bytes",
		"Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutines",
		"Number of goroutines"))
}

// Enabled reports whether observations are recorded.
func (m *Manager) Enabled() bool { return m.enabled }

// RecordDatasetLoaded counts an accepted dataset and its population.
func (m *Manager) RecordDatasetLoaded(males, females, unknown int) {
	if !m.enabled {
		return
	}
	m.datasetsLoaded.Inc()
	m.individualsLoaded.WithLabelValues("male").Add(float64(males))
	m.individualsLoaded.WithLabelValues("female").Add(float64(females))
	m.individualsLoaded.WithLabelValues("unknown").Add(float64(unknown))
}

// RecordDatasetRejected counts a rejected dataset.
func (m *Manager) RecordDatasetRejected(reason string) {
	if !m.enabled {
		return
	}
	m.datasetsRejected.WithLabelValues(reason).Inc()
}

// UpdateActiveSessions sets the live session gauge.
func (m *Manager) UpdateActiveSessions(n int) {
	if !m.enabled {
		return
	}
	m.activeSessions.Set(float64(n))
}

// RecordPairScored counts a scored pair and observes its score and latency.
func (m *Manager) RecordPairScored(compatibility, latencyMs float64) {
	if !m.enabled {
		return
	}
	m.pairsScored.Inc()
	m.compatibilityScore.Observe(compatibility)
	m.scoringLatency.Observe(latencyMs)
}

// RecordScoringError counts a failed scoring request.
func (m *Manager) RecordScoringError(kind string) {
	if !m.enabled {
		return
	}
	m.scoringErrors.WithLabelValues(kind).Inc()
}

// UpdateQueueLength sets the pending pair job gauge.
func (m *Manager) UpdateQueueLength(n int) {
	if !m.enabled {
		return
	}
	m.queueLength.Set(float64(n))
}

// RecordQueueRejected counts a pair job the queue refused.
func (m *Manager) RecordQueueRejected() {
	if !m.enabled {
		return
	}
	m.queueRejected.Inc()
}

// RecordMatchBatch counts a completed best-match batch of n pairs.
func (m *Manager) RecordMatchBatch(n int) {
	if !m.enabled {
		return
	}
	m.matchBatches.Inc()
	m.matchBatchPairs.Observe(float64(n))
}

// RecordHTTPRequest counts a request and observes its duration.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// UpdateSystem sets the memory and goroutine gauges.
func (m *Manager) UpdateSystem(allocBytes uint64, goroutines int) {
	if !m.enabled {
		return
	}
	m.systemMemoryUsage.Set(float64(allocBytes))
	m.systemGoroutineCount.Set(float64(goroutines))
}

// Default returns the global manager bound to GetRegistry.
func Default() *Manager { return globalManager }

// RecordHTTPRequest records on the global manager.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

// UpdateSystemMetrics records on the global manager.
func UpdateSystemMetrics(allocBytes uint64, goroutines int) {
	globalManager.UpdateSystem(allocBytes, goroutines)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
