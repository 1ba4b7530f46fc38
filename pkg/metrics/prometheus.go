// Package metrics provides Prometheus metrics for the PITCREW assignment
// service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the assignment service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Assignment Metrics - What really matters for dispatching
	assignmentsRequested prometheus.Counter
	assignmentsCommitted prometheus.Counter
	assignmentsExhausted prometheus.Counter
	noEligibleCandidates prometheus.Counter
	eligibleCandidates   prometheus.Histogram
	scoringLatency       prometheus.Histogram

	// Ledger Metrics - Capacity bookkeeping
	ledgerCommits       prometheus.Counter
	ledgerConflicts     prometheus.Counter
	ledgerReleases      prometheus.Counter
	ledgerCommitLatency prometheus.Histogram
	ledgerEntries       prometheus.Gauge
	ledgerBookedMinutes prometheus.Gauge
	ledgerUtilization   prometheus.Gauge

	// Audit Pipeline Metrics
	auditQueueSize     prometheus.Gauge
	auditQueueCapacity prometheus.Gauge
	auditEnqueues      prometheus.Counter
	auditDequeues      prometheus.Counter
	auditEnqueueErrors prometheus.Counter
	decisionsAudited   prometheus.Counter
	auditTrailSize     prometheus.Gauge

	// Worker Metrics - Processing performance
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram

	// Error Metrics - Detailed error tracking
	errorsByComponent *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "pitcrew",
		subsystem:        "assignment",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	// Assignment metrics
	m.assignmentsRequested = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "requests_total",
		Help:      "Total number of assignment requests received",
	})

	m.assignmentsCommitted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "committed_total",
		Help:      "Total number of assignments committed against the ledger",
	})

	m.assignmentsExhausted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "exhausted_total",
		Help:      "Total number of decisions where every candidate lost its capacity race",
	})

	m.noEligibleCandidates = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "no_eligible_candidates_total",
		Help:      "Total number of requests the availability filter emptied",
	})

	m.eligibleCandidates = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "eligible_candidates",
		Help:      "Distribution of eligible candidate counts per request",
		Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34, 55},
	})

	m.scoringLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scoring_latency_milliseconds",
		Help:      "Histogram of end-to-end decision latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	// Ledger metrics
	m.ledgerCommits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ledger_commits_total",
		Help:      "Total number of successful conditional capacity commits",
	})

	m.ledgerConflicts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ledger_conflicts_total",
		Help:      "Total number of commits rejected because booked plus duration exceeded max capacity",
	})

	m.ledgerReleases = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ledger_releases_total",
		Help:      "Total number of compensating capacity releases",
	})

	m.ledgerCommitLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ledger_commit_latency_milliseconds",
		Help:      "Ledger commit operation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.ledgerEntries = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ledger_entries",
		Help:      "Number of schedule entries tracked by the ledger",
	})

	m.ledgerBookedMinutes = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ledger_booked_minutes",
		Help:      "Total booked minutes across all schedule entries",
	})

	m.ledgerUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ledger_utilization_ratio",
		Help:      "Booked to max capacity ratio across all entries",
	})

	// Audit pipeline metrics
	m.auditQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "audit_queue_size",
		Help:      "Current size of the decision audit queue",
	})

	m.auditQueueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "audit_queue_capacity",
		Help:      "Configured capacity of the decision audit queue",
	})

	m.auditEnqueues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "audit_enqueues_total",
		Help:      "Total number of decisions handed to the audit queue",
	})

	m.auditDequeues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "audit_dequeues_total",
		Help:      "Total number of decisions drained from the audit queue",
	})

	m.auditEnqueueErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "audit_enqueue_errors_total",
		Help:      "Total number of dropped audit hand-offs",
	})

	m.decisionsAudited = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "decisions_audited_total",
		Help:      "Total number of decisions recorded in the audit trail",
	})

	m.auditTrailSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "audit_trail_size",
		Help:      "Number of decisions retained by the audit trail",
	})

	// Worker metrics
	m.workerActiveCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_active_count",
		Help:      "Current number of audit workers",
	})

	m.workerProcessingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_processing_latency_milliseconds",
		Help:      "Audit worker processing latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	// Error metrics
	m.errorsByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Total errors by component and error type",
		},
		[]string{"component", "error_type"},
	)

	// System metrics
	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_bytes",
		Help:      "Current heap allocation in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutines",
		Help:      "Current number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_milliseconds",
		Help:      "Histogram of GC pause time in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// RecordAssignmentRequested increments the assignment requests counter.
func RecordAssignmentRequested() {
	globalManager.assignmentsRequested.Inc()
}

// RecordAssignmentCommitted increments the committed assignments counter.
func RecordAssignmentCommitted() {
	globalManager.assignmentsCommitted.Inc()
}

// RecordAssignmentExhausted increments the exhausted decisions counter.
func RecordAssignmentExhausted() {
	globalManager.assignmentsExhausted.Inc()
}

// RecordNoEligibleCandidates increments the empty-filter counter.
func RecordNoEligibleCandidates() {
	globalManager.noEligibleCandidates.Inc()
}

// ObserveEligibleCandidates records the eligible set size for a request.
func ObserveEligibleCandidates(count int) {
	globalManager.eligibleCandidates.Observe(float64(count))
}

// RecordScoringLatency records decision latency in milliseconds.
func RecordScoringLatency(latencyMs float64) {
	globalManager.scoringLatency.Observe(latencyMs)
}

// RecordLedgerCommit increments the successful commit counter.
func RecordLedgerCommit() {
	globalManager.ledgerCommits.Inc()
}

// RecordLedgerCommitConflict increments the lost-race counter.
func RecordLedgerCommitConflict() {
	globalManager.ledgerConflicts.Inc()
}

// RecordLedgerRelease increments the release counter.
func RecordLedgerRelease() {
	globalManager.ledgerReleases.Inc()
}

// RecordLedgerCommitLatency records commit latency in milliseconds.
func RecordLedgerCommitLatency(latencyMs float64) {
	globalManager.ledgerCommitLatency.Observe(latencyMs)
}

// UpdateLedgerEntries sets the tracked entry count gauge.
func UpdateLedgerEntries(count int) {
	globalManager.ledgerEntries.Set(float64(count))
}

// UpdateLedgerBookedMinutes sets the total booked minutes gauge.
func UpdateLedgerBookedMinutes(minutes int) {
	globalManager.ledgerBookedMinutes.Set(float64(minutes))
}

// UpdateLedgerUtilization sets the booked/max ratio gauge.
func UpdateLedgerUtilization(utilization float64) {
	globalManager.ledgerUtilization.Set(utilization)
}

// UpdateAuditQueueSize sets the audit queue size gauge.
func UpdateAuditQueueSize(size int) {
	globalManager.auditQueueSize.Set(float64(size))
}

// UpdateAuditQueueCapacity sets the audit queue capacity gauge.
func UpdateAuditQueueCapacity(capacity int) {
	globalManager.auditQueueCapacity.Set(float64(capacity))
}

// RecordAuditEnqueue increments the audit enqueue counter.
func RecordAuditEnqueue() {
	globalManager.auditEnqueues.Inc()
}

// RecordAuditDequeue increments the audit dequeue counter.
func RecordAuditDequeue() {
	globalManager.auditDequeues.Inc()
}

// RecordAuditEnqueueError increments the dropped hand-off counter.
func RecordAuditEnqueueError() {
	globalManager.auditEnqueueErrors.Inc()
}

// RecordDecisionAudited increments the audited decisions counter.
func RecordDecisionAudited() {
	globalManager.decisionsAudited.Inc()
}

// UpdateAuditTrailSize sets the audit trail size gauge.
func UpdateAuditTrailSize(size int) {
	globalManager.auditTrailSize.Set(float64(size))
}

// UpdateWorkerActiveCount sets the active worker gauge.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker latency in milliseconds.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordErrorByComponent increments the per-component error counter.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap allocation gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count gauge.
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
