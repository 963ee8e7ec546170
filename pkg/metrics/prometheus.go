package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the planner.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Proposal engine
	proposalsGenerated prometheus.Counter
	proposalsFailed    prometheus.Counter
	conceptsScored     prometheus.Counter
	conceptsByBucket   *prometheus.CounterVec
	proposalLatency    prometheus.Histogram

	// Interpretation resolver
	interpretationResolutions *prometheus.CounterVec

	// Schedule expander and session allocator
	occurrencesGenerated prometheus.Counter
	sessionsBuilt        prometheus.Counter
	conceptsAllocated    prometheus.Counter
	sessionUtilization   prometheus.Histogram

	// Catalog and cache
	catalogSize   *prometheus.GaugeVec
	cacheRequests *prometheus.CounterVec

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorRateByComponent *prometheus.CounterVec

	// Process
	memoryUsage    prometheus.Gauge
	goroutineCount prometheus.Gauge
	gcPauseTime    prometheus.Histogram
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
		namespace:        "sportplanner",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
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

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	})
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

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric
	m.proposalsGenerated = m.counter("proposals_generated_total", "Total number of proposals generated")
	m.proposalsFailed = m.counter("proposals_failed_total", "Total number of proposal generations that failed")
	m.conceptsScored = m.counter("concepts_scored_total", "Total number of concepts scored")
	m.conceptsByBucket = m.counterVec("concepts_classified_total", "Scored concepts by proposal bucket", "bucket")
	m.proposalLatency = m.histogram("proposal_latency_milliseconds", "Proposal generation latency in milliseconds", m.histogramBuckets)

	m.interpretationResolutions = m.counterVec("interpretation_resolutions_total",
		"Interpretation resolutions by matching scope", "match")

	m.occurrencesGenerated = m.counter("occurrences_generated_total", "Total number of schedule occurrences emitted")
	m.sessionsBuilt = m.counter("sessions_built_total", "Total number of session plans built")
	m.conceptsAllocated = m.counter("concepts_allocated_total", "Total number of concepts allocated to sessions")
	m.sessionUtilization = m.histogram("session_utilization_ratio",
		"Allocated minutes over available minutes per session", []float64{0.1, 0.25, 0.5, 0.75, 0.9, 1})

	m.catalogSize = promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "catalog_entities",
		Help:        "Number of catalog entities loaded by kind",
		ConstLabels: m.constLabels,
	}, []string{"kind"})
	m.cacheRequests = m.counterVec("proposal_cache_requests_total", "Proposal cache lookups by backend and result",
		"backend", "result")

	m.queueSize = m.gauge("queue_size", "Current number of pending refresh jobs")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum queue capacity")
	m.queueEnqueueRate = m.counter("queue_enqueue_total", "Total number of jobs enqueued")
	m.queueDequeueRate = m.counter("queue_dequeue_total", "Total number of jobs dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Total number of enqueue errors")

	m.workerCount = m.gauge("worker_count", "Configured number of refresh workers")
	m.workerActiveCount = m.gauge("worker_active_count", "Number of workers currently processing a job")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds",
		"Worker job latency in milliseconds", m.histogramBuckets)
	m.workerErrorRate = m.counter("worker_errors_total", "Total number of worker errors")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Total number of errors by component",
		"component", "error_type")

	m.memoryUsage = m.gauge("memory_usage_bytes", "Heap bytes allocated")
	m.goroutineCount = m.gauge("goroutines", "Number of live goroutines")
	m.gcPauseTime = m.histogram("gc_pause_milliseconds", "Average GC pause in milliseconds",
		[]float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10})
}

// RecordProposalGenerated records one successful proposal run.
func RecordProposalGenerated(latencyMs float64, scored, suggested, optional int) {
	globalManager.proposalsGenerated.Inc()
	globalManager.proposalLatency.Observe(latencyMs)
	globalManager.conceptsScored.Add(float64(scored))
	globalManager.conceptsByBucket.WithLabelValues("suggested").Add(float64(suggested))
	globalManager.conceptsByBucket.WithLabelValues("optional").Add(float64(optional))
}

// RecordProposalFailed increments the failed proposals counter.
func RecordProposalFailed() {
	globalManager.proposalsFailed.Inc()
}

// RecordInterpretationResolution counts a resolution by the scope that matched.
func RecordInterpretationResolution(match string) {
	globalManager.interpretationResolutions.WithLabelValues(match).Inc()
}

// RecordOccurrences adds n emitted occurrences.
func RecordOccurrences(n int) {
	globalManager.occurrencesGenerated.Add(float64(n))
}

// RecordSessionBuilt records one built session plan.
func RecordSessionBuilt(concepts int, utilization float64) {
	globalManager.sessionsBuilt.Inc()
	globalManager.conceptsAllocated.Add(float64(concepts))
	globalManager.sessionUtilization.Observe(utilization)
}

// UpdateCatalogSize sets the number of loaded entities of a kind.
func UpdateCatalogSize(kind string, n int) {
	globalManager.catalogSize.WithLabelValues(kind).Set(float64(n))
}

// RecordCacheHit counts a proposal cache hit.
func RecordCacheHit(backend string) {
	globalManager.cacheRequests.WithLabelValues(backend, "hit").Inc()
}

// RecordCacheMiss counts a proposal cache miss.
func RecordCacheMiss(backend string) {
	globalManager.cacheRequests.WithLabelValues(backend, "miss").Inc()
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateWorkerActiveCount sets the number of busy workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrorRate.Inc()
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

// UpdateSystemMemoryUsage sets the heap allocation in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.memoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.goroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.gcPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
