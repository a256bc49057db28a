package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Ledger
	scoresSubmitted  *prometheus.CounterVec
	scoresRejected   *prometheus.CounterVec
	undoRedo         *prometheus.CounterVec
	roundsCompleted  prometheus.Counter
	limitReached     prometheus.Counter
	sessionsStarted  *prometheus.CounterVec
	sessionsComplete *prometheus.CounterVec
	liveSessions     prometheus.Gauge

	// Player records
	resultsProcessed prometheus.Counter
	resultsDuplicate prometheus.Counter
	playerRecords    prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Stores
	storeLatency *prometheus.HistogramVec

	// Queue
	queueCapacity      prometheus.Gauge
	queueSize          prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerActive            prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "tally",
		subsystem:        "scores",
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
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.scoresSubmitted = m.counterVec("submitted_total", "Score entries appended to a ledger by kind", "kind")
	m.scoresRejected = m.counterVec("rejected_total", "Score submissions refused before reaching a ledger", "reason")
	m.undoRedo = m.counterVec("history_operations_total", "Undo and redo calls by outcome", "operation", "outcome")
	m.roundsCompleted = m.counter("rounds_completed_total", "Rounds completed by every roster player")
	m.limitReached = m.counter("limit_reached_total", "Submissions after which a total was at or above the session limit")
	m.sessionsStarted = m.counterVec("sessions_started_total", "Sessions started by game", "game")
	m.sessionsComplete = m.counterVec("sessions_completed_total", "Sessions completed by game", "game")
	m.liveSessions = m.gauge("live_sessions", "Scorecards held in memory")

	m.resultsProcessed = m.counter("results_processed_total", "Session results applied to player records")
	m.resultsDuplicate = m.counter("results_duplicate_total", "Session results dropped as already seen")
	m.playerRecords = m.gauge("player_records", "Players tracked in the records store")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.storeLatency = m.histogramVec("store_latency_milliseconds", "Store call latency in milliseconds", "store", "operation")

	m.queueCapacity = m.gauge("queue_capacity", "Result queue capacity")
	m.queueSize = m.gauge("queue_size", "Results waiting in the queue")
	m.queueEnqueued = m.counter("queue_enqueue_total", "Results enqueued")
	m.queueDequeued = m.counter("queue_dequeue_total", "Results dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Results that could not be enqueued")

	m.workerActive = m.gauge("worker_active_count", "Workers currently applying a result")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Time to apply one result in milliseconds")
	m.workerErrors = m.counter("worker_errors_total", "Results that failed to apply")

	m.errorsByComponent = m.counterVec("errors_total", "Errors by component and type", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap memory in use in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
}

// RecordScoreSubmitted counts an appended entry of the given kind.
func RecordScoreSubmitted(kind string) {
	globalManager.scoresSubmitted.WithLabelValues(kind).Inc()
}

// RecordScoreRejected counts a refused submission.
func RecordScoreRejected(reason string) {
	globalManager.scoresRejected.WithLabelValues(reason).Inc()
}

// RecordHistory counts an undo or redo; outcome is "applied" or "noop".
func RecordHistory(operation, outcome string) {
	globalManager.undoRedo.WithLabelValues(operation, outcome).Inc()
}

// RecordRoundCompleted increments the completed rounds counter.
func RecordRoundCompleted() {
	globalManager.roundsCompleted.Inc()
}

// RecordLimitReached increments the score limit counter.
func RecordLimitReached() {
	globalManager.limitReached.Inc()
}

// RecordSessionStarted counts a new session for game.
func RecordSessionStarted(game string) {
	globalManager.sessionsStarted.WithLabelValues(game).Inc()
}

// RecordSessionCompleted counts a completed session for game.
func RecordSessionCompleted(game string) {
	globalManager.sessionsComplete.WithLabelValues(game).Inc()
}

// UpdateLiveSessions sets the number of scorecards in memory.
func UpdateLiveSessions(count int) {
	globalManager.liveSessions.Set(float64(count))
}

// RecordResultProcessed increments the applied results counter.
func RecordResultProcessed() {
	globalManager.resultsProcessed.Inc()
}

// RecordResultDuplicate increments the duplicate results counter.
func RecordResultDuplicate() {
	globalManager.resultsDuplicate.Inc()
}

// UpdatePlayerRecords sets the number of tracked players.
func UpdatePlayerRecords(count int) {
	globalManager.playerRecords.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordStoreLatency records the latency of one store call.
func RecordStoreLatency(store, operation string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(store, operation).Observe(latencyMs)
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateWorkerActiveCount sets the number of busy workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActive.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap memory in use.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Totals gathers the registry and sums every counter and gauge sample by
// fully qualified metric name, across label values.
func Totals(g prometheus.Gatherer) (map[string]float64, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGatherFailed, err)
	}
	out := make(map[string]float64, len(families))
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				out[mf.GetName()] += metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				out[mf.GetName()] += metric.GetGauge().GetValue()
			}
		}
	}
	return out, nil
}
