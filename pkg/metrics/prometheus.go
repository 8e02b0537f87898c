// Package metrics provides Prometheus metrics for the octagon prediction service.
package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values for outcomes that carry no error kind.
const (
	OutcomeOK    = "ok"
	OutcomeOther = "other"
)

// defaultBuckets covers 0.25ms to roughly 2s.
var defaultBuckets = prometheus.ExponentialBuckets(0.25, 2, 14) //nolint:gochecknoglobals // immutable bucket layout

// Manager owns every collector the service exposes.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Prediction pipeline
	predictions       *prometheus.CounterVec
	predictionLatency *prometheus.HistogramVec
	explanations      *prometheus.CounterVec
	schemaMismatches  *prometheus.CounterVec

	// Reference data
	fighters     prometheus.Gauge
	bouts        prometheus.Gauge
	officials    prometheus.Gauge
	modelsLoaded *prometheus.GaugeVec

	// Queue
	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge
	queueEnqueued prometheus.Counter
	queueDequeued prometheus.Counter
	queueRejected *prometheus.CounterVec
	queueWait     prometheus.Histogram

	// Workers and jobs
	workerCount   prometheus.Gauge
	workersBusy   prometheus.Gauge
	jobLatency    *prometheus.HistogramVec
	jobErrors     *prometheus.CounterVec
	jobRejected   *prometheus.CounterVec
	jobsAbandoned *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpRateLimited     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec

	// Runtime
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
		namespace:        "octagon",
		subsystem:        "predictor",
		histogramBuckets: defaultBuckets,
		constLabels:      prometheus.Labels{},
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
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.predictions = m.counterVec("predictions_total", "Predictions served by type and outcome", "type", "outcome")
	m.predictionLatency = m.histogramVec("prediction_latency_milliseconds", "End-to-end prediction latency in milliseconds", "type")
	m.explanations = m.counterVec("explanations_total", "Explanations served by outcome", "outcome")
	m.schemaMismatches = m.counterVec("schema_mismatches_total", "Assembled vectors missing names a classifier requires", "model")

	m.fighters = m.gauge("dataset_fighters", "Fighters in the loaded registry")
	m.bouts = m.gauge("dataset_bouts", "Bouts in the loaded match index")
	m.officials = m.gauge("dataset_officials", "Distinct officials in the match index")
	m.modelsLoaded = promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: "model_features",
		Help: "Input width of each loaded classifier", ConstLabels: m.constLabels,
	}, []string{"model"})

	m.queueSize = m.gauge("queue_size", "Jobs waiting for a worker")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum pending jobs")
	m.queueEnqueued = m.counter("queue_enqueue_total", "Jobs enqueued")
	m.queueDequeued = m.counter("queue_dequeue_total", "Jobs handed to workers")
	m.queueRejected = m.counterVec("queue_rejected_total", "Jobs refused by the queue", "reason")
	m.queueWait = m.histogram("queue_wait_milliseconds", "Time jobs spent queued in milliseconds")

	m.workerCount = m.gauge("worker_count", "Inference workers in the pool")
	m.workersBusy = m.gauge("workers_busy", "Workers currently running a job")
	m.jobLatency = m.histogramVec("job_latency_milliseconds", "Job run time in milliseconds", "kind")
	m.jobErrors = m.counterVec("job_errors_total", "Jobs that returned an error", "kind", "error_kind")
	m.jobRejected = m.counterVec("job_rejected_total", "Jobs rejected because the queue was full", "kind")
	m.jobsAbandoned = m.counterVec("jobs_abandoned_total", "Jobs whose submitter gave up first", "kind")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")
	m.httpRateLimited = m.counterVec("http_rate_limited_total", "Requests refused by the rate limiter", "endpoint")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Error responses by endpoint and kind", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes in use")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
}

// Prediction pipeline.

// RecordPrediction counts a finished prediction and its latency.
func RecordPrediction(predictionType, outcome string, d time.Duration) {
	globalManager.predictions.WithLabelValues(predictionType, outcome).Inc()
	globalManager.predictionLatency.WithLabelValues(predictionType).Observe(ms(d))
}

// RecordExplanation counts a finished explanation.
func RecordExplanation(outcome string) {
	globalManager.explanations.WithLabelValues(outcome).Inc()
}

// RecordSchemaMismatch counts a reconcile failure for model.
func RecordSchemaMismatch(model string) {
	globalManager.schemaMismatches.WithLabelValues(model).Inc()
}

// Reference data.

// UpdateDataset publishes the size of the loaded snapshot.
func UpdateDataset(fighters, bouts, officials int) {
	globalManager.fighters.Set(float64(fighters))
	globalManager.bouts.Set(float64(bouts))
	globalManager.officials.Set(float64(officials))
}

// UpdateModelFeatures publishes the input width of a loaded model.
func UpdateModelFeatures(model string, n int) {
	globalManager.modelsLoaded.WithLabelValues(model).Set(float64(n))
}

// Queue.

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
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueRejected counts a refused enqueue.
func RecordQueueRejected(reason string) {
	globalManager.queueRejected.WithLabelValues(reason).Inc()
}

// ObserveQueueWait records how long a job waited.
func ObserveQueueWait(d time.Duration) {
	globalManager.queueWait.Observe(ms(d))
}

// Workers and jobs.

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateWorkersBusy sets how many workers are running a job.
func UpdateWorkersBusy(n int) {
	globalManager.workersBusy.Set(float64(n))
}

// ObserveJobLatency records a job's run time.
func ObserveJobLatency(kind string, d time.Duration) {
	globalManager.jobLatency.WithLabelValues(kind).Observe(ms(d))
}

// RecordJobError counts a failed job by its error kind; kind may be nil.
func RecordJobError(jobKind string, errKind error) {
	label := OutcomeOther
	if errKind != nil {
		label = errKind.Error()
	}
	globalManager.jobErrors.WithLabelValues(jobKind, label).Inc()
}

// RecordJobRejected counts a job refused for lack of queue space.
func RecordJobRejected(kind string) {
	globalManager.jobRejected.WithLabelValues(kind).Inc()
}

// RecordJobAbandoned counts a job whose caller stopped waiting.
func RecordJobAbandoned(kind string) {
	globalManager.jobsAbandoned.WithLabelValues(kind).Inc()
}

// HTTP.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordRateLimited counts a request refused by the limiter.
func RecordRateLimited(endpoint string) {
	globalManager.httpRateLimited.WithLabelValues(endpoint).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// Runtime.

// UpdateSystemMetrics samples heap usage and goroutine count.
func UpdateSystemMetrics() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	globalManager.systemMemoryUsage.Set(float64(ms.HeapInuse))
	globalManager.systemGoroutineCount.Set(float64(runtime.NumGoroutine()))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
