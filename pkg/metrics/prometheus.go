// Package metrics provides Prometheus metrics for the cube-ranking pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Label values shared with callers.
const (
	OutcomeEvaluated = "evaluated"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"

	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Manager owns every Prometheus series of the pipeline.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Normalization
	rowsNormalized prometheus.Counter
	rowsRejected   *prometheus.CounterVec
	rowsDuplicate  prometheus.Counter

	// Stage output
	populationSize prometheus.Gauge
	weeklyRows     prometheus.Gauge
	stageDuration  *prometheus.HistogramVec

	// Competition fan-out
	competitions    *prometheus.CounterVec
	poolWidth       prometheus.Gauge
	taskLatency     prometheus.Histogram
	queueDepth      prometheus.Gauge
	queueRejections *prometheus.CounterVec

	// Runs
	pipelineRuns   *prometheus.CounterVec
	lastSuccessRun prometheus.Gauge
	cacheLookups   *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "cuberank",
		subsystem:        "pipeline",
		histogramBuckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every series
	auto := promauto.With(m.registry)

	m.rowsNormalized = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "rows_normalized_total",
		Help:        "Result rows accepted by the normalizer",
		ConstLabels: m.constLabels,
	})
	m.rowsRejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "rows_rejected_total",
		Help:        "Result rows rejected for breaking the table contract",
		ConstLabels: m.constLabels,
	}, []string{"field"})
	m.rowsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "rows_duplicate_total",
		Help:        "Result rows discarded as duplicates of (competition, person, round)",
		ConstLabels: m.constLabels,
	})

	m.populationSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "population_size",
		Help:        "Participants carried into the rolling window stage",
		ConstLabels: m.constLabels,
	})
	m.weeklyRows = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "weekly_rows",
		Help:        "Rows in the last weekly participant table",
		ConstLabels: m.constLabels,
	})
	m.stageDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "stage_duration_seconds",
		Help:        "Wall time per pipeline stage",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"stage"})

	m.competitions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "competitions_total",
		Help:        "Competition evaluations by outcome (evaluated, skipped, failed)",
		ConstLabels: m.constLabels,
	}, []string{"outcome"})
	m.poolWidth = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "worker_pool_width",
		Help:        "Workers used for the competition fan-out",
		ConstLabels: m.constLabels,
	})
	m.taskLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "competition_task_seconds",
		Help:        "Time to evaluate one competition",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})
	m.queueDepth = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "queue_depth",
		Help:        "Competition jobs waiting for a worker",
		ConstLabels: m.constLabels,
	})
	m.queueRejections = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "queue_rejections_total",
		Help:        "Jobs the queue refused, by reason",
		ConstLabels: m.constLabels,
	}, []string{"reason"})

	m.pipelineRuns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "runs_total",
		Help:        "Pipeline runs by status",
		ConstLabels: m.constLabels,
	}, []string{"status"})
	m.lastSuccessRun = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "last_success_unixtime",
		Help:        "Unix time of the last successful pipeline run",
		ConstLabels: m.constLabels,
	})
	m.cacheLookups = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "latest_cache_lookups_total",
		Help:        "Latest-view cache lookups by result (hit, miss)",
		ConstLabels: m.constLabels,
	}, []string{"result"})
}

// RecordRowsNormalized adds n accepted result rows.
func RecordRowsNormalized(n int) {
	globalManager.rowsNormalized.Add(float64(n))
}

// RecordRowRejected counts one rejected row, labelled by the offending field.
func RecordRowRejected(field string) {
	globalManager.rowsRejected.WithLabelValues(field).Inc()
}

// RecordRowsDuplicate adds n duplicate rows.
func RecordRowsDuplicate(n int) {
	globalManager.rowsDuplicate.Add(float64(n))
}

// UpdatePopulationSize sets the capped population size.
func UpdatePopulationSize(n int) {
	globalManager.populationSize.Set(float64(n))
}

// UpdateWeeklyRows sets the size of the weekly participant table.
func UpdateWeeklyRows(n int) {
	globalManager.weeklyRows.Set(float64(n))
}

// ObserveStageDuration records how long a stage took.
func ObserveStageDuration(stage string, d time.Duration) {
	globalManager.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordCompetitionOutcome counts one competition by outcome.
func RecordCompetitionOutcome(outcome string) {
	globalManager.competitions.WithLabelValues(outcome).Inc()
}

// UpdateWorkerPoolWidth sets the fan-out width.
func UpdateWorkerPoolWidth(n int) {
	globalManager.poolWidth.Set(float64(n))
}

// RecordTaskLatency records the time spent on one competition.
func RecordTaskLatency(d time.Duration) {
	globalManager.taskLatency.Observe(d.Seconds())
}

// UpdateQueueDepth sets the number of queued jobs.
func UpdateQueueDepth(n int) {
	globalManager.queueDepth.Set(float64(n))
}

// RecordQueueRejection counts a refused enqueue.
func RecordQueueRejection(reason string) {
	globalManager.queueRejections.WithLabelValues(reason).Inc()
}

// RecordPipelineRun counts a finished run by status.
func RecordPipelineRun(status string) {
	globalManager.pipelineRuns.WithLabelValues(status).Inc()
}

// UpdateLastSuccessfulRun stamps the time of the last successful run.
func UpdateLastSuccessfulRun(t time.Time) {
	globalManager.lastSuccessRun.Set(float64(t.Unix()))
}

// RecordCacheLookup counts a latest-view cache hit or miss.
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	globalManager.cacheLookups.WithLabelValues(result).Inc()
}

// GetRegistry returns the registry holding the global series.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Handler serves the global registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(customRegistry, promhttp.HandlerOpts{})
}
