package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP
// surface and the pipeline stages.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	pipelineRuns    *prometheus.CounterVec
	conflictsFound  prometheus.Counter
	lessonsCreated  prometheus.Counter
	reasoningTime   prometheus.Histogram
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
}

// NewMetricsService registers the core collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	pipelineRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_pipeline_runs_total",
		Help: "Pipeline stage executions by outcome",
	}, []string{"stage", "outcome"})

	conflictsFound := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "schedule_conflicts_detected_total",
		Help: "Conflicts reported by the validator",
	})

	lessonsCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "schedule_lessons_created_total",
		Help: "Schedule rows persisted by the applier",
	})

	reasoningTime := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "reasoning_call_duration_seconds",
		Help:    "Latency of reasoning service calls",
		Buckets: []float64{1, 2, 5, 10, 20, 40, 60, 90, 120},
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, pipelineRuns, conflictsFound, lessonsCreated, reasoningTime, cacheHits, cacheMisses, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		pipelineRuns:    pipelineRuns,
		conflictsFound:  conflictsFound,
		lessonsCreated:  lessonsCreated,
		reasoningTime:   reasoningTime,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one served request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObservePipelineStage records one pipeline stage execution.
func (m *MetricsService) ObservePipelineStage(stage string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.pipelineRuns.WithLabelValues(stage, outcome).Inc()
}

// AddConflicts counts conflicts surfaced by the validator.
func (m *MetricsService) AddConflicts(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.conflictsFound.Add(float64(n))
}

// AddLessonsCreated counts rows persisted by the applier.
func (m *MetricsService) AddLessonsCreated(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.lessonsCreated.Add(float64(n))
}

// ObserveReasoningCall records the latency of one reasoning service call.
func (m *MetricsService) ObserveReasoningCall(duration time.Duration) {
	if m == nil {
		return
	}
	m.reasoningTime.Observe(duration.Seconds())
}

// RecordCacheOperation records a cache hit or miss.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}
