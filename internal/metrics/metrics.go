package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sharathcherry/agentic-stock-analyzer/internal/models"
)

// Collector exposes Prometheus metrics for inbound HTTP requests and for the
// multi-model analysis pipeline.
type Collector struct {
	registry        *prometheus.Registry
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	taskTotal       *prometheus.CounterVec
	taskDuration    *prometheus.HistogramVec
	verdictTotal    *prometheus.CounterVec
	analysisSeconds prometheus.Histogram
}

// NewCollector constructs a collector with default histograms/counters.
func NewCollector() (*Collector, error) {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "stockanalyzer",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency distribution for inbound HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stockanalyzer",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of inbound HTTP requests.",
	}, []string{"method", "path", "status"})

	taskTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stockanalyzer",
		Subsystem: "analysis",
		Name:      "tasks_total",
		Help:      "Task invocations by kind and outcome.",
	}, []string{"task", "outcome"})

	taskDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "stockanalyzer",
		Subsystem: "analysis",
		Name:      "task_duration_seconds",
		Help:      "Latency distribution for individual inference tasks.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
	}, []string{"task"})

	verdictTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stockanalyzer",
		Subsystem: "analysis",
		Name:      "verdicts_total",
		Help:      "Composite verdicts by action and confidence band.",
	}, []string{"action", "confidence"})

	analysisSeconds := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "stockanalyzer",
		Subsystem: "analysis",
		Name:      "duration_seconds",
		Help:      "End-to-end wall-clock duration of one analyze call.",
		Buckets:   []float64{0.5, 1, 2, 4, 8, 16, 32, 64},
	})

	for _, c := range []prometheus.Collector{requestDuration, requestTotal, taskTotal, taskDuration, verdictTotal, analysisSeconds} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return &Collector{
		registry:        registry,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		taskTotal:       taskTotal,
		taskDuration:    taskDuration,
		verdictTotal:    verdictTotal,
		analysisSeconds: analysisSeconds,
	}, nil
}

// Handler returns an HTTP handler for exposing Prometheus metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveTask records the outcome and duration of one task invocation.
func (c *Collector) ObserveTask(result models.TaskResult) {
	outcome := "success"
	if result.Err != nil {
		outcome = string(result.Err.Kind)
	}
	c.taskTotal.WithLabelValues(string(result.Task), outcome).Inc()
	c.taskDuration.WithLabelValues(string(result.Task)).Observe(result.Duration.Seconds())
}

// ObserveVerdict records a completed analysis.
func (c *Collector) ObserveVerdict(verdict models.CompositeVerdict) {
	c.verdictTotal.WithLabelValues(string(verdict.Action), string(verdict.Confidence)).Inc()
	c.analysisSeconds.Observe(verdict.AnalysisTime.Seconds())
}

// InstrumentHandler wraps the provided handler to record HTTP metrics.
func (c *Collector) InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.status)
		path := r.URL.Path

		c.requestTotal.WithLabelValues(r.Method, path, status).Inc()
		c.requestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
