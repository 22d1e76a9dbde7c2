package metrics

import (
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// PipelineRunsTotal counts scrape runs by result (success, error, structure_changed).
	PipelineRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ipo_pipeline_runs_total",
			Help: "Total number of scrape pipeline runs by result",
		},
		[]string{"result"},
	)

	// PipelineDuration tracks how long a scrape run takes.
	PipelineDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ipo_pipeline_duration_seconds",
			Help:    "Scrape pipeline run duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	// PipelineRecords is the number of schedules written by the last successful run.
	PipelineRecords = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ipo_pipeline_records",
			Help: "Schedules stored by the last successful scrape",
		},
	)

	// PipelineLastSuccess is the unix time of the last successful run.
	PipelineLastSuccess = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ipo_pipeline_last_success_timestamp_seconds",
			Help: "Unix time of the last successful scrape",
		},
	)
)

var (
	numericPathSegment = regexp.MustCompile(`/[0-9]+(/|$)`)
	initOnce           sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestDuration, RequestTotal,
			PipelineRunsTotal, PipelineDuration, PipelineRecords, PipelineLastSuccess)
	})
}

// NormalizePath reduces cardinality by replacing numeric path segments with {id}.
func NormalizePath(path string) string {
	return numericPathSegment.ReplaceAllString(path, "/{id}$1")
}

// RecordRequest records duration and count for an HTTP request. Call from middleware with method, path, statusCode, duration.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// RecordPipelineRun records one finished scrape run. Records and the success timestamp
// only move on success.
func RecordPipelineRun(result string, records int, durationSeconds float64, finished time.Time) {
	PipelineRunsTotal.WithLabelValues(result).Inc()
	PipelineDuration.Observe(durationSeconds)
	if result == "success" {
		PipelineRecords.Set(float64(records))
		PipelineLastSuccess.Set(float64(finished.Unix()))
	}
}
