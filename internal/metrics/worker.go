// Package metrics exposes Prometheus instrumentation for the extraction
// pipeline on its own registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// WorkerMetrics instruments extraction jobs and chunk calls.
type WorkerMetrics struct {
	registry *prometheus.Registry

	chunksTotal  *prometheus.CounterVec
	jobDuration  *prometheus.HistogramVec
	jobsInFlight prometheus.Gauge
}

// NewWorkerMetrics creates the extraction metric set on a fresh registry.
func NewWorkerMetrics() *WorkerMetrics {
	registry := prometheus.NewRegistry()

	chunksTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finsight",
			Subsystem: "extraction",
			Name:      "chunks_total",
			Help:      "Total extraction chunk calls by status.",
		},
		[]string{"status"},
	)
	jobDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "finsight",
			Subsystem: "extraction",
			Name:      "job_duration_seconds",
			Help:      "Extraction job duration in seconds by terminal status.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		},
		[]string{"status"},
	)
	jobsInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "finsight",
			Subsystem: "extraction",
			Name:      "jobs_in_flight",
			Help:      "Number of extraction jobs currently processing.",
		},
	)

	registry.MustRegister(chunksTotal, jobDuration, jobsInFlight)

	return &WorkerMetrics{
		registry:     registry,
		chunksTotal:  chunksTotal,
		jobDuration:  jobDuration,
		jobsInFlight: jobsInFlight,
	}
}

// Handler serves the registry for the /metrics endpoint.
func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartJob() {
	m.jobsInFlight.Inc()
}

func (m *WorkerMetrics) FinishJob(duration time.Duration, err error) {
	m.jobsInFlight.Dec()

	status := "completed"
	if err != nil {
		status = "failed"
	}
	m.jobDuration.WithLabelValues(status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveChunk(err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.chunksTotal.WithLabelValues(status).Inc()
}
