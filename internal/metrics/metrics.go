package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skysched_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "skysched_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "skysched_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skysched_runs_total",
			Help: "Total number of scheduling runs",
		},
		[]string{"source", "algorithm", "status"},
	)

	runDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "skysched_run_duration_seconds",
			Help:    "Scheduling run wall-clock time in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 300},
		},
		[]string{"source", "algorithm"},
	)

	runFitness = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "skysched_run_fitness",
			Help:    "Fitness of produced schedules",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
		[]string{"algorithm"},
	)

	blocksScheduled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skysched_blocks_scheduled_total",
			Help: "Total number of blocks placed by the scheduler",
		},
		[]string{"algorithm"},
	)

	blocksUnscheduled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skysched_blocks_unscheduled_total",
			Help: "Total number of blocks the scheduler could not place",
		},
		[]string{"algorithm"},
	)

	watchFilesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skysched_watch_files_total",
			Help: "Total number of input files picked up by the watcher",
		},
		[]string{"status"},
	)
)

func Handler() http.Handler {
	return promhttp.Handler()
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	statusStr := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func IncrementInFlight() {
	httpRequestsInFlight.Inc()
}

func DecrementInFlight() {
	httpRequestsInFlight.Dec()
}

func RecordRun(source, algorithm, status string, duration time.Duration) {
	runsTotal.WithLabelValues(source, algorithm, status).Inc()
	runDuration.WithLabelValues(source, algorithm).Observe(duration.Seconds())
}

func RecordSchedule(algorithm string, scheduled, unscheduled int, fitness float64) {
	runFitness.WithLabelValues(algorithm).Observe(fitness)
	blocksScheduled.WithLabelValues(algorithm).Add(float64(scheduled))
	blocksUnscheduled.WithLabelValues(algorithm).Add(float64(unscheduled))
}

func RecordWatchFile(status string) {
	watchFilesProcessed.WithLabelValues(status).Inc()
}
