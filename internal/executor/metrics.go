package executor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics mirror the ones the teacher repo's syncer exposes for its own
// control loop (gauges for current state, counters for outcomes), registered
// once at package init via promauto so multiple Executors in the same
// process share one set of series rather than panicking on double
// registration.
var (
	admissionLimitGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "evmload_admission_limit",
		Help: "Current admission-control concurrency limit.",
	})

	inFlightGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "evmload_jobs_in_flight",
		Help: "Number of jobs currently spawned but not yet finished.",
	})

	jobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evmload_jobs_total",
		Help: "Total number of jobs completed, by outcome.",
	}, []string{"outcome"})

	jobLatencySeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "evmload_job_latency_seconds",
		Help:    "Per-job end-to-end latency for successful jobs.",
		Buckets: prometheus.DefBuckets,
	})
)
