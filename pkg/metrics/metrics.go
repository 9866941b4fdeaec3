package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	piCalculator = "pi_calculator"

	// Job metrics
	jobsSubmittedTotal = "jobs_submitted_total"
	jobsCompletedTotal = "jobs_completed_total"
	jobsRunning        = "jobs_running"
	jobDurationSeconds = "job_duration_seconds"

	// Labels
	outcomeLabel = "outcome"
)

// Job outcomes recorded by the worker.
const (
	OutcomeFinished  = "finished"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

var jobsCompletedLabels = []string{
	outcomeLabel,
}

/**
* Metrics definition
**/
var jobsSubmittedTotalMetric = prometheus.NewCounter(
	prometheus.CounterOpts{
		Subsystem: piCalculator,
		Name:      jobsSubmittedTotal,
		Help:      "number of jobs accepted by the dispatcher",
	},
)

var jobsCompletedTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: piCalculator,
		Name:      jobsCompletedTotal,
		Help:      "number of jobs that reached a terminal state, by outcome",
	},
	jobsCompletedLabels,
)

var jobsRunningMetric = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Subsystem: piCalculator,
		Name:      jobsRunning,
		Help:      "number of jobs currently executing on this process",
	},
)

var jobDurationSecondsMetric = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Subsystem: piCalculator,
		Name:      jobDurationSeconds,
		Help:      "wall-clock duration of job executions, by outcome",
		Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 30, 120, 600},
	},
	jobsCompletedLabels,
)

func IncreaseJobsSubmittedMetric() {
	jobsSubmittedTotalMetric.Inc()
}

func IncreaseJobsRunningMetric() {
	jobsRunningMetric.Inc()
}

func DecreaseJobsRunningMetric() {
	jobsRunningMetric.Dec()
}

// ObserveJobCompleted records the terminal outcome of a job and how long it ran.
func ObserveJobCompleted(outcome string, seconds float64) {
	labels := prometheus.Labels{
		outcomeLabel: outcome,
	}
	jobsCompletedTotalMetric.With(labels).Inc()
	jobDurationSecondsMetric.With(labels).Observe(seconds)
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(jobsSubmittedTotalMetric)
	prometheus.MustRegister(jobsCompletedTotalMetric)
	prometheus.MustRegister(jobsRunningMetric)
	prometheus.MustRegister(jobDurationSecondsMetric)
}
