package task

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespace = "minutes"

	jobStatusLabel = "status"
)

var jobsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "jobs_total",
		Help:      "number of extraction jobs by outcome",
	},
	[]string{jobStatusLabel},
)

var queueDepthMetric = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "job_queue_depth",
		Help:      "number of jobs waiting for the worker",
	},
)

var jobDurationMetric = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "job_duration_seconds",
		Help:      "time spent processing one extraction job",
		Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
	},
)

func recordJob(status JobStatus) {
	jobsTotalMetric.With(prometheus.Labels{jobStatusLabel: string(status)}).Inc()
}

func init() {
	prometheus.MustRegister(jobsTotalMetric)
	prometheus.MustRegister(queueDepthMetric)
	prometheus.MustRegister(jobDurationMetric)
}
