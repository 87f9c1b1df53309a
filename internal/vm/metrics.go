package vm

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds counters and histograms about system runs.
type Metrics struct {
	Runs            *prometheus.CounterVec
	RunDuration     *prometheus.HistogramVec
	QueryIterations *prometheus.CounterVec
}

const (
	LabelSuccess       = "success"
	LabelCompileError  = "compile_error"
	LabelRuntimeError  = "runtime_error"
	LabelInternalError = "internal_error"
	LabelCanceled      = "canceled"
)

func NewMetrics() *Metrics {
	const (
		namespace = "stork"
		subsystem = "vm"
	)

	return &Metrics{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "system_runs_total",
			Help:      "Count of system runs",
		}, []string{"system", "result"}),

		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "system_run_duration_seconds",
			Help:      "Histogram of times spent running systems",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 5, 8),
		}, []string{"system"}),

		QueryIterations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "query_iterations_total",
			Help:      "Count of entities visited by queries",
		}, []string{"system"}),
	}
}

func (m *Metrics) PrometheusCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Runs,
		m.RunDuration,
		m.QueryIterations,
	}
}
