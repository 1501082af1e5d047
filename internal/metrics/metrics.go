// Package metrics provides Prometheus metrics for data conditioning runs.
// It counts runs, failures, rows and sink writes and times each stage so
// they can be exposed via the Prometheus metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Stage label values for StageDuration.
const (
	StageAdapt     = "adapt"
	StageBalance   = "balance"
	StageSelection = "selection"
	StageSink      = "sink"
)

// Metrics holds all Prometheus metrics for the conditioning pipeline.
type Metrics struct {
	// Run metrics
	RunsTotal   prometheus.Counter   // Total number of conditioning runs started
	RunFailures prometheus.Counter   // Runs that ended with an error
	RunDuration prometheus.Histogram // End-to-end run duration

	// Stage metrics
	StageDuration *prometheus.HistogramVec // Per-stage duration, labeled by stage

	// Data metrics
	InputRows        prometheus.Counter // Rows received by the pipeline
	OutputRows       prometheus.Counter // Rows produced by the pipeline
	SyntheticRows    prometheus.Counter // Synthetic rows generated by balancing
	SelectedFeatures prometheus.Gauge   // Feature count of the last run

	// Sink metrics
	SinkWrites   prometheus.Counter // Successful sink writes
	SinkFailures prometheus.Counter // Sink writes that failed
}

// New creates and registers all metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		RunsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "conditioning_runs_total",
			Help: "Total number of conditioning runs started",
		}),
		RunFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "conditioning_run_failures_total",
			Help: "Total number of conditioning runs that failed",
		}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "conditioning_run_duration_seconds",
			Help:    "End-to-end conditioning run duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "conditioning_stage_duration_seconds",
			Help:    "Duration of each conditioning stage in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}, []string{"stage"}),
		InputRows: factory.NewCounter(prometheus.CounterOpts{
			Name: "conditioning_input_rows_total",
			Help: "Total number of rows received by the pipeline",
		}),
		OutputRows: factory.NewCounter(prometheus.CounterOpts{
			Name: "conditioning_output_rows_total",
			Help: "Total number of rows produced by the pipeline",
		}),
		SyntheticRows: factory.NewCounter(prometheus.CounterOpts{
			Name: "conditioning_synthetic_rows_total",
			Help: "Total number of synthetic rows generated by balancing",
		}),
		SelectedFeatures: factory.NewGauge(prometheus.GaugeOpts{
			Name: "conditioning_selected_features",
			Help: "Number of features selected by the last run",
		}),
		SinkWrites: factory.NewCounter(prometheus.CounterOpts{
			Name: "conditioning_sink_writes_total",
			Help: "Total number of successful sink writes",
		}),
		SinkFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "conditioning_sink_failures_total",
			Help: "Total number of failed sink writes",
		}),
	}
}
