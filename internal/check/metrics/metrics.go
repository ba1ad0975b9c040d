// Package metrics provides observability for check execution.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the check runner.
type Metrics struct {
	// Individual check latencies by check name
	CheckLatency *prometheus.HistogramVec

	// Check outcomes by check name and risk level
	CheckOutcome *prometheus.CounterVec

	// Full stage run latency including evidence gathering
	RunLatency prometheus.Histogram
}

// New creates a Metrics instance with all check runner metrics registered.
func New() *Metrics {
	return &Metrics{
		CheckLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vetra_check_duration_seconds",
			Help:    "Duration of individual check executions by check name",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"check"}),

		CheckOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vetra_check_outcomes_total",
			Help: "Total check outcomes by check name and risk level",
		}, []string{"check", "risk_level"}),

		RunLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vetra_check_run_duration_seconds",
			Help:    "Duration of a full stage check run",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

// ObserveCheckLatency records the duration of one check execution.
func (m *Metrics) ObserveCheckLatency(check string, d time.Duration) {
	if m != nil {
		m.CheckLatency.WithLabelValues(check).Observe(d.Seconds())
	}
}

// IncrementOutcome records a check outcome.
func (m *Metrics) IncrementOutcome(check, riskLevel string) {
	if m != nil {
		m.CheckOutcome.WithLabelValues(check, riskLevel).Inc()
	}
}

// ObserveRunLatency records the duration of a full stage run.
func (m *Metrics) ObserveRunLatency(d time.Duration) {
	if m != nil {
		m.RunLatency.Observe(d.Seconds())
	}
}
