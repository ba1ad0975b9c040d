// Package metrics provides observability for the stage pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for stage transitions and executions.
type Metrics struct {
	// Transitions by source and target stage
	Transitions *prometheus.CounterVec

	// Composite risk levels assigned at stage completion
	CompositeLevel *prometheus.CounterVec

	// End-to-end stage execution latency, checks included
	ExecutionLatency prometheus.Histogram

	// Refused transition attempts
	InvalidTransitions prometheus.Counter
}

// New creates a Metrics instance with all stage pipeline metrics registered.
func New() *Metrics {
	return &Metrics{
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vetra_stage_transitions_total",
			Help: "Total stage transitions by source and target stage",
		}, []string{"from", "to"}),

		CompositeLevel: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vetra_stage_composite_levels_total",
			Help: "Composite risk levels assigned at stage completion",
		}, []string{"stage", "risk_level"}),

		ExecutionLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vetra_stage_execution_duration_seconds",
			Help:    "Duration of a full stage execution including checks and aggregation",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),

		InvalidTransitions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vetra_stage_invalid_transitions_total",
			Help: "Total refused stage transition attempts",
		}),
	}
}

// IncrementTransition records a committed stage transition.
func (m *Metrics) IncrementTransition(from, to string) {
	if m != nil {
		m.Transitions.WithLabelValues(from, to).Inc()
	}
}

// IncrementComposite records the risk level assigned at stage completion.
func (m *Metrics) IncrementComposite(stage, riskLevel string) {
	if m != nil {
		m.CompositeLevel.WithLabelValues(stage, riskLevel).Inc()
	}
}

// ObserveExecutionLatency records a full stage execution duration.
func (m *Metrics) ObserveExecutionLatency(d time.Duration) {
	if m != nil {
		m.ExecutionLatency.Observe(d.Seconds())
	}
}

// IncrementInvalidTransition records a refused transition attempt.
func (m *Metrics) IncrementInvalidTransition() {
	if m != nil {
		m.InvalidTransitions.Inc()
	}
}
