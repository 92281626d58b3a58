// Package metrics registers the engine's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PredictionsTotal counts successful prediction requests.
	PredictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "irrigation_predictions_total",
		Help: "Total number of irrigation predictions computed.",
	})

	// PredictionFailures counts failed prediction requests.
	PredictionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "irrigation_prediction_failures_total",
		Help: "Total number of failed irrigation predictions.",
	})

	// InferenceDuration observes the latency of a single model inference.
	InferenceDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "irrigation_inference_duration_seconds",
		Help:    "Duration of a single model inference.",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	})

	// ScheduleTransitions counts schedule lifecycle transitions by target status.
	ScheduleTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "irrigation_schedule_transitions_total",
		Help: "Total number of schedule status transitions.",
	}, []string{"to_status"})

	// TransitionConflicts counts compare-and-swap losses on schedule transitions.
	TransitionConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "irrigation_schedule_transition_conflicts_total",
		Help: "Total number of schedule transitions lost to a concurrent writer.",
	})
)
