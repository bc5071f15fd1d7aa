// Package metrics provides Prometheus-based metrics recording for
// optimization and clarification outcomes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder records optimizer and workflow metrics. It satisfies
// budget.MetricsRecorder and clarify.SessionMetricsRecorder.
type Recorder struct {
	optimizationsTotal *prometheus.CounterVec
	tokensSavedTotal   prometheus.Counter
	sessionsTotal      *prometheus.CounterVec
	sessionRounds      prometheus.Histogram
	sessionConfidence  prometheus.Histogram
}

// NewRecorder creates a recorder registered with the default registry.
func NewRecorder() *Recorder {
	return NewRecorderWith(prometheus.DefaultRegisterer)
}

// NewRecorderWith creates a recorder registered with the given registerer.
// Tests pass a fresh registry to avoid duplicate registration panics.
func NewRecorderWith(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		optimizationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oos_optimizations_total",
				Help: "Total number of context optimizations by resulting strategy",
			},
			[]string{"strategy"},
		),
		tokensSavedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "oos_tokens_saved_total",
				Help: "Total estimated tokens removed by context optimization",
			},
		),
		sessionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oos_clarify_sessions_total",
				Help: "Total number of completed clarification sessions by outcome",
			},
			[]string{"outcome"},
		),
		sessionRounds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "oos_clarify_rounds",
				Help:    "Refinement rounds per completed clarification session",
				Buckets: []float64{0, 1, 2, 3},
			},
		),
		sessionConfidence: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "oos_clarify_final_confidence",
				Help:    "Final confidence of completed clarification sessions",
				Buckets: prometheus.LinearBuckets(0, 0.1, 11),
			},
		),
	}
}

// ObserveOptimization records one optimization outcome.
func (r *Recorder) ObserveOptimization(strategy string, originalTokens, optimizedTokens int) {
	r.optimizationsTotal.WithLabelValues(strategy).Inc()
	if saved := originalTokens - optimizedTokens; saved > 0 {
		r.tokensSavedTotal.Add(float64(saved))
	}
}

// ObserveSession records one completed clarification session.
func (r *Recorder) ObserveSession(outcome string, rounds int, confidence float64) {
	r.sessionsTotal.WithLabelValues(outcome).Inc()
	r.sessionRounds.Observe(float64(rounds))
	r.sessionConfidence.Observe(confidence)
}
