// Package metrics records per-turn Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Recorder struct {
	turnsTotal      *prometheus.CounterVec
	actionDuration  *prometheus.HistogramVec
	stateDegraded   *prometheus.CounterVec
	summaryDegraded prometheus.Counter
}

// NewRecorder registers the bot metrics with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		turnsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cvbot_turns_total",
				Help: "Messages handled, by resolved intent and outcome",
			},
			[]string{"intent", "rule", "outcome"},
		),
		actionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cvbot_action_duration_seconds",
				Help:    "Duration of action runs from extraction to upload",
				Buckets: []float64{1, 2.5, 5, 10, 20, 30, 60, 120, 180},
			},
			[]string{"action", "outcome"},
		),
		stateDegraded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cvbot_state_store_degraded_total",
				Help: "State store calls that failed and were skipped",
			},
			[]string{"op"},
		),
		summaryDegraded: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "cvbot_summary_degraded_total",
				Help: "Results delivered without a candidate summary",
			},
		),
	}
}

func (r *Recorder) ObserveTurn(intent, rule, outcome string) {
	r.turnsTotal.WithLabelValues(intent, rule, outcome).Inc()
}

func (r *Recorder) ObserveAction(action, outcome string, elapsed time.Duration) {
	r.actionDuration.WithLabelValues(action, outcome).Observe(elapsed.Seconds())
}

func (r *Recorder) StateStoreDegraded(op string) {
	r.stateDegraded.WithLabelValues(op).Inc()
}

func (r *Recorder) SummaryDegraded() {
	r.summaryDegraded.Inc()
}
