package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the producer counters. One Metrics value is shared by all
// producers in a process; labels carry the producer instance name.
type Metrics struct {
	EventsTotal        *prometheus.CounterVec
	CandidatesRejected *prometheus.CounterVec
	InputsStaged       *prometheus.CounterVec
	InputsDropped      *prometheus.CounterVec
	JetsProduced       *prometheus.CounterVec
	CorrectionSkipped  *prometheus.CounterVec
	ProduceDuration    *prometheus.HistogramVec
}

// DefaultProduceBuckets covers sub-millisecond to multi-second events.
var DefaultProduceBuckets = []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5}

// NewMetrics creates the producer metrics and registers them with reg.
// A nil reg leaves the collectors unregistered, which tests rely on.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jetreco",
			Name:      "events_total",
			Help:      "Events processed, by producer instance and outcome.",
		}, []string{"instance", "status"}),
		CandidatesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jetreco",
			Name:      "candidates_rejected_total",
			Help:      "Input candidates rejected during staging, by reason.",
		}, []string{"instance", "reason"}),
		InputsStaged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jetreco",
			Name:      "inputs_staged_total",
			Help:      "Inputs fed to the first clustering pass.",
		}, []string{"instance"}),
		InputsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jetreco",
			Name:      "inputs_dropped_by_subtraction_total",
			Help:      "Inputs removed because pedestal subtraction left no energy.",
		}, []string{"instance"}),
		JetsProduced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jetreco",
			Name:      "jets_produced_total",
			Help:      "Jet records published.",
		}, []string{"instance", "jet_type"}),
		CorrectionSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jetreco",
			Name:      "pileup_correction_skipped_total",
			Help:      "Events where configured pileup correction was skipped.",
		}, []string{"instance", "reason"}),
		ProduceDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "jetreco",
			Name:      "produce_duration_seconds",
			Help:      "Wall time of one Produce call.",
			Buckets:   DefaultProduceBuckets,
		}, []string{"instance"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.EventsTotal,
			m.CandidatesRejected,
			m.InputsStaged,
			m.InputsDropped,
			m.JetsProduced,
			m.CorrectionSkipped,
			m.ProduceDuration,
		)
	}
	return m
}

// ObserveProduce records the outcome and duration of one event.
func (m *Metrics) ObserveProduce(instance string, start time.Time, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.EventsTotal.WithLabelValues(instance, status).Inc()
	m.ProduceDuration.WithLabelValues(instance).Observe(time.Since(start).Seconds())
}
