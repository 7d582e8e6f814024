package consumer

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds consumer collectors. A nil *Metrics records nothing.
type Metrics struct {
	entries    *prometheus.CounterVec
	readErrors prometheus.Counter
	reclaimed  prometheus.Counter
}

// NewMetrics registers the consumer collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		entries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "serialflo",
			Subsystem: "consumer",
			Name:      "entries_total",
			Help:      "Stream entries seen by workers, by outcome.",
		}, []string{"outcome"}),
		readErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "serialflo",
			Subsystem: "consumer",
			Name:      "read_errors_total",
			Help:      "Failed blocking reads.",
		}),
		reclaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "serialflo",
			Subsystem: "consumer",
			Name:      "reclaimed_total",
			Help:      "Idle pending entries acknowledged by the reclaimer.",
		}),
	}
	reg.MustRegister(m.entries, m.readErrors, m.reclaimed)
	return m
}

func (m *Metrics) entry(outcome string) {
	if m != nil {
		m.entries.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) readError() {
	if m != nil {
		m.readErrors.Inc()
	}
}

func (m *Metrics) reclaim(n int64) {
	if m != nil {
		m.reclaimed.Add(float64(n))
	}
}
