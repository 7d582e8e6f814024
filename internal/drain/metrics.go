package drain

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rzbill/serialflo/internal/stream"
)

// Metrics holds drain collectors. A nil *Metrics records nothing.
type Metrics struct {
	elements *prometheus.CounterVec
	drains   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the drain collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		elements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "serialflo",
			Subsystem: "drain",
			Name:      "elements_total",
			Help:      "List elements handled, by drain type and outcome.",
		}, []string{"type", "outcome"}),
		drains: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "serialflo",
			Subsystem: "drain",
			Name:      "runs_total",
			Help:      "Drain loops finished, by drain type and stop reason.",
		}, []string{"type", "reason"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "serialflo",
			Subsystem: "drain",
			Name:      "duration_seconds",
			Help:      "Wall time of one drain loop.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"type"}),
	}
	reg.MustRegister(m.elements, m.drains, m.duration)
	return m
}

func (m *Metrics) observeElement(t stream.MessageType, ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	m.elements.WithLabelValues(t.String(), outcome).Inc()
}

func (m *Metrics) observeDrain(t stream.MessageType, reason string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.drains.WithLabelValues(t.String(), reason).Inc()
	m.duration.WithLabelValues(t.String()).Observe(elapsed.Seconds())
}
