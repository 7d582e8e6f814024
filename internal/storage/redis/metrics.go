package redisstore

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PromMetrics records command latency per label and outcome.
type PromMetrics struct {
	latency *prometheus.HistogramVec
}

// NewPromMetrics registers the store collectors on reg.
func NewPromMetrics(reg prometheus.Registerer) *PromMetrics {
	m := &PromMetrics{
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "serialflo",
			Subsystem: "redis",
			Name:      "command_duration_seconds",
			Help:      "Latency of labelled Redis commands.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"command", "outcome"}),
	}
	reg.MustRegister(m.latency)
	return m
}

func (m *PromMetrics) ObserveCommand(label string, elapsed time.Duration, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case IsNotFound(err):
		outcome = "absent"
	default:
		outcome = "error"
	}
	m.latency.WithLabelValues(label, outcome).Observe(elapsed.Seconds())
}
