// Package metrics owns the Prometheus collectors for chat resolution.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "chatrelay"

// Metrics groups the collectors. A nil *Metrics is valid and records nothing,
// which keeps tests that don't care about metrics free of registry setup.
type Metrics struct {
	attempts        *prometheus.CounterVec
	attemptDuration *prometheus.HistogramVec
	replies         *prometheus.CounterVec
	invalidRequests prometheus.Counter
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_attempts_total",
			Help:      "Candidate model attempts by outcome (success, empty, error).",
		}, []string{"model", "outcome"}),
		attemptDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_attempt_duration_seconds",
			Help:      "Wall time of a single candidate model attempt.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30},
		}, []string{"model"}),
		replies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replies_total",
			Help:      "Chat replies by source (provider, echo, fallback).",
		}, []string{"source"}),
		invalidRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invalid_requests_total",
			Help:      "Chat requests rejected with 400.",
		}),
	}
	reg.MustRegister(m.attempts, m.attemptDuration, m.replies, m.invalidRequests)
	return m
}

// ObserveAttempt records one candidate attempt.
func (m *Metrics) ObserveAttempt(model, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(model, outcome).Inc()
	m.attemptDuration.WithLabelValues(model).Observe(elapsed.Seconds())
}

// ObserveReply records which path produced a reply.
func (m *Metrics) ObserveReply(source string) {
	if m == nil {
		return
	}
	m.replies.WithLabelValues(source).Inc()
}

// ObserveInvalidRequest counts a rejected request.
func (m *Metrics) ObserveInvalidRequest() {
	if m == nil {
		return
	}
	m.invalidRequests.Inc()
}
