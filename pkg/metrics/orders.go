package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Submit outcomes used as the "outcome" label.
const (
	OutcomeSuccess   = "success"
	OutcomeEmptyCart = "empty_cart"
	OutcomeConflict  = "conflict"
	OutcomeError     = "error"
)

// OrderMetrics records order submission behaviour, including how often the
// numbering transaction has to be replayed.
type OrderMetrics struct {
	duration  *prometheus.HistogramVec
	submitted *prometheus.CounterVec
	attempts  prometheus.Counter
	conflicts prometheus.Counter
}

// NewOrderMetrics registers the order metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "order_submit_duration_seconds",
		Help:    "Duration of order submissions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	submitted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_submissions_total",
		Help: "Order submissions by outcome.",
	}, []string{"outcome"})
	attempts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_tx_attempts_total",
		Help: "Order numbering transaction attempts.",
	})
	conflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_tx_conflicts_total",
		Help: "Order numbering transaction attempts lost to a concurrent writer.",
	})
	reg.MustRegister(duration, submitted, attempts, conflicts)
	return &OrderMetrics{
		duration:  duration,
		submitted: submitted,
		attempts:  attempts,
		conflicts: conflicts,
	}
}

// ObserveSubmit records the outcome and latency of one submission.
func (o *OrderMetrics) ObserveSubmit(outcome string, elapsed time.Duration) {
	if o == nil || o.submitted == nil {
		return
	}
	outcome = normalizeLabel(outcome)
	o.submitted.WithLabelValues(outcome).Inc()
	o.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// IncAttempt counts one numbering transaction attempt.
func (o *OrderMetrics) IncAttempt() {
	if o == nil || o.attempts == nil {
		return
	}
	o.attempts.Inc()
}

// IncConflict counts one attempt lost to a concurrent writer.
func (o *OrderMetrics) IncConflict() {
	if o == nil || o.conflicts == nil {
		return
	}
	o.conflicts.Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
