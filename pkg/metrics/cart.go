package metrics

import "github.com/prometheus/client_golang/prometheus"

// CartMetrics counts cart mutations and failed slot writes.
type CartMetrics struct {
	mutations *prometheus.CounterVec
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart mutations by operation and result.",
	}, []string{"op", "result"})
	reg.MustRegister(mutations)
	return &CartMetrics{mutations: mutations}
}

// ObserveMutation records one cart mutation; ok is false when persisting failed.
func (c *CartMetrics) ObserveMutation(op string, ok bool) {
	if c == nil || c.mutations == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "storage_failure"
	}
	c.mutations.WithLabelValues(normalizeLabel(op), result).Inc()
}
