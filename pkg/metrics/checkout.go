package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records quote and order activity.
type CheckoutMetrics struct {
	orders prometheus.Counter
	promos *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	orders := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_orders_total",
		Help: "Orders committed through checkout.",
	})
	promos := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_promo_results_total",
		Help: "Promo code evaluations by result.",
	}, []string{"result"})
	reg.MustRegister(orders, promos)
	return &CheckoutMetrics{orders: orders, promos: promos}
}

// IncOrders counts a committed order.
func (m *CheckoutMetrics) IncOrders() {
	if m == nil || m.orders == nil {
		return
	}
	m.orders.Inc()
}

// IncPromoResult counts a promo evaluation outcome (applied, rejected reason).
func (m *CheckoutMetrics) IncPromoResult(result string) {
	if m == nil || m.promos == nil {
		return
	}
	m.promos.WithLabelValues(normalizeLabel(result)).Inc()
}
