package metrics

import "github.com/prometheus/client_golang/prometheus"

// OrderMetrics tracks order placement and payment confirmation outcomes.
type OrderMetrics struct {
	placed     *prometheus.CounterVec
	confirmed  *prometheus.CounterVec
	transition *prometheus.CounterVec
}

// NewOrderMetrics registers the order flow metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	placed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "unieats",
		Name:      "orders_placed_total",
		Help:      "Orders placed, labeled by payment method.",
	}, []string{"method"})
	confirmed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "unieats",
		Name:      "payments_confirmed_total",
		Help:      "Payment confirmations, labeled by method and result.",
	}, []string{"method", "result"})
	transition := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "unieats",
		Name:      "order_transitions_total",
		Help:      "Order status transitions, labeled by target status.",
	}, []string{"status"})
	reg.MustRegister(placed, confirmed, transition)
	return &OrderMetrics{
		placed:     placed,
		confirmed:  confirmed,
		transition: transition,
	}
}

// IncPlaced counts a placed order for the given payment method.
func (o *OrderMetrics) IncPlaced(method string) {
	if o == nil || o.placed == nil {
		return
	}
	o.placed.WithLabelValues(normalizeLabel(method)).Inc()
}

// IncConfirmed counts a payment confirmation outcome.
func (o *OrderMetrics) IncConfirmed(method, result string) {
	if o == nil || o.confirmed == nil {
		return
	}
	o.confirmed.WithLabelValues(normalizeLabel(method), normalizeLabel(result)).Inc()
}

// IncTransition counts an order status transition.
func (o *OrderMetrics) IncTransition(status string) {
	if o == nil || o.transition == nil {
		return
	}
	o.transition.WithLabelValues(normalizeLabel(status)).Inc()
}
