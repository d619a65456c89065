package orders

import "github.com/unieats/unieats-backend/pkg/enums"

// transitions is the legal status graph for vendor-driven changes.
// payment_pending -> pending is deliberately absent: that edge belongs to the
// payment confirmation handlers, not to vendor action.
var transitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:        {enums.OrderStatusPreparing, enums.OrderStatusCancelled},
	enums.OrderStatusPreparing:      {enums.OrderStatusReady},
	enums.OrderStatusReady:          {enums.OrderStatusOutForDelivery, enums.OrderStatusDelivered},
	enums.OrderStatusOutForDelivery: {enums.OrderStatusDelivered},
	enums.OrderStatusDelivered:      {},
	enums.OrderStatusCancelled:      {},
	enums.OrderStatusPaymentPending: {},
}

// CanTransition reports whether from -> to is a legal vendor transition.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AllowedNext returns the legal targets from the given status.
func AllowedNext(from enums.OrderStatus) []enums.OrderStatus {
	next := transitions[from]
	out := make([]enums.OrderStatus, len(next))
	copy(out, next)
	return out
}
