package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/unieats/unieats-backend/pkg/enums"
)

func TestCanTransitionLegalGraph(t *testing.T) {
	legal := []struct{ from, to enums.OrderStatus }{
		{enums.OrderStatusPending, enums.OrderStatusPreparing},
		{enums.OrderStatusPending, enums.OrderStatusCancelled},
		{enums.OrderStatusPreparing, enums.OrderStatusReady},
		{enums.OrderStatusReady, enums.OrderStatusOutForDelivery},
		{enums.OrderStatusReady, enums.OrderStatusDelivered},
		{enums.OrderStatusOutForDelivery, enums.OrderStatusDelivered},
	}
	for _, tc := range legal {
		assert.True(t, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestCanTransitionRejectsEverythingElse(t *testing.T) {
	all := []enums.OrderStatus{
		enums.OrderStatusPaymentPending,
		enums.OrderStatusPending,
		enums.OrderStatusPreparing,
		enums.OrderStatusReady,
		enums.OrderStatusOutForDelivery,
		enums.OrderStatusDelivered,
		enums.OrderStatusCancelled,
	}
	legal := map[string]bool{}
	for _, tc := range []struct{ from, to enums.OrderStatus }{
		{enums.OrderStatusPending, enums.OrderStatusPreparing},
		{enums.OrderStatusPending, enums.OrderStatusCancelled},
		{enums.OrderStatusPreparing, enums.OrderStatusReady},
		{enums.OrderStatusReady, enums.OrderStatusOutForDelivery},
		{enums.OrderStatusReady, enums.OrderStatusDelivered},
		{enums.OrderStatusOutForDelivery, enums.OrderStatusDelivered},
	} {
		legal[tc.from.String()+">"+tc.to.String()] = true
	}

	for _, from := range all {
		for _, to := range all {
			if legal[from.String()+">"+to.String()] {
				continue
			}
			assert.False(t, CanTransition(from, to), "%s -> %s must be illegal", from, to)
		}
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	assert.Empty(t, AllowedNext(enums.OrderStatusDelivered))
	assert.Empty(t, AllowedNext(enums.OrderStatusCancelled))
	// Vendors cannot move payment_pending; only payment confirmation can.
	assert.Empty(t, AllowedNext(enums.OrderStatusPaymentPending))
}
