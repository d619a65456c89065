package payments

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/unieats/unieats-backend/internal/cart"
	"github.com/unieats/unieats-backend/internal/notify"
	"github.com/unieats/unieats-backend/internal/orders"
	"github.com/unieats/unieats-backend/pkg/db/models"
	"github.com/unieats/unieats-backend/pkg/enums"
	pkgerrors "github.com/unieats/unieats-backend/pkg/errors"
	"github.com/unieats/unieats-backend/pkg/metrics"
)

// txRunner abstracts transactional execution.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// verifier checks a gateway callback signature.
type verifier interface {
	VerifySignature(gatewayOrderID, paymentID, signature string) bool
}

// notifier is the realtime side channel.
type notifier interface {
	User(ctx context.Context, userID uuid.UUID, event string, payload any)
	Vendor(ctx context.Context, vendorID uuid.UUID, event string, payload any)
	Admin(ctx context.Context, event string, payload any)
}

// VerifyInput is the client's claim that a gateway payment went through.
type VerifyInput struct {
	GatewayOrderID   string `json:"gateway_order_id" validate:"required"`
	GatewayPaymentID string `json:"gateway_payment_id" validate:"required"`
	Signature        string `json:"signature" validate:"required"`
}

// Service finalizes payment state for UPI and gateway orders.
type Service interface {
	ConfirmUPI(ctx context.Context, userID, orderID uuid.UUID, reference string) (*models.Order, error)
	VerifyGateway(ctx context.Context, userID, orderID uuid.UUID, input VerifyInput) (*models.Order, error)
}

type service struct {
	repo    *orders.Repository
	carts   cart.Service
	verify  verifier
	tx      txRunner
	notif   notifier
	metrics *metrics.OrderMetrics
}

// NewService wires payment confirmation dependencies. Metrics may be nil,
// and the verifier may be nil when no gateway is configured; VerifyGateway
// then reports the gateway as unavailable.
func NewService(repo *orders.Repository, carts cart.Service, verify verifier, tx txRunner, notif notifier, m *metrics.OrderMetrics) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "orders repository required")
	}
	if carts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cart service required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if notif == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifier required")
	}
	return &service{repo: repo, carts: carts, verify: verify, tx: tx, notif: notif, metrics: m}, nil
}

// ConfirmUPI records a purchaser-supplied UPI transaction reference. The
// payment-status flip is a compare-and-set so a resubmitted form cannot
// double-process the order.
func (s *service) ConfirmUPI(ctx context.Context, userID, orderID uuid.UUID, reference string) (*models.Order, error) {
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction reference required")
	}

	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another purchaser")
	}
	if order.PaymentMethod != enums.PaymentMethodUPI {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order is not a UPI order")
	}
	if order.PaymentStatus == enums.PaymentStatusCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment already confirmed")
	}
	if order.PaymentStatus != enums.PaymentStatusPending || order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting payment")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND payment_status = ?", orderID, enums.PaymentStatusPending).
			Updates(map[string]any{
				"payment_status": enums.PaymentStatusCompleted,
				"upi_reference":  reference,
			})
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "confirm payment")
		}
		if res.RowsAffected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payment already confirmed")
		}
		if err := s.repo.AppendEventWithTx(tx, orderID, enums.OrderStatusPending); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status event")
		}
		// Confirmation, not placement, clears a UPI cart.
		return s.carts.ClearWithTx(tx, userID)
	})
	if err != nil {
		s.metrics.IncConfirmed(enums.PaymentMethodUPI.String(), "rejected")
		return nil, err
	}

	updated, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.metrics.IncConfirmed(enums.PaymentMethodUPI.String(), "completed")
	s.notif.Vendor(ctx, updated.VendorID, notify.EventOrderPlaced, confirmationPayload(updated))
	return updated, nil
}

// VerifyGateway is the trust boundary between "I paid" and a verified fact.
// The signature is recomputed server-side; a mismatch actively cancels the
// order rather than leaving an unverified claim pending.
func (s *service) VerifyGateway(ctx context.Context, userID, orderID uuid.UUID, input VerifyInput) (*models.Order, error) {
	if s.verify == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment gateway not configured")
	}
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another purchaser")
	}
	if !order.PaymentMethod.IsGateway() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order is not a gateway order")
	}
	if order.PaymentStatus == enums.PaymentStatusCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment already verified")
	}
	if order.GatewayOrderID == nil || *order.GatewayOrderID != input.GatewayOrderID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway order id does not match")
	}

	if !s.verify.VerifySignature(input.GatewayOrderID, input.GatewayPaymentID, input.Signature) {
		if err := s.failVerification(ctx, order); err != nil {
			return nil, err
		}
		s.metrics.IncConfirmed(order.PaymentMethod.String(), "signature_mismatch")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment signature verification failed")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND payment_status = ? AND status = ?",
				orderID, enums.PaymentStatusPending, enums.OrderStatusPaymentPending).
			Updates(map[string]any{
				"payment_status":     enums.PaymentStatusCompleted,
				"status":             enums.OrderStatusPending,
				"gateway_payment_id": input.GatewayPaymentID,
				"gateway_signature":  input.Signature,
			})
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "record verified payment")
		}
		if res.RowsAffected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting payment")
		}
		if err := s.repo.AppendEventWithTx(tx, orderID, enums.OrderStatusPending); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status event")
		}
		return s.carts.ClearWithTx(tx, userID)
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.metrics.IncConfirmed(updated.PaymentMethod.String(), "completed")
	payload := confirmationPayload(updated)
	s.notif.Vendor(ctx, updated.VendorID, notify.EventOrderPlaced, payload)
	s.notif.Admin(ctx, notify.EventPaymentUpdated, payload)
	return updated, nil
}

// failVerification marks the payment failed and cancels the order.
func (s *service) failVerification(ctx context.Context, order *models.Order) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND payment_status = ?", order.ID, enums.PaymentStatusPending).
			Updates(map[string]any{
				"payment_status": enums.PaymentStatusFailed,
				"status":         enums.OrderStatusCancelled,
			})
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "cancel unverified order")
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return s.repo.AppendEventWithTx(tx, order.ID, enums.OrderStatusCancelled)
	})
	if err != nil {
		return err
	}
	s.notif.User(ctx, order.UserID, notify.EventOrderCancelled, map[string]any{
		"order_id": order.ID,
		"reason":   "payment verification failed",
	})
	return nil
}

func (s *service) load(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func confirmationPayload(order *models.Order) map[string]any {
	return map[string]any{
		"order_id":       order.ID,
		"status":         order.Status,
		"payment_status": order.PaymentStatus,
		"total":          order.TotalPrice,
	}
}
