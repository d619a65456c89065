package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/unieats/unieats-backend/internal/notify"
	"github.com/unieats/unieats-backend/pkg/db/models"
	"github.com/unieats/unieats-backend/pkg/enums"
	pkgerrors "github.com/unieats/unieats-backend/pkg/errors"
	"github.com/unieats/unieats-backend/pkg/metrics"
	"github.com/unieats/unieats-backend/pkg/pagination"
)

// txRunner abstracts transactional execution.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// notifier is the realtime side channel; publishing never fails the caller.
type notifier interface {
	User(ctx context.Context, userID uuid.UUID, event string, payload any)
	Vendor(ctx context.Context, vendorID uuid.UUID, event string, payload any)
	Admin(ctx context.Context, event string, payload any)
}

// ListResult wraps returned orders and the cursor for the next page.
type ListResult struct {
	Items  []models.Order `json:"items"`
	Cursor string         `json:"cursor"`
}

// Service exposes order reads and vendor-driven status transitions.
type Service interface {
	GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	GetForVendor(ctx context.Context, vendorID, orderID uuid.UUID) (*models.Order, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*ListResult, error)
	ListForVendor(ctx context.Context, vendorID uuid.UUID, status *enums.OrderStatus, params pagination.Params) (*ListResult, error)
	Transition(ctx context.Context, vendorID, orderID uuid.UUID, target enums.OrderStatus) (*models.Order, error)
}

type service struct {
	repo    *Repository
	tx      txRunner
	notif   notifier
	metrics *metrics.OrderMetrics
	now     func() time.Time
}

// NewService wires order dependencies. Metrics may be nil.
func NewService(repo *Repository, tx txRunner, notif notifier, m *metrics.OrderMetrics) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "orders repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if notif == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifier required")
	}
	return &service{repo: repo, tx: tx, notif: notif, metrics: m, now: time.Now}, nil
}

func (s *service) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) GetForVendor(ctx context.Context, vendorID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.VendorID != vendorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another vendor")
	}
	return order, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*ListResult, error) {
	return s.list(ctx, listFilter{UserID: userID}, params)
}

func (s *service) ListForVendor(ctx context.Context, vendorID uuid.UUID, status *enums.OrderStatus, params pagination.Params) (*ListResult, error) {
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown status %q", *status))
	}
	return s.list(ctx, listFilter{VendorID: vendorID, Status: status}, params)
}

func (s *service) list(ctx context.Context, filter listFilter, params pagination.Params) (*ListResult, error) {
	filter.Limit = pagination.LimitWithBuffer(params.Limit)
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		filter.Cursor = cursor
	}

	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	items, next := pagination.Trim(rows, params.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	return &ListResult{Items: items, Cursor: next}, nil
}

// Transition applies a vendor-requested status change. The write is an atomic
// compare-and-set on the current status, so two racing requests cannot both
// advance the order.
func (s *service) Transition(ctx context.Context, vendorID, orderID uuid.UUID, target enums.OrderStatus) (*models.Order, error) {
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown status %q", target))
	}

	order, err := s.get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.VendorID != vendorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another vendor")
	}
	from := order.Status
	if !CanTransition(from, target) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot transition order from %s to %s", from, target))
	}

	now := s.now().UTC()
	stamps := statusStamps{}
	switch target {
	case enums.OrderStatusPreparing:
		stamps.AcceptedAt = &now
	case enums.OrderStatusReady:
		stamps.ReadyAt = &now
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		affected, err := s.repo.UpdateStatusConditional(tx, orderID, from, target, stamps)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("order no longer in status %s", from))
		}
		if err := s.repo.AppendEventWithTx(tx, orderID, target); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status event")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(target.String())
	payload := transitionPayload(updated)
	s.notif.Vendor(ctx, updated.VendorID, notify.EventOrderUpdated, payload)
	s.notif.User(ctx, updated.UserID, notify.EventOrderUpdated, payload)
	return updated, nil
}

func (s *service) get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func transitionPayload(order *models.Order) map[string]any {
	return map[string]any{
		"order_id": order.ID,
		"status":   order.Status,
	}
}
