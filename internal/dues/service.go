package dues

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/unieats/unieats-backend/internal/notify"
	"github.com/unieats/unieats-backend/pkg/db/models"
	"github.com/unieats/unieats-backend/pkg/enums"
	pkgerrors "github.com/unieats/unieats-backend/pkg/errors"
	"github.com/unieats/unieats-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type notifier interface {
	Vendor(ctx context.Context, vendorID uuid.UUID, event string, payload any)
	Admin(ctx context.Context, event string, payload any)
}

// RunResult summarizes one reconciliation pass.
type RunResult struct {
	DuesCreated   int
	OrdersStamped int
	DryRun        bool
}

// MarkPaidInput records an incoming payment against a settlement.
type MarkPaidInput struct {
	Amount         decimal.Decimal
	TransactionRef string
}

// Service reconciles unsettled vendor orders into dues and applies payments.
type Service interface {
	Run(ctx context.Context, dryRun bool) (*RunResult, error)
	Get(ctx context.Context, dueID uuid.UUID) (*models.VendorDue, error)
	List(ctx context.Context, vendorID uuid.UUID, status *enums.DueStatus) ([]models.VendorDue, error)
	MarkPaid(ctx context.Context, dueID uuid.UUID, in MarkPaidInput) (*models.VendorDue, error)
}

type service struct {
	repo  *Repository
	tx    txRunner
	notif notifier
	logg  *logger.Logger
}

// NewService wires the dues service dependencies.
func NewService(repo *Repository, tx txRunner, notif notifier, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "dues repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "dues transaction runner required")
	}
	if notif == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "dues notifier required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "dues logger required")
	}
	return &service{repo: repo, tx: tx, notif: notif, logg: logg}, nil
}

// Run performs one reconciliation pass. Each vendor settlement is created and
// its orders stamped inside a single transaction, so a crash mid-pass leaves
// earlier settlements intact and later orders still eligible, never half-done.
func (s *service) Run(ctx context.Context, dryRun bool) (*RunResult, error) {
	rows, err := s.repo.ListUnsettled(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing unsettled orders")
	}

	settlements := BuildSettlements(rows)
	result := &RunResult{DryRun: dryRun}
	if dryRun {
		for _, st := range settlements {
			result.DuesCreated++
			result.OrdersStamped += len(st.OrderIDs)
		}
		return result, nil
	}

	for _, st := range settlements {
		due := &models.VendorDue{
			ID:          uuid.New(),
			VendorID:    st.VendorID,
			PeriodStart: st.PeriodStart,
			PeriodEnd:   st.PeriodEnd,
			AmountDue:   st.AmountDue,
			AmountPaid:  decimal.Zero,
			OrderCount:  st.OrderCount,
			Status:      enums.DueStatusPending,
		}
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			if err := s.repo.CreateWithTx(tx, due); err != nil {
				return err
			}
			affected, err := s.repo.StampOrdersWithTx(tx, due.ID, st.OrderIDs)
			if err != nil {
				return err
			}
			if affected != int64(len(st.OrderIDs)) {
				return pkgerrors.New(pkgerrors.CodeStateConflict,
					fmt.Sprintf("settlement claimed %d of %d orders for vendor %s", affected, len(st.OrderIDs), st.VendorID))
			}
			return nil
		})
		if err != nil {
			// A conflicting run already claimed part of the batch; skip this
			// vendor and let the next pass pick up whatever is still free.
			lctx := s.logg.WithFields(ctx, map[string]any{
				"vendor_id": st.VendorID.String(),
				"error":     err.Error(),
			})
			s.logg.Warn(lctx, "skipping vendor settlement")
			continue
		}
		result.DuesCreated++
		result.OrdersStamped += len(st.OrderIDs)
		s.notif.Vendor(ctx, st.VendorID, notify.EventDueCreated, due)
	}
	return result, nil
}

func (s *service) Get(ctx context.Context, dueID uuid.UUID) (*models.VendorDue, error) {
	due, err := s.repo.FindByID(ctx, dueID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "due not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading due")
	}
	return due, nil
}

func (s *service) List(ctx context.Context, vendorID uuid.UUID, status *enums.DueStatus) ([]models.VendorDue, error) {
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid due status %q", *status))
	}
	rows, err := s.repo.List(ctx, vendorID, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing dues")
	}
	return rows, nil
}

// MarkPaid accumulates an incoming payment. The running total never resets;
// the due flips to paid exactly when it covers the amount due.
func (s *service) MarkPaid(ctx context.Context, dueID uuid.UUID, in MarkPaidInput) (*models.VendorDue, error) {
	if in.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}
	due, err := s.Get(ctx, dueID)
	if err != nil {
		return nil, err
	}
	switch due.Status {
	case enums.DueStatusPaid:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "due already paid")
	case enums.DueStatusCancelled:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "due is cancelled")
	}

	due.AmountPaid = due.AmountPaid.Add(in.Amount).Round(2)
	if in.TransactionRef != "" {
		due.TransactionRef = &in.TransactionRef
	}
	if due.AmountPaid.GreaterThanOrEqual(due.AmountDue) {
		due.Status = enums.DueStatusPaid
		now := time.Now().UTC()
		due.ClearedAt = &now
	} else {
		due.Status = enums.DueStatusPartial
	}
	if err := s.repo.Update(ctx, due); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving due payment")
	}
	if due.Status == enums.DueStatusPaid {
		s.notif.Vendor(ctx, due.VendorID, notify.EventDueSettled, due)
		s.notif.Admin(ctx, notify.EventDueSettled, due)
	}
	return due, nil
}
