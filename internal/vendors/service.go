package vendors

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/unieats/unieats-backend/pkg/db/models"
	pkgerrors "github.com/unieats/unieats-backend/pkg/errors"
)

// Service exposes vendor lookups and profile updates.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
	ListOpen(ctx context.Context) ([]models.Vendor, error)
	CommissionActive(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
	SetOpen(ctx context.Context, id uuid.UUID, open bool) (*models.Vendor, error)
	SetUPIID(ctx context.Context, id uuid.UUID, upiID string) (*models.Vendor, error)
}

type service struct {
	repo *Repository
}

// NewService wires vendor dependencies.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "vendors repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	vendor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
	}
	return vendor, nil
}

func (s *service) ListOpen(ctx context.Context) ([]models.Vendor, error) {
	rows, err := s.repo.ListOpen(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendors")
	}
	return rows, nil
}

// CommissionActive reports whether commission applies to the vendor's orders:
// commission is waived only while the trial is active.
func (s *service) CommissionActive(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	vendor, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return !vendor.IsTrialActive(now), nil
}

func (s *service) SetOpen(ctx context.Context, id uuid.UUID, open bool) (*models.Vendor, error) {
	vendor, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	vendor.IsOpen = open
	if err := s.repo.Update(ctx, vendor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update vendor")
	}
	return vendor, nil
}

func (s *service) SetUPIID(ctx context.Context, id uuid.UUID, upiID string) (*models.Vendor, error) {
	if upiID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "upi id required")
	}
	vendor, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	vendor.UPIID = &upiID
	if err := s.repo.Update(ctx, vendor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update vendor")
	}
	return vendor, nil
}
