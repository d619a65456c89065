package menu

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/unieats/unieats-backend/pkg/db/models"
	pkgerrors "github.com/unieats/unieats-backend/pkg/errors"
)

// CreateItemInput is the vendor-supplied shape for a new menu item.
type CreateItemInput struct {
	Name      string          `json:"name" validate:"required"`
	Price     decimal.Decimal `json:"price" validate:"required"`
	Available *bool           `json:"available"`
}

// Service exposes menu reads for purchasers and writes for vendors.
type Service interface {
	GetItem(ctx context.Context, id uuid.UUID) (*models.MenuItem, error)
	ListForVendor(ctx context.Context, vendorID uuid.UUID, availableOnly bool) ([]models.MenuItem, error)
	CreateItem(ctx context.Context, vendorID uuid.UUID, input CreateItemInput) (*models.MenuItem, error)
	SetAvailability(ctx context.Context, vendorID, itemID uuid.UUID, available bool) (*models.MenuItem, error)
}

type service struct {
	repo *Repository
}

// NewService wires menu dependencies.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "menu repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetItem(ctx context.Context, id uuid.UUID) (*models.MenuItem, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load menu item")
	}
	return item, nil
}

func (s *service) ListForVendor(ctx context.Context, vendorID uuid.UUID, availableOnly bool) ([]models.MenuItem, error) {
	rows, err := s.repo.ListByVendor(ctx, vendorID, availableOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list menu items")
	}
	return rows, nil
}

func (s *service) CreateItem(ctx context.Context, vendorID uuid.UUID, input CreateItemInput) (*models.MenuItem, error) {
	if input.Price.LessThan(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	item := &models.MenuItem{
		ID:        uuid.New(),
		VendorID:  vendorID,
		Name:      input.Name,
		Price:     input.Price.Round(2),
		Available: true,
	}
	if input.Available != nil {
		item.Available = *input.Available
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create menu item")
	}
	return item, nil
}

func (s *service) SetAvailability(ctx context.Context, vendorID, itemID uuid.UUID, available bool) (*models.MenuItem, error) {
	item, err := s.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.VendorID != vendorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "menu item belongs to another vendor")
	}
	item.Available = available
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update menu item")
	}
	return item, nil
}
