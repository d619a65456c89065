package menu

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/unieats/unieats-backend/pkg/db/models"
)

// Repository handles menu item persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to menu operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID loads a menu item by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// ListByVendor returns a vendor's menu, optionally restricted to available items.
func (r *Repository) ListByVendor(ctx context.Context, vendorID uuid.UUID, availableOnly bool) ([]models.MenuItem, error) {
	query := r.db.WithContext(ctx).Where("vendor_id = ?", vendorID)
	if availableOnly {
		query = query.Where("available = ?", true)
	}
	var rows []models.MenuItem
	if err := query.Order("name asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Create persists a new menu item.
func (r *Repository) Create(ctx context.Context, item *models.MenuItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// Update saves the provided menu item.
func (r *Repository) Update(ctx context.Context, item *models.MenuItem) error {
	if item == nil {
		return gorm.ErrInvalidData
	}
	return r.db.WithContext(ctx).Save(item).Error
}
