package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/unieats/unieats-backend/pkg/db/models"
)

// Repository handles cart persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to cart operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByUser loads the purchaser's cart with its items.
func (r *Repository) FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	return findByUser(r.db.WithContext(ctx), userID)
}

// FindByUserWithTx loads the purchaser's cart using the provided transaction.
func (r *Repository) FindByUserWithTx(tx *gorm.DB, userID uuid.UUID) (*models.Cart, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	return findByUser(tx, userID)
}

func findByUser(db *gorm.DB, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	if err := db.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at asc")
		}).
		First(&cart, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// CreateWithTx persists a new cart and its items.
func (r *Repository) CreateWithTx(tx *gorm.DB, cart *models.Cart) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.Create(cart).Error
}

// SaveWithTx persists cart header fields (vendor, totals).
func (r *Repository) SaveWithTx(tx *gorm.DB, cart *models.Cart) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.Omit("Items").Save(cart).Error
}

// SaveItemWithTx persists a single cart line.
func (r *Repository) SaveItemWithTx(tx *gorm.DB, item *models.CartItem) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.Save(item).Error
}

// DeleteItemWithTx removes a single cart line.
func (r *Repository) DeleteItemWithTx(tx *gorm.DB, itemID uuid.UUID) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.Delete(&models.CartItem{}, "id = ?", itemID).Error
}

// DeleteByUserWithTx removes the purchaser's cart and all its lines.
func (r *Repository) DeleteByUserWithTx(tx *gorm.DB, userID uuid.UUID) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	var cart models.Cart
	if err := tx.First(&cart, "user_id = ?", userID).Error; err != nil {
		return err
	}
	if err := tx.Delete(&models.CartItem{}, "cart_id = ?", cart.ID).Error; err != nil {
		return err
	}
	return tx.Delete(&models.Cart{}, "id = ?", cart.ID).Error
}
