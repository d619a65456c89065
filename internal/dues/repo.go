package dues

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/unieats/unieats-backend/pkg/db/models"
	"github.com/unieats/unieats-backend/pkg/enums"
)

// Repository handles settlement persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to settlement operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListUnsettled returns every delivered COD/UPI order with no settlement
// marker yet, projected down to the fields the grouping needs.
func (r *Repository) ListUnsettled(ctx context.Context) ([]UnsettledOrder, error) {
	var orders []models.Order
	if err := r.db.WithContext(ctx).
		Where("status = ?", enums.OrderStatusDelivered).
		Where("payment_method IN ?", []enums.PaymentMethod{
			enums.PaymentMethodCOD, enums.PaymentMethodUPI,
		}).
		Where("due_id IS NULL").
		Order("created_at asc").
		Find(&orders).Error; err != nil {
		return nil, err
	}

	rows := make([]UnsettledOrder, 0, len(orders))
	for _, o := range orders {
		row := UnsettledOrder{
			OrderID:   o.ID,
			VendorID:  o.VendorID,
			CreatedAt: o.CreatedAt,
		}
		if o.VendorOwes != nil {
			row.Owes = *o.VendorOwes
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// CreateWithTx persists a new settlement record.
func (r *Repository) CreateWithTx(tx *gorm.DB, due *models.VendorDue) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.Create(due).Error
}

// StampOrdersWithTx sets the settlement marker on the included orders. The
// guard on due_id IS NULL means a row claimed by a concurrent run is simply
// not updated; the caller compares RowsAffected to the expected count.
func (r *Repository) StampOrdersWithTx(tx *gorm.DB, dueID uuid.UUID, orderIDs []uuid.UUID) (int64, error) {
	if tx == nil {
		return 0, gorm.ErrInvalidTransaction
	}
	res := tx.Model(&models.Order{}).
		Where("id IN ? AND due_id IS NULL", orderIDs).
		Update("due_id", dueID)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// FindByID loads a settlement with its included orders.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.VendorDue, error) {
	var due models.VendorDue
	if err := r.db.WithContext(ctx).
		Preload("Orders").
		First(&due, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &due, nil
}

// List returns settlements newest-first, optionally filtered.
func (r *Repository) List(ctx context.Context, vendorID uuid.UUID, status *enums.DueStatus) ([]models.VendorDue, error) {
	query := r.db.WithContext(ctx)
	if vendorID != uuid.Nil {
		query = query.Where("vendor_id = ?", vendorID)
	}
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var rows []models.VendorDue
	if err := query.Order("created_at desc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Update saves the provided settlement.
func (r *Repository) Update(ctx context.Context, due *models.VendorDue) error {
	if due == nil {
		return gorm.ErrInvalidData
	}
	return r.db.WithContext(ctx).Save(due).Error
}
