package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/unieats/unieats-backend/pkg/db/models"
	"github.com/unieats/unieats-backend/pkg/enums"
	"github.com/unieats/unieats-backend/pkg/pagination"
)

// Repository handles order persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to order operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID loads an order with its items and status history.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return findByID(r.db.WithContext(ctx), id)
}

// FindByIDWithTx loads an order using the provided transaction.
func (r *Repository) FindByIDWithTx(tx *gorm.DB, id uuid.UUID) (*models.Order, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	return findByID(tx, id)
}

func findByID(db *gorm.DB, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := db.
		Preload("Items").
		Preload("StatusEvents", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at asc")
		}).
		First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// listFilter narrows order list queries.
type listFilter struct {
	UserID   uuid.UUID
	VendorID uuid.UUID
	Status   *enums.OrderStatus
	Limit    int
	Cursor   *pagination.Cursor
}

// List returns orders newest-first with keyset pagination.
func (r *Repository) List(ctx context.Context, filter listFilter) ([]models.Order, error) {
	query := r.db.WithContext(ctx).Preload("Items")
	if filter.UserID != uuid.Nil {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.VendorID != uuid.Nil {
		query = query.Where("vendor_id = ?", filter.VendorID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			filter.Cursor.CreatedAt, filter.Cursor.CreatedAt, filter.Cursor.ID,
		)
	}
	var rows []models.Order
	if err := query.
		Order("created_at desc").
		Order("id desc").
		Limit(filter.Limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CreateWithTx persists a new order together with its line items.
func (r *Repository) CreateWithTx(tx *gorm.DB, order *models.Order) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.Create(order).Error
}

// DeleteWithTx removes an order and its children. Used only by the placement
// orchestrator's compensating action after a gateway failure.
func (r *Repository) DeleteWithTx(tx *gorm.DB, id uuid.UUID) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if err := tx.Delete(&models.OrderStatusEvent{}, "order_id = ?", id).Error; err != nil {
		return err
	}
	if err := tx.Delete(&models.OrderItem{}, "order_id = ?", id).Error; err != nil {
		return err
	}
	return tx.Delete(&models.Order{}, "id = ?", id).Error
}

// statusStamps carries the column updates applied together with a transition.
type statusStamps struct {
	AcceptedAt *time.Time
	ReadyAt    *time.Time
}

// UpdateStatusConditional performs the atomic compare-and-set transition:
// the row only changes when it still holds the expected current status.
// Returns the number of rows updated (0 means a concurrent request won).
func (r *Repository) UpdateStatusConditional(tx *gorm.DB, id uuid.UUID, from, to enums.OrderStatus, stamps statusStamps) (int64, error) {
	if tx == nil {
		return 0, gorm.ErrInvalidTransaction
	}
	updates := map[string]any{"status": to}
	if stamps.AcceptedAt != nil {
		updates["accepted_at"] = *stamps.AcceptedAt
	}
	if stamps.ReadyAt != nil {
		updates["ready_at"] = *stamps.ReadyAt
	}
	res := tx.Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// AppendEventWithTx adds one row to the append-only status history.
func (r *Repository) AppendEventWithTx(tx *gorm.DB, orderID uuid.UUID, status enums.OrderStatus) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	event := &models.OrderStatusEvent{
		ID:      uuid.New(),
		OrderID: orderID,
		Status:  status,
	}
	return tx.Create(event).Error
}
