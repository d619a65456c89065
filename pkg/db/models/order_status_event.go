package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/unieats/unieats-backend/pkg/enums"
)

// OrderStatusEvent is one entry in an order's append-only status history.
// Rows are only ever inserted, never updated or deleted.
type OrderStatusEvent struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	Status    enums.OrderStatus `gorm:"column:status;type:text;not null"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
}
