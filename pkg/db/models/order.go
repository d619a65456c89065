package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/unieats/unieats-backend/pkg/enums"
	"github.com/unieats/unieats-backend/pkg/types"
)

// Order is one purchase transaction. Line items, prices, and the delivery
// address are snapshots taken at placement time and never mutated afterwards.
type Order struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID   uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	VendorID uuid.UUID `gorm:"column:vendor_id;type:uuid;not null;index"`

	Subtotal         decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
	PlatformFee      decimal.Decimal `gorm:"column:platform_fee;type:numeric(12,2);not null"`
	VendorCommission decimal.Decimal `gorm:"column:vendor_commission;type:numeric(12,2);not null"`
	TotalPrice       decimal.Decimal `gorm:"column:total_price;type:numeric(12,2);not null"`

	// COD/UPI split: the vendor collects the total and later owes the
	// platform its cut.
	VendorReceives *decimal.Decimal `gorm:"column:vendor_receives;type:numeric(12,2)"`
	VendorOwes     *decimal.Decimal `gorm:"column:vendor_owes;type:numeric(12,2)"`
	NetRevenue     *decimal.Decimal `gorm:"column:net_revenue;type:numeric(12,2)"`

	// Gateway split: the platform receives the total upfront and owes the
	// vendor a payout.
	GrossReceived *decimal.Decimal `gorm:"column:gross_received;type:numeric(12,2)"`
	PlatformGross *decimal.Decimal `gorm:"column:platform_gross;type:numeric(12,2)"`
	VendorPayout  *decimal.Decimal `gorm:"column:vendor_payout;type:numeric(12,2)"`

	Status enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`

	PaymentMethod    enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	PaymentStatus    enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	UPIReference     *string             `gorm:"column:upi_reference"`
	VendorUPIID      *string             `gorm:"column:vendor_upi_id"`
	GatewayOrderID   *string             `gorm:"column:gateway_order_id;index"`
	GatewayPaymentID *string             `gorm:"column:gateway_payment_id"`
	GatewaySignature *string             `gorm:"column:gateway_signature"`

	DeliveryAddress types.AddressSnapshot `gorm:"column:delivery_address;type:jsonb;serializer:json"`

	AcceptedAt *time.Time `gorm:"column:accepted_at"`
	ReadyAt    *time.Time `gorm:"column:ready_at"`

	// DueID is the settlement marker: nil until the dues job folds this
	// order into a VendorDue, set exactly once after that.
	DueID *uuid.UUID `gorm:"column:due_id;type:uuid;index"`

	Items        []OrderItem        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	StatusEvents []OrderStatusEvent `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
