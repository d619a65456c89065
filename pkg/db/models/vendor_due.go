package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/unieats/unieats-backend/pkg/enums"
)

// VendorDue is a batched settlement obligation produced by the reconciliation
// job. Orders point back at it through their due_id marker.
type VendorDue struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID       uuid.UUID       `gorm:"column:vendor_id;type:uuid;not null;index"`
	PeriodStart    time.Time       `gorm:"column:period_start;not null"`
	PeriodEnd      time.Time       `gorm:"column:period_end;not null"`
	AmountDue      decimal.Decimal `gorm:"column:amount_due;type:numeric(12,2);not null"`
	AmountPaid     decimal.Decimal `gorm:"column:amount_paid;type:numeric(12,2);not null;default:0"`
	OrderCount     int             `gorm:"column:order_count;not null"`
	Status         enums.DueStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	TransactionRef *string         `gorm:"column:transaction_ref"`
	ClearedAt      *time.Time      `gorm:"column:cleared_at"`
	Orders         []Order         `gorm:"foreignKey:DueID"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
