package models

import (
	"time"

	"github.com/google/uuid"
)

// Vendor is a restaurant selling through the platform.
type Vendor struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string     `gorm:"column:name;not null"`
	Email       string     `gorm:"column:email;not null;uniqueIndex"`
	UPIID       *string    `gorm:"column:upi_id"`
	TrialEndsAt *time.Time `gorm:"column:trial_ends_at"`
	IsOpen      bool       `gorm:"column:is_open;not null;default:true"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// IsTrialActive reports whether the vendor's commission-free trial covers now.
func (v Vendor) IsTrialActive(now time.Time) bool {
	return v.TrialEndsAt != nil && now.Before(*v.TrialEndsAt)
}

// AcceptsUPI reports whether the vendor has a UPI identifier configured.
func (v Vendor) AcceptsUPI() bool {
	return v.UPIID != nil && *v.UPIID != ""
}
