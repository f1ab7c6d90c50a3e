package domain

import (
	"time"

	"gorm.io/gorm"
)

// Audit carries creation, update and soft-delete bookkeeping for every table
type Audit struct {
	CreatedAt time.Time      `gorm:"not null" json:"createdAt"`
	CreatedBy string         `gorm:"size:64" json:"createdBy,omitempty"`
	UpdatedAt time.Time      `json:"updatedAt"`
	UpdatedBy string         `gorm:"size:64" json:"updatedBy,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	DeletedBy string         `gorm:"size:64" json:"-"`
}

// Touch records an update by actor at now
func (a *Audit) Touch(actor string, now time.Time) {
	a.UpdatedAt = now
	if actor != "" {
		a.UpdatedBy = actor
	}
}
