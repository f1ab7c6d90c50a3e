package idempotency

import (
	"time"

	"github.com/google/uuid"
)

// Key records one Idempotency-Key and, once the request finished, the
// response to replay for retries. Keys are scoped per service and actor.
type Key struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey"`
	ServiceID          string    `gorm:"size:64;not null;uniqueIndex:idx_idempotency_scope,priority:1"`
	UserID             string    `gorm:"size:128;not null;default:'';uniqueIndex:idx_idempotency_scope,priority:2"`
	Key                string    `gorm:"size:255;not null;uniqueIndex:idx_idempotency_scope,priority:3"`
	RequestPath        string    `gorm:"size:512;not null"`
	RequestMethod      string    `gorm:"size:16;not null"`
	RequestFingerprint string    `gorm:"size:64;not null"`

	// LockedAt is set while a request holds the key
	LockedAt *time.Time

	ResponseCode    int
	ResponseBody    []byte            `gorm:"type:bytea"`
	ResponseHeaders map[string]string `gorm:"type:jsonb;serializer:json"`

	CreatedAt   time.Time `gorm:"not null"`
	CompletedAt *time.Time
	ExpiresAt   time.Time `gorm:"not null;index"`
}

// TableName pins the idempotency table name
func (Key) TableName() string {
	return "idempotency_keys"
}

// IsCompleted returns true if a response has been stored
func (k *Key) IsCompleted() bool {
	return k.CompletedAt != nil
}

// IsLocked returns true if a request is currently processing under the key
func (k *Key) IsLocked() bool {
	return k.LockedAt != nil && k.CompletedAt == nil
}
