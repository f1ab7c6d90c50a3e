package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store persists idempotency keys. Acquire must be atomic: of two concurrent
// callers with the same scope exactly one sees isNew == true.
type Store interface {
	// Acquire inserts key locked, or returns the row already holding its scope
	Acquire(ctx context.Context, key *Key) (existing *Key, isNew bool, err error)

	// Relock takes over a key whose lock is stale or was released. prevLockedAt
	// must be the value last read; false means another request won the race.
	Relock(ctx context.Context, id uuid.UUID, prevLockedAt *time.Time) (bool, error)

	// Complete stores the response and releases the lock
	Complete(ctx context.Context, id uuid.UUID, code int, body []byte, headers map[string]string) error

	// Release drops the lock without storing a response so a retry runs afresh
	Release(ctx context.Context, id uuid.UUID) error

	// Purge deletes keys that expired before the given time
	Purge(ctx context.Context, before time.Time) (int64, error)
}

// GormStore implements Store on the idempotency_keys table
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GormStore
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) scope(db *gorm.DB, key *Key) *gorm.DB {
	return db.Where("service_id = ? AND user_id = ? AND key = ?", key.ServiceID, key.UserID, key.Key)
}

// Acquire inserts the key with ON CONFLICT DO NOTHING. An expired row for the
// same scope is removed first so the key can be reused after retention.
func (s *GormStore) Acquire(ctx context.Context, key *Key) (*Key, bool, error) {
	now := time.Now().UTC()
	if key.ID == uuid.Nil {
		key.ID = uuid.New()
	}
	key.LockedAt = &now

	db := s.db.WithContext(ctx)
	if err := s.scope(db, key).Where("expires_at < ?", now).Delete(&Key{}).Error; err != nil {
		return nil, false, fmt.Errorf("failed to drop expired idempotency key: %w", err)
	}

	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(key)
	if res.Error != nil {
		return nil, false, fmt.Errorf("failed to insert idempotency key: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return key, true, nil
	}

	var existing Key
	err := s.scope(db, key).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, ErrKeyVanished
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load idempotency key: %w", err)
	}
	return &existing, false, nil
}

// Relock sets a fresh lock only if the row still carries prevLockedAt
func (s *GormStore) Relock(ctx context.Context, id uuid.UUID, prevLockedAt *time.Time) (bool, error) {
	query := s.db.WithContext(ctx).Model(&Key{}).Where("id = ? AND completed_at IS NULL", id)
	if prevLockedAt == nil {
		query = query.Where("locked_at IS NULL")
	} else {
		query = query.Where("locked_at = ?", *prevLockedAt)
	}

	res := query.Update("locked_at", time.Now().UTC())
	if res.Error != nil {
		return false, fmt.Errorf("failed to relock idempotency key: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// Complete stores the response for replay
func (s *GormStore) Complete(ctx context.Context, id uuid.UUID, code int, body []byte, headers map[string]string) error {
	now := time.Now().UTC()
	res := s.db.WithContext(ctx).
		Model(&Key{ID: id}).
		Select("response_code", "response_body", "response_headers", "completed_at", "locked_at").
		Updates(&Key{
			ResponseCode:    code,
			ResponseBody:    body,
			ResponseHeaders: headers,
			CompletedAt:     &now,
			LockedAt:        nil,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to store idempotent response: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("idempotency key not found: %s", id)
	}
	return nil
}

// Release clears the lock of an unfinished key
func (s *GormStore) Release(ctx context.Context, id uuid.UUID) error {
	err := s.db.WithContext(ctx).
		Model(&Key{}).
		Where("id = ? AND completed_at IS NULL", id).
		Update("locked_at", nil).Error
	if err != nil {
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}
	return nil
}

// Purge deletes expired keys
func (s *GormStore) Purge(ctx context.Context, before time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at < ?", before).Delete(&Key{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge idempotency keys: %w", res.Error)
	}
	return res.RowsAffected, nil
}
