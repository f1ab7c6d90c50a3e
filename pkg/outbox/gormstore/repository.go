package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/wms-platform/shipment-service/pkg/outbox"
)

// OutboxRepository implements outbox.Repository on top of gorm
type OutboxRepository struct {
	db *gorm.DB
}

// NewOutboxRepository creates a new gorm outbox repository
func NewOutboxRepository(db *gorm.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// WithTx returns a repository bound to an open transaction so events commit
// atomically with the aggregate that produced them.
func (r *OutboxRepository) WithTx(tx *gorm.DB) *OutboxRepository {
	return &OutboxRepository{db: tx}
}

// Save saves an outbox event
func (r *OutboxRepository) Save(ctx context.Context, event *outbox.OutboxEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to save outbox event: %w", err)
	}
	return nil
}

// SaveAll saves multiple outbox events in a single statement
func (r *OutboxRepository) SaveAll(ctx context.Context, events []*outbox.OutboxEvent) error {
	if len(events) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&events).Error; err != nil {
		return fmt.Errorf("failed to save outbox events: %w", err)
	}
	return nil
}

// FindUnpublished retrieves unpublished events that still have retry budget
func (r *OutboxRepository) FindUnpublished(ctx context.Context, limit int) ([]*outbox.OutboxEvent, error) {
	var events []*outbox.OutboxEvent
	err := r.db.WithContext(ctx).
		Where("published_at IS NULL AND retry_count < max_retries").
		Order("created_at ASC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find unpublished events: %w", err)
	}
	return events, nil
}

// MarkPublished marks an event as published
func (r *OutboxRepository) MarkPublished(ctx context.Context, eventID string) error {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&outbox.OutboxEvent{}).
		Where("id = ?", eventID).
		Update("published_at", now)
	if res.Error != nil {
		return fmt.Errorf("failed to mark event as published: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("outbox event not found: %s", eventID)
	}
	return nil
}

// IncrementRetry increments the retry count and records the last error
func (r *OutboxRepository) IncrementRetry(ctx context.Context, eventID string, errorMsg string) error {
	res := r.db.WithContext(ctx).
		Model(&outbox.OutboxEvent{}).
		Where("id = ?", eventID).
		Updates(map[string]interface{}{
			"retry_count": gorm.Expr("retry_count + 1"),
			"last_error":  errorMsg,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to increment retry count: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("outbox event not found: %s", eventID)
	}
	return nil
}

// DeletePublished deletes events published longer ago than olderThan
func (r *OutboxRepository) DeletePublished(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	res := r.db.WithContext(ctx).
		Where("published_at IS NOT NULL AND published_at < ?", cutoff).
		Delete(&outbox.OutboxEvent{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete published events: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// GetByID retrieves an outbox event by ID
func (r *OutboxRepository) GetByID(ctx context.Context, eventID string) (*outbox.OutboxEvent, error) {
	var event outbox.OutboxEvent
	err := r.db.WithContext(ctx).Where("id = ?", eventID).First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox event: %w", err)
	}
	return &event, nil
}

// FindByAggregateID retrieves all events for a specific aggregate
func (r *OutboxRepository) FindByAggregateID(ctx context.Context, aggregateID string) ([]*outbox.OutboxEvent, error) {
	var events []*outbox.OutboxEvent
	err := r.db.WithContext(ctx).
		Where("aggregate_id = ?", aggregateID).
		Order("created_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find events by aggregate: %w", err)
	}
	return events, nil
}

var _ outbox.Repository = (*OutboxRepository)(nil)
