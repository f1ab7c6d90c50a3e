package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wms-platform/shipment-service/pkg/cloudevents"
)

// DefaultMaxRetries bounds delivery attempts per event
const DefaultMaxRetries = 10

// OutboxEvent represents an event stored in the outbox for reliable delivery
type OutboxEvent struct {
	ID            string     `gorm:"type:uuid;primaryKey" json:"id"`
	AggregateID   string     `gorm:"size:64;not null;index" json:"aggregateId"`
	AggregateType string     `gorm:"size:64;not null" json:"aggregateType"`
	EventType     string     `gorm:"size:128;not null" json:"eventType"`
	Topic         string     `gorm:"size:128;not null" json:"topic"`
	Payload       string     `gorm:"type:jsonb;not null" json:"payload"`
	CreatedAt     time.Time  `gorm:"not null;index:idx_outbox_pending,priority:2" json:"createdAt"`
	PublishedAt   *time.Time `gorm:"index:idx_outbox_pending,priority:1" json:"publishedAt,omitempty"`
	RetryCount    int        `gorm:"not null;default:0" json:"retryCount"`
	LastError     string     `gorm:"type:text" json:"lastError,omitempty"`
	MaxRetries    int        `gorm:"not null;default:10" json:"maxRetries"`
}

// TableName pins the outbox table name
func (OutboxEvent) TableName() string {
	return "outbox_events"
}

// NewOutboxEventFromCloudEvent creates an outbox event from a CloudEvent
func NewOutboxEventFromCloudEvent(aggregateID, aggregateType, topic string, cloudEvent *cloudevents.CloudEvent) (*OutboxEvent, error) {
	payload, err := json.Marshal(cloudEvent)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cloud event: %w", err)
	}

	return &OutboxEvent{
		ID:            uuid.New().String(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     cloudEvent.Type,
		Topic:         topic,
		Payload:       string(payload),
		CreatedAt:     time.Now().UTC(),
		RetryCount:    0,
		MaxRetries:    DefaultMaxRetries,
	}, nil
}

// IsPublished checks if the event has been published
func (e *OutboxEvent) IsPublished() bool {
	return e.PublishedAt != nil
}

// ShouldRetry checks if the event should be retried
func (e *OutboxEvent) ShouldRetry() bool {
	return !e.IsPublished() && e.RetryCount < e.MaxRetries
}

// ToCloudEvent converts the outbox event payload to a CloudEvent
func (e *OutboxEvent) ToCloudEvent() (*cloudevents.CloudEvent, error) {
	var cloudEvent cloudevents.CloudEvent
	if err := json.Unmarshal([]byte(e.Payload), &cloudEvent); err != nil {
		return nil, err
	}
	return &cloudEvent, nil
}
