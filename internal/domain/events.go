package domain

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
}

// ShipmentCreatedEvent is recorded when a shipment is assembled
type ShipmentCreatedEvent struct {
	ShipmentID     uuid.UUID      `json:"shipmentId"`
	ShipmentNumber string         `json:"shipmentNumber"`
	CustomerID     uuid.UUID      `json:"customerId"`
	Status         ShipmentStatus `json:"status"`
	CreatedAt      time.Time      `json:"createdAt"`
}

func (e *ShipmentCreatedEvent) EventType() string     { return "logistics.shipment.created" }
func (e *ShipmentCreatedEvent) OccurredAt() time.Time { return e.CreatedAt }

// ShipmentStatusChangedEvent is recorded by an explicit status update
type ShipmentStatusChangedEvent struct {
	ShipmentID     uuid.UUID      `json:"shipmentId"`
	ShipmentNumber string         `json:"shipmentNumber"`
	CustomerID     uuid.UUID      `json:"customerId"`
	PreviousStatus ShipmentStatus `json:"previousStatus"`
	Status         ShipmentStatus `json:"status"`
	ChangedAt      time.Time      `json:"changedAt"`
}

func (e *ShipmentStatusChangedEvent) EventType() string     { return "logistics.shipment.status-changed" }
func (e *ShipmentStatusChangedEvent) OccurredAt() time.Time { return e.ChangedAt }
