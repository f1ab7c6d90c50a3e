package cloudevents

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventFactory creates CloudEvents for a single source
type EventFactory struct {
	source string
	now    func() time.Time
}

// NewEventFactory creates a new EventFactory for a specific source
func NewEventFactory(source string) *EventFactory {
	return &EventFactory{source: source, now: time.Now}
}

// CreateEvent creates a new CloudEvent with the given parameters
func (f *EventFactory) CreateEvent(
	ctx context.Context,
	eventType string,
	subject string,
	data interface{},
) *CloudEvent {
	event := &CloudEvent{
		SpecVersion:     SpecVersion,
		Type:            eventType,
		Source:          f.source,
		Subject:         subject,
		ID:              uuid.New().String(),
		Time:            f.now().UTC(),
		DataContentType: "application/json",
		Data:            data,
		Extensions:      make(map[string]interface{}),
	}
	event.SetContext(ctx)

	return event
}

// CreateShipmentCreatedEvent creates a logistics.shipment.created event
func (f *EventFactory) CreateShipmentCreatedEvent(ctx context.Context, data ShipmentCreatedData) *CloudEvent {
	event := f.CreateEvent(ctx, ShipmentCreated, "shipment/"+data.ShipmentID, data)
	event.CustomerID = data.CustomerID
	return event
}

// CreateShipmentStatusChangedEvent creates a logistics.shipment.status-changed event
func (f *EventFactory) CreateShipmentStatusChangedEvent(ctx context.Context, data ShipmentStatusChangedData) *CloudEvent {
	event := f.CreateEvent(ctx, ShipmentStatusChanged, "shipment/"+data.ShipmentID, data)
	event.CustomerID = data.CustomerID
	return event
}
