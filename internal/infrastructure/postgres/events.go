package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/wms-platform/shipment-service/internal/domain"
	"github.com/wms-platform/shipment-service/pkg/cloudevents"
	"github.com/wms-platform/shipment-service/pkg/kafka"
	"github.com/wms-platform/shipment-service/pkg/outbox"
	"github.com/wms-platform/shipment-service/pkg/outbox/gormstore"
)

// EventContract checks an outgoing CloudEvent before it is queued
type EventContract interface {
	Validate(event *cloudevents.CloudEvent) error
}

// eventWriter converts domain events to CloudEvents and stores them in the
// outbox table of an open transaction
type eventWriter struct {
	factory  *cloudevents.EventFactory
	outbox   *gormstore.OutboxRepository
	contract EventContract
}

func newEventWriter(db *gorm.DB, factory *cloudevents.EventFactory) *eventWriter {
	return &eventWriter{factory: factory, outbox: gormstore.NewOutboxRepository(db)}
}

func (w *eventWriter) write(ctx context.Context, tx *gorm.DB, shipmentID string, events []domain.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	records := make([]*outbox.OutboxEvent, 0, len(events))
	for _, event := range events {
		var ce *cloudevents.CloudEvent
		switch e := event.(type) {
		case *domain.ShipmentCreatedEvent:
			ce = w.factory.CreateShipmentCreatedEvent(ctx, cloudevents.ShipmentCreatedData{
				ShipmentID:     e.ShipmentID.String(),
				ShipmentNumber: e.ShipmentNumber,
				CustomerID:     e.CustomerID.String(),
				Status:         string(e.Status),
			})
		case *domain.ShipmentStatusChangedEvent:
			ce = w.factory.CreateShipmentStatusChangedEvent(ctx, cloudevents.ShipmentStatusChangedData{
				ShipmentID:     e.ShipmentID.String(),
				ShipmentNumber: e.ShipmentNumber,
				CustomerID:     e.CustomerID.String(),
				PreviousStatus: string(e.PreviousStatus),
				Status:         string(e.Status),
			})
		default:
			continue
		}

		if w.contract != nil {
			if err := w.contract.Validate(ce); err != nil {
				return err
			}
		}

		record, err := outbox.NewOutboxEventFromCloudEvent(shipmentID, "Shipment", kafka.Topics.ShipmentEvents, ce)
		if err != nil {
			return fmt.Errorf("failed to create outbox event: %w", err)
		}
		records = append(records, record)
	}

	return w.outbox.WithTx(tx).SaveAll(ctx, records)
}
