package cloudevents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/shipment-service/pkg/logging"
)

func TestCreateShipmentCreatedEvent(t *testing.T) {
	ctx := logging.ContextWithCorrelationID(context.Background(), "corr-1")
	ctx = logging.ContextWithActorID(ctx, "staff-9")

	factory := NewEventFactory(SourceShipmentService)
	event := factory.CreateShipmentCreatedEvent(ctx, ShipmentCreatedData{
		ShipmentID:     "s-1",
		ShipmentNumber: "SJA2403ab12",
		CustomerID:     "c-1",
		Status:         "ShipmentCreated",
	})

	require.NotNil(t, event)
	assert.Equal(t, SpecVersion, event.SpecVersion)
	assert.Equal(t, ShipmentCreated, event.Type)
	assert.Equal(t, SourceShipmentService, event.Source)
	assert.Equal(t, "shipment/s-1", event.Subject)
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "corr-1", event.CorrelationID)
	assert.Equal(t, "staff-9", event.ActorID)
	assert.Equal(t, "c-1", event.CustomerID)

	headers := event.ExtensionHeaders()
	assert.Equal(t, "corr-1", headers[ExtCorrelationID])
	assert.Equal(t, "staff-9", headers[ExtActorID])
	assert.Equal(t, "c-1", headers[ExtCustomerID])
}

func TestExtensionHeadersSkipsEmpty(t *testing.T) {
	event := NewEventFactory(SourceShipmentService).CreateEvent(context.Background(), ShipmentStatusChanged, "shipment/x", nil)

	assert.Empty(t, event.ExtensionHeaders())
}
