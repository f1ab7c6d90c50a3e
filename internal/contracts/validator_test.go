package contracts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/shipment-service/pkg/cloudevents"
)

func newValidator(t *testing.T) *EventValidator {
	t.Helper()
	v, err := NewEventValidator()
	require.NoError(t, err)
	return v
}

func TestEmbeddedContractRegistersShipmentEvents(t *testing.T) {
	v := newValidator(t)

	assert.Equal(t, []string{cloudevents.ShipmentCreated, cloudevents.ShipmentStatusChanged}, v.EventTypes())
	assert.True(t, v.HasSchema(cloudevents.ShipmentCreated))
	assert.False(t, v.HasSchema("logistics.shipment.deleted"))
}

func TestValidateFactoryEvents(t *testing.T) {
	v := newValidator(t)
	factory := cloudevents.NewEventFactory(cloudevents.SourceShipmentService)
	ctx := context.Background()

	created := factory.CreateShipmentCreatedEvent(ctx, cloudevents.ShipmentCreatedData{
		ShipmentID:     "0b4f8a0e-6f33-4c55-9f3e-0c6b1d1f2a11",
		ShipmentNumber: "SJA26109f3e",
		CustomerID:     "5d1c2b9a-1c1e-4f0a-8c3b-7a2b9e4d6f00",
		Status:         "ShipmentCreated",
	})
	assert.NoError(t, v.Validate(created))

	changed := factory.CreateShipmentStatusChangedEvent(ctx, cloudevents.ShipmentStatusChangedData{
		ShipmentID:     "0b4f8a0e-6f33-4c55-9f3e-0c6b1d1f2a11",
		ShipmentNumber: "SJA26109f3e",
		CustomerID:     "5d1c2b9a-1c1e-4f0a-8c3b-7a2b9e4d6f00",
		PreviousStatus: "ShipmentCreated",
		Status:         "InStorage",
	})
	assert.NoError(t, v.Validate(changed))
}

func TestValidateRejectsBadPayloads(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		name  string
		event *cloudevents.CloudEvent
	}{
		{"nil event", nil},
		{"missing type", &cloudevents.CloudEvent{Data: map[string]interface{}{}}},
		{"unknown type", &cloudevents.CloudEvent{Type: "logistics.shipment.deleted", Data: map[string]interface{}{}}},
		{"no data", &cloudevents.CloudEvent{Type: cloudevents.ShipmentCreated}},
		{
			name: "missing field",
			event: &cloudevents.CloudEvent{Type: cloudevents.ShipmentCreated, Data: map[string]interface{}{
				"shipmentId":     "0b4f8a0e-6f33-4c55-9f3e-0c6b1d1f2a11",
				"shipmentNumber": "SJA26109f3e",
				"status":         "ShipmentCreated",
			}},
		},
		{
			name: "malformed number",
			event: &cloudevents.CloudEvent{Type: cloudevents.ShipmentCreated, Data: cloudevents.ShipmentCreatedData{
				ShipmentID:     "0b4f8a0e-6f33-4c55-9f3e-0c6b1d1f2a11",
				ShipmentNumber: "PK2610190001",
				CustomerID:     "5d1c2b9a-1c1e-4f0a-8c3b-7a2b9e4d6f00",
				Status:         "ShipmentCreated",
			}},
		},
		{
			name: "unknown status",
			event: &cloudevents.CloudEvent{Type: cloudevents.ShipmentStatusChanged, Data: cloudevents.ShipmentStatusChangedData{
				ShipmentID:     "0b4f8a0e-6f33-4c55-9f3e-0c6b1d1f2a11",
				ShipmentNumber: "SJA26109f3e",
				CustomerID:     "5d1c2b9a-1c1e-4f0a-8c3b-7a2b9e4d6f00",
				PreviousStatus: "Delivering",
				Status:         "Lost",
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, v.Validate(tt.event))
		})
	}

	err := v.Validate(&cloudevents.CloudEvent{Type: "logistics.shipment.deleted", Data: map[string]interface{}{}})
	assert.ErrorIs(t, err, ErrUnknownEventType)
}

func TestValidateJSON(t *testing.T) {
	v := newValidator(t)

	valid := []byte(`{"specversion":"1.0","type":"logistics.shipment.created","source":"/logistics/shipment-service",` +
		`"id":"e1","time":"2026-10-19T08:00:00Z","data":{"shipmentId":"0b4f8a0e-6f33-4c55-9f3e-0c6b1d1f2a11",` +
		`"shipmentNumber":"SJA26109f3e","customerId":"5d1c2b9a-1c1e-4f0a-8c3b-7a2b9e4d6f00","status":"Delivered"}}`)
	assert.NoError(t, v.ValidateJSON(valid))

	assert.Error(t, v.ValidateJSON([]byte(`{not json`)))
}

func TestContractFromBytes(t *testing.T) {
	spec := []byte(`
asyncapi: 3.0.0
components:
  schemas:
    Untyped:
      type: object
    PingData:
      x-event-type: test.ping
      type: object
      required: [seq]
      properties:
        seq:
          type: integer
          minimum: 1
`)
	v, err := NewEventValidatorFromBytes(spec)
	require.NoError(t, err)
	assert.Equal(t, []string{"test.ping"}, v.EventTypes())

	assert.NoError(t, v.Validate(&cloudevents.CloudEvent{Type: "test.ping", Data: map[string]int{"seq": 3}}))
	assert.Error(t, v.Validate(&cloudevents.CloudEvent{Type: "test.ping", Data: map[string]int{"seq": 0}}))

	_, err = NewEventValidatorFromBytes([]byte("components: [unterminated"))
	assert.Error(t, err)
}
