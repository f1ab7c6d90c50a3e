package cloudevents

import (
	"context"

	"github.com/wms-platform/shipment-service/pkg/logging"
)

// CloudEvents extension attribute names, also used as Kafka header keys
const (
	ExtCorrelationID = "logisticscorrelationid"
	ExtActorID       = "logisticsactorid"
	ExtCustomerID    = "logisticscustomerid"
)

// SetContext copies the correlation and actor ids carried by ctx onto the event
func (e *CloudEvent) SetContext(ctx context.Context) {
	if ctx == nil {
		return
	}
	if v, ok := ctx.Value(logging.CorrelationIDKey).(string); ok && v != "" {
		e.CorrelationID = v
	}
	if v, ok := ctx.Value(logging.ActorIDKey).(string); ok && v != "" {
		e.ActorID = v
	}
}

// ExtensionHeaders returns the populated extension attributes keyed by name
func (e *CloudEvent) ExtensionHeaders() map[string]string {
	headers := make(map[string]string, 3+len(e.Extensions))
	if e.CorrelationID != "" {
		headers[ExtCorrelationID] = e.CorrelationID
	}
	if e.ActorID != "" {
		headers[ExtActorID] = e.ActorID
	}
	if e.CustomerID != "" {
		headers[ExtCustomerID] = e.CustomerID
	}
	for k, v := range e.Extensions {
		if s, ok := v.(string); ok {
			headers[k] = s
		}
	}
	return headers
}
