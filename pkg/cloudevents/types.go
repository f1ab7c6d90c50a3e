package cloudevents

import (
	"time"
)

// Event types published by the shipment service
const (
	ShipmentCreated       = "logistics.shipment.created"
	ShipmentStatusChanged = "logistics.shipment.status-changed"
)

// SourceShipmentService is the CloudEvents source of every event emitted here
const SourceShipmentService = "/logistics/shipment-service"

// SpecVersion is the CloudEvents version produced by EventFactory
const SpecVersion = "1.0"

// CloudEvent represents a CloudEvents v1.0 compliant event
type CloudEvent struct {
	SpecVersion     string                 `json:"specversion"`
	Type            string                 `json:"type"`
	Source          string                 `json:"source"`
	Subject         string                 `json:"subject,omitempty"`
	ID              string                 `json:"id"`
	Time            time.Time              `json:"time"`
	DataContentType string                 `json:"datacontenttype"`
	Data            interface{}            `json:"data"`
	Extensions      map[string]interface{} `json:"-"`

	CorrelationID string `json:"logisticscorrelationid,omitempty"`
	ActorID       string `json:"logisticsactorid,omitempty"`
	CustomerID    string `json:"logisticscustomerid,omitempty"`
}

// ShipmentCreatedData is the payload of a logistics.shipment.created event
type ShipmentCreatedData struct {
	ShipmentID     string `json:"shipmentId"`
	ShipmentNumber string `json:"shipmentNumber"`
	CustomerID     string `json:"customerId"`
	Status         string `json:"status"`
}

// ShipmentStatusChangedData is the payload of a logistics.shipment.status-changed event
type ShipmentStatusChangedData struct {
	ShipmentID     string `json:"shipmentId"`
	ShipmentNumber string `json:"shipmentNumber"`
	CustomerID     string `json:"customerId"`
	PreviousStatus string `json:"previousStatus"`
	Status         string `json:"status"`
}
