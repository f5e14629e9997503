package domain

import "time"

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
}

// ShipmentCreatedEvent is recorded when a shipment record is created
type ShipmentCreatedEvent struct {
	ShippingID   string    `json:"shippingId"`
	OrderID      string    `json:"orderId"`
	ShippingType string    `json:"shippingType"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (e *ShipmentCreatedEvent) EventType() string     { return "eshop.shipping.shipment-created" }
func (e *ShipmentCreatedEvent) OccurredAt() time.Time { return e.CreatedAt }

// ShipmentInProgressEvent is recorded when batch processing picks up a shipment
type ShipmentInProgressEvent struct {
	ShippingID string    `json:"shippingId"`
	OrderID    string    `json:"orderId"`
	StartedAt  time.Time `json:"startedAt"`
}

func (e *ShipmentInProgressEvent) EventType() string     { return "eshop.shipping.shipment-in-progress" }
func (e *ShipmentInProgressEvent) OccurredAt() time.Time { return e.StartedAt }

// ShipmentCompletedEvent is recorded when a shipment reaches COMPLETED
type ShipmentCompletedEvent struct {
	ShippingID  string    `json:"shippingId"`
	OrderID     string    `json:"orderId"`
	CompletedAt time.Time `json:"completedAt"`
}

func (e *ShipmentCompletedEvent) EventType() string     { return "eshop.shipping.shipment-completed" }
func (e *ShipmentCompletedEvent) OccurredAt() time.Time { return e.CompletedAt }

// ShipmentFailedEvent is recorded when a shipment is forced to FAILED
type ShipmentFailedEvent struct {
	ShippingID string    `json:"shippingId"`
	OrderID    string    `json:"orderId"`
	FailedAt   time.Time `json:"failedAt"`
}

func (e *ShipmentFailedEvent) EventType() string     { return "eshop.shipping.shipment-failed" }
func (e *ShipmentFailedEvent) OccurredAt() time.Time { return e.FailedAt }
