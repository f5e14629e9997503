package domain

import (
	"context"
	"time"
)

// ShipmentRepository defines the interface for shipment persistence.
// FindByID returns (nil, nil) when the shipment does not exist.
type ShipmentRepository interface {
	Create(ctx context.Context, shipment *Shipment) error
	FindByID(ctx context.Context, shippingID string) (*Shipment, error)
	FindByOrderID(ctx context.Context, orderID string) (*Shipment, error)
	FindByStatus(ctx context.Context, status ShippingStatus) ([]*Shipment, error)
	UpdateStatus(ctx context.Context, shippingID string, status ShippingStatus) error
	// FindStaleCreated returns shipments still in CREATED older than the
	// cutoff, used by the reconciliation sweep for records whose queue
	// publish never happened.
	FindStaleCreated(ctx context.Context, cutoff time.Time) ([]*Shipment, error)
}

// Delivery is a single message delivered by a queue poll. The receipt
// acknowledges the message; an unacknowledged message becomes eligible for
// redelivery.
type Delivery struct {
	Body    string
	Receipt string
}

// ShipmentQueue defines the interface for the at-least-once shipment queue.
// Poll waits up to the given interval for messages and never blocks beyond it.
type ShipmentQueue interface {
	Publish(ctx context.Context, body string) (messageID string, err error)
	Poll(ctx context.Context, maxMessages int, wait time.Duration) ([]Delivery, error)
	Ack(ctx context.Context, receipt string) error
}
