package domain

import (
	"slices"
	"time"

	"github.com/eshop-platform/shipping-service/pkg/errors"
)

// ShippingStatus represents the lifecycle status of a shipment
type ShippingStatus string

const (
	ShippingStatusCreated    ShippingStatus = "CREATED"
	ShippingStatusInProgress ShippingStatus = "IN_PROGRESS"
	ShippingStatusCompleted  ShippingStatus = "COMPLETED"
	ShippingStatusFailed     ShippingStatus = "FAILED"
)

// IsTerminal reports whether no further transitions are defined from the status
func (s ShippingStatus) IsTerminal() bool {
	return s == ShippingStatusCompleted || s == ShippingStatusFailed
}

// Supported shipping types, in stable enumeration order.
var shippingTypes = []string{
	"standard",
	"express",
	"overnight",
	"international",
}

// ShippingTypes returns the supported shipping types in stable order
func ShippingTypes() []string {
	return slices.Clone(shippingTypes)
}

// IsShippingTypeAvailable reports whether the shipping type is supported
func IsShippingTypeAvailable(shippingType string) bool {
	return slices.Contains(shippingTypes, shippingType)
}

// Shipment is the aggregate root for the shipping lifecycle
type Shipment struct {
	ShippingID   string         `bson:"shippingId" json:"shippingId"`
	ShippingType string         `bson:"shippingType" json:"shippingType"`
	OrderID      string         `bson:"orderId" json:"orderId"`
	ProductIDs   []string       `bson:"productIds" json:"productIds"`
	Status       ShippingStatus `bson:"status" json:"status"`
	CreatedDate  time.Time      `bson:"createdDate" json:"createdDate"`
	DueDate      time.Time      `bson:"dueDate" json:"dueDate"`
	UpdatedAt    time.Time      `bson:"updatedAt" json:"updatedAt"`
	DomainEvents []DomainEvent  `bson:"-" json:"-"`
}

// NewShipment creates a new Shipment aggregate in CREATED state.
// The due date must be strictly after the creation time.
func NewShipment(shippingID, shippingType, orderID string, productIDs []string, createdDate, dueDate time.Time) (*Shipment, error) {
	if !IsShippingTypeAvailable(shippingType) {
		return nil, errors.ErrValidation("shipping type is not available")
	}
	if !dueDate.After(createdDate) {
		return nil, errors.ErrValidation("shipping due date must be after the creation time")
	}

	s := &Shipment{
		ShippingID:   shippingID,
		ShippingType: shippingType,
		OrderID:      orderID,
		ProductIDs:   slices.Clone(productIDs),
		Status:       ShippingStatusCreated,
		CreatedDate:  createdDate.UTC(),
		DueDate:      dueDate.UTC(),
		UpdatedAt:    createdDate.UTC(),
		DomainEvents: make([]DomainEvent, 0),
	}

	s.AddDomainEvent(&ShipmentCreatedEvent{
		ShippingID:   shippingID,
		OrderID:      orderID,
		ShippingType: shippingType,
		CreatedAt:    s.CreatedDate,
	})

	return s, nil
}

// MarkInProgress advances the shipment from CREATED to IN_PROGRESS. Any other
// current status makes it a no-op; the queue redelivers messages, so this
// transition must be safe to apply repeatedly. Returns whether the status
// actually changed.
func (s *Shipment) MarkInProgress(now time.Time) bool {
	if s.Status != ShippingStatusCreated {
		return false
	}

	s.Status = ShippingStatusInProgress
	s.UpdatedAt = now.UTC()

	s.AddDomainEvent(&ShipmentInProgressEvent{
		ShippingID: s.ShippingID,
		OrderID:    s.OrderID,
		StartedAt:  s.UpdatedAt,
	})

	return true
}

// Complete moves the shipment from IN_PROGRESS to COMPLETED. Completing an
// already completed shipment is a no-op; completing from any other state is an
// error.
func (s *Shipment) Complete(now time.Time) error {
	if s.Status == ShippingStatusCompleted {
		return nil
	}
	if s.Status != ShippingStatusInProgress {
		return errors.ErrConflict("shipment is not in progress")
	}

	s.Status = ShippingStatusCompleted
	s.UpdatedAt = now.UTC()

	s.AddDomainEvent(&ShipmentCompletedEvent{
		ShippingID:  s.ShippingID,
		OrderID:     s.OrderID,
		CompletedAt: s.UpdatedAt,
	})

	return nil
}

// Fail forces the shipment to FAILED regardless of current state. Idempotent:
// failing an already failed shipment changes nothing. Returns whether the
// status actually changed.
func (s *Shipment) Fail(now time.Time) bool {
	if s.Status == ShippingStatusFailed {
		return false
	}

	s.Status = ShippingStatusFailed
	s.UpdatedAt = now.UTC()

	s.AddDomainEvent(&ShipmentFailedEvent{
		ShippingID: s.ShippingID,
		OrderID:    s.OrderID,
		FailedAt:   s.UpdatedAt,
	})

	return true
}

// AddDomainEvent adds a domain event
func (s *Shipment) AddDomainEvent(event DomainEvent) {
	s.DomainEvents = append(s.DomainEvents, event)
}

// GetDomainEvents returns all domain events
func (s *Shipment) GetDomainEvents() []DomainEvent {
	return s.DomainEvents
}

// ClearDomainEvents clears all domain events
func (s *Shipment) ClearDomainEvents() {
	s.DomainEvents = make([]DomainEvent, 0)
}
