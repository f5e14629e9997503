package domain

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/eshop-platform/shipping-service/pkg/errors"
)

// Default lead time applied when an order is placed without a due date.
// Intended for tests and demos, not production shipping.
const defaultDueDateLeadTime = 3 * time.Second

// ShipmentCreator creates shipment records for placed orders. Implemented by
// the shipping lifecycle coordinator.
type ShipmentCreator interface {
	CreateShipping(ctx context.Context, shippingType string, productIDs []string, orderID string, dueDate time.Time) (string, error)
}

// Order binds a shopping cart to a shipping request. Cart emptiness is
// validated at placement time, not at construction: an order over a cart that
// is later emptied fails when placed.
type Order struct {
	OrderID string
	Cart    *ShoppingCart

	shipping ShipmentCreator
	clock    func() time.Time
}

// NewOrder creates an order for the cart with a generated order id
func NewOrder(cart *ShoppingCart, shipping ShipmentCreator) *Order {
	return &Order{
		OrderID:  uuid.NewString(),
		Cart:     cart,
		shipping: shipping,
		clock:    time.Now,
	}
}

// WithClock overrides the order's time source
func (o *Order) WithClock(clock func() time.Time) *Order {
	o.clock = clock
	return o
}

// PlaceOrder submits the cart and hands the purchased products to the
// shipping coordinator. A zero dueDate defaults to a short lead time from
// now; the resolved due date must be strictly in the future. Returns the
// generated shipping id.
func (o *Order) PlaceOrder(ctx context.Context, shippingType string, dueDate time.Time) (string, error) {
	if o.Cart.IsEmpty() {
		return "", errors.ErrValidation("cart is empty, cannot place an order")
	}

	now := o.clock()
	if dueDate.IsZero() {
		dueDate = now.Add(defaultDueDateLeadTime)
	}
	if !dueDate.After(now) {
		return "", errors.ErrValidation("shipping due date must be in the future")
	}

	productIDs, err := o.Cart.SubmitCartOrder()
	if err != nil {
		return "", err
	}

	return o.shipping.CreateShipping(ctx, shippingType, productIDs, o.OrderID, dueDate)
}
