package domain

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeShipmentCreator records the shipping request an order hands over
type fakeShipmentCreator struct {
	shippingType string
	productIDs   []string
	orderID      string
	dueDate      time.Time
	err          error
	calls        int
}

func (f *fakeShipmentCreator) CreateShipping(_ context.Context, shippingType string, productIDs []string, orderID string, dueDate time.Time) (string, error) {
	f.calls++
	f.shippingType = shippingType
	f.productIDs = productIDs
	f.orderID = orderID
	f.dueDate = dueDate
	if f.err != nil {
		return "", f.err
	}
	return "shipping-123", nil
}

func TestNewOrder(t *testing.T) {
	first := NewOrder(NewShoppingCart(), &fakeShipmentCreator{})
	second := NewOrder(NewShoppingCart(), &fakeShipmentCreator{})

	assert.NotEmpty(t, first.OrderID)
	assert.NotEmpty(t, second.OrderID)
	assert.NotEqual(t, first.OrderID, second.OrderID)
}

func TestOrderPlaceOrder(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Submits cart and delegates to shipping", func(t *testing.T) {
		cart := NewShoppingCart()
		require.NoError(t, cart.AddProduct(createTestProduct(t, "usb cable", 4.50, 10), 2))

		creator := &fakeShipmentCreator{}
		order := NewOrder(cart, creator).WithClock(func() time.Time { return now })

		dueDate := now.Add(48 * time.Hour)
		shippingID, err := order.PlaceOrder(context.Background(), "express", dueDate)
		require.NoError(t, err)

		assert.Equal(t, "shipping-123", shippingID)
		assert.Equal(t, 1, creator.calls)
		assert.Equal(t, "express", creator.shippingType)
		assert.Equal(t, []string{"usb cable"}, creator.productIDs)
		assert.Equal(t, order.OrderID, creator.orderID)
		assert.Equal(t, dueDate, creator.dueDate)
		assert.True(t, cart.IsEmpty())
	})

	t.Run("Zero due date defaults to a short lead time", func(t *testing.T) {
		cart := NewShoppingCart()
		require.NoError(t, cart.AddProduct(createTestProduct(t, "usb cable", 4.50, 10), 1))

		creator := &fakeShipmentCreator{}
		order := NewOrder(cart, creator).WithClock(func() time.Time { return now })

		_, err := order.PlaceOrder(context.Background(), "standard", time.Time{})
		require.NoError(t, err)

		assert.True(t, creator.dueDate.After(now))
	})

	t.Run("Due date in the past is rejected", func(t *testing.T) {
		cart := NewShoppingCart()
		require.NoError(t, cart.AddProduct(createTestProduct(t, "usb cable", 4.50, 10), 1))

		creator := &fakeShipmentCreator{}
		order := NewOrder(cart, creator).WithClock(func() time.Time { return now })

		_, err := order.PlaceOrder(context.Background(), "standard", now.Add(-time.Hour))
		assert.Error(t, err)
		assert.Zero(t, creator.calls)
		assert.False(t, cart.IsEmpty())
	})

	t.Run("Empty cart is rejected at placement time", func(t *testing.T) {
		creator := &fakeShipmentCreator{}
		order := NewOrder(NewShoppingCart(), creator)

		_, err := order.PlaceOrder(context.Background(), "standard", time.Time{})
		assert.Error(t, err)
		assert.Zero(t, creator.calls)
	})

	t.Run("Cart emptied after construction fails placement", func(t *testing.T) {
		cart := NewShoppingCart()
		cable := createTestProduct(t, "usb cable", 4.50, 10)
		require.NoError(t, cart.AddProduct(cable, 1))

		creator := &fakeShipmentCreator{}
		order := NewOrder(cart, creator)
		cart.RemoveProduct(cable)

		_, err := order.PlaceOrder(context.Background(), "standard", time.Time{})
		assert.Error(t, err)
		assert.Zero(t, creator.calls)
	})

	t.Run("Failed cart submission aborts placement", func(t *testing.T) {
		cart := NewShoppingCart()
		cable := createTestProduct(t, "usb cable", 4.50, 2)
		require.NoError(t, cart.AddProduct(cable, 2))
		require.NoError(t, cable.Buy(1))

		creator := &fakeShipmentCreator{}
		order := NewOrder(cart, creator).WithClock(func() time.Time { return now })

		_, err := order.PlaceOrder(context.Background(), "standard", now.Add(time.Hour))
		assert.Error(t, err)
		assert.Zero(t, creator.calls)
	})
}
