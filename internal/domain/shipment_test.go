package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestShipment(t *testing.T) *Shipment {
	t.Helper()
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	shipment, err := NewShipment("SHIP-001", "standard", "ORD-001",
		[]string{"usb cable", "keyboard"}, created, created.Add(72*time.Hour))
	require.NoError(t, err)
	return shipment
}

func TestShippingTypes(t *testing.T) {
	types := ShippingTypes()
	assert.Equal(t, []string{"standard", "express", "overnight", "international"}, types)

	// Callers get a copy, not the backing slice
	types[0] = "mutated"
	assert.Equal(t, "standard", ShippingTypes()[0])

	assert.True(t, IsShippingTypeAvailable("express"))
	assert.False(t, IsShippingTypeAvailable("teleport"))
	assert.False(t, IsShippingTypeAvailable("Standard"))
}

func TestNewShipmentRecord(t *testing.T) {
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		shippingType string
		dueDate      time.Time
		expectError  bool
	}{
		{
			name:         "Valid shipment",
			shippingType: "standard",
			dueDate:      created.Add(72 * time.Hour),
		},
		{
			name:         "Unknown shipping type rejected",
			shippingType: "teleport",
			dueDate:      created.Add(72 * time.Hour),
			expectError:  true,
		},
		{
			name:         "Due date equal to creation time rejected",
			shippingType: "standard",
			dueDate:      created,
			expectError:  true,
		},
		{
			name:         "Due date before creation time rejected",
			shippingType: "standard",
			dueDate:      created.Add(-time.Hour),
			expectError:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shipment, err := NewShipment("SHIP-001", tt.shippingType, "ORD-001",
				[]string{"usb cable"}, created, tt.dueDate)

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, shipment)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "SHIP-001", shipment.ShippingID)
			assert.Equal(t, "ORD-001", shipment.OrderID)
			assert.Equal(t, ShippingStatusCreated, shipment.Status)
			assert.Equal(t, created, shipment.CreatedDate)

			events := shipment.GetDomainEvents()
			require.Len(t, events, 1)
			event, ok := events[0].(*ShipmentCreatedEvent)
			require.True(t, ok)
			assert.Equal(t, "SHIP-001", event.ShippingID)
		})
	}
}

func TestShipmentMarkInProgress(t *testing.T) {
	now := time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC)

	t.Run("Advances from CREATED", func(t *testing.T) {
		shipment := createTestShipment(t)

		assert.True(t, shipment.MarkInProgress(now))
		assert.Equal(t, ShippingStatusInProgress, shipment.Status)
		assert.Equal(t, now, shipment.UpdatedAt)
	})

	t.Run("Second advance is a no-op", func(t *testing.T) {
		shipment := createTestShipment(t)
		require.True(t, shipment.MarkInProgress(now))

		assert.False(t, shipment.MarkInProgress(now.Add(time.Minute)))
		assert.Equal(t, ShippingStatusInProgress, shipment.Status)
		assert.Equal(t, now, shipment.UpdatedAt)
	})

	t.Run("Terminal states are untouched", func(t *testing.T) {
		shipment := createTestShipment(t)
		require.True(t, shipment.Fail(now))

		assert.False(t, shipment.MarkInProgress(now.Add(time.Minute)))
		assert.Equal(t, ShippingStatusFailed, shipment.Status)
	})
}

func TestShipmentComplete(t *testing.T) {
	now := time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC)

	t.Run("Completes from IN_PROGRESS", func(t *testing.T) {
		shipment := createTestShipment(t)
		require.True(t, shipment.MarkInProgress(now))

		require.NoError(t, shipment.Complete(now.Add(time.Hour)))
		assert.Equal(t, ShippingStatusCompleted, shipment.Status)
	})

	t.Run("Completing twice is a no-op", func(t *testing.T) {
		shipment := createTestShipment(t)
		require.True(t, shipment.MarkInProgress(now))
		require.NoError(t, shipment.Complete(now))

		assert.NoError(t, shipment.Complete(now.Add(time.Hour)))
		assert.Equal(t, ShippingStatusCompleted, shipment.Status)
	})

	t.Run("Cannot complete from CREATED", func(t *testing.T) {
		shipment := createTestShipment(t)

		assert.Error(t, shipment.Complete(now))
		assert.Equal(t, ShippingStatusCreated, shipment.Status)
	})

	t.Run("Cannot complete a failed shipment", func(t *testing.T) {
		shipment := createTestShipment(t)
		require.True(t, shipment.Fail(now))

		assert.Error(t, shipment.Complete(now))
		assert.Equal(t, ShippingStatusFailed, shipment.Status)
	})
}

func TestShipmentFail(t *testing.T) {
	now := time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC)

	t.Run("Fails from any state", func(t *testing.T) {
		fromCreated := createTestShipment(t)
		assert.True(t, fromCreated.Fail(now))
		assert.Equal(t, ShippingStatusFailed, fromCreated.Status)

		fromInProgress := createTestShipment(t)
		require.True(t, fromInProgress.MarkInProgress(now))
		assert.True(t, fromInProgress.Fail(now))
		assert.Equal(t, ShippingStatusFailed, fromInProgress.Status)

		fromCompleted := createTestShipment(t)
		require.True(t, fromCompleted.MarkInProgress(now))
		require.NoError(t, fromCompleted.Complete(now))
		assert.True(t, fromCompleted.Fail(now))
		assert.Equal(t, ShippingStatusFailed, fromCompleted.Status)
	})

	t.Run("Failing twice is a no-op", func(t *testing.T) {
		shipment := createTestShipment(t)
		require.True(t, shipment.Fail(now))

		assert.False(t, shipment.Fail(now.Add(time.Minute)))
		assert.Equal(t, now, shipment.UpdatedAt)
	})
}

func TestShippingStatusIsTerminal(t *testing.T) {
	assert.False(t, ShippingStatusCreated.IsTerminal())
	assert.False(t, ShippingStatusInProgress.IsTerminal())
	assert.True(t, ShippingStatusCompleted.IsTerminal())
	assert.True(t, ShippingStatusFailed.IsTerminal())
}

func TestShipmentDomainEvents(t *testing.T) {
	now := time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC)
	shipment := createTestShipment(t)

	require.True(t, shipment.MarkInProgress(now))
	require.NoError(t, shipment.Complete(now))

	events := shipment.GetDomainEvents()
	require.Len(t, events, 3)
	assert.Equal(t, "eshop.shipping.shipment-created", events[0].EventType())
	assert.Equal(t, "eshop.shipping.shipment-in-progress", events[1].EventType())
	assert.Equal(t, "eshop.shipping.shipment-completed", events[2].EventType())

	shipment.ClearDomainEvents()
	assert.Empty(t, shipment.GetDomainEvents())
}
