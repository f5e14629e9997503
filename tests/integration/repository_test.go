package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmongodb "github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/eshop-platform/shipping-service/internal/domain"
	appmongo "github.com/eshop-platform/shipping-service/internal/infrastructure/mongodb"
	"github.com/eshop-platform/shipping-service/pkg/errors"
	"github.com/eshop-platform/shipping-service/pkg/metrics"
)

func createShipmentRecord(t *testing.T, shippingID, orderID string, createdDate time.Time) *domain.Shipment {
	t.Helper()
	shipment, err := domain.NewShipment(shippingID, "standard", orderID,
		[]string{"usb cable", "keyboard"}, createdDate, createdDate.Add(72*time.Hour))
	require.NoError(t, err)
	return shipment
}

func setupTestRepository(t *testing.T) (*appmongo.ShipmentRepository, func()) {
	ctx := context.Background()

	mongoContainer, err := tcmongodb.Run(ctx, "mongo:7")
	testcontainers.CleanupContainer(t, mongoContainer)
	require.NoError(t, err)

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)

	db := client.Database("test_shipping_db")
	repo := appmongo.NewShipmentRepository(db, metrics.New(metrics.DefaultConfig("shipping-service-test")))

	cleanup := func() {
		if err := client.Disconnect(ctx); err != nil {
			t.Logf("Failed to disconnect MongoDB client: %v", err)
		}
	}

	return repo, cleanup
}

func TestShipmentRepository_Create(t *testing.T) {
	repo, cleanup := setupTestRepository(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	t.Run("Create new shipment", func(t *testing.T) {
		shipment := createShipmentRecord(t, "SHIP-001", "ORD-001", time.Now().UTC())

		err := repo.Create(ctx, shipment)
		assert.NoError(t, err)

		found, err := repo.FindByID(ctx, "SHIP-001")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "SHIP-001", found.ShippingID)
		assert.Equal(t, "ORD-001", found.OrderID)
		assert.Equal(t, []string{"usb cable", "keyboard"}, found.ProductIDs)
		assert.Equal(t, domain.ShippingStatusCreated, found.Status)
	})

	t.Run("Duplicate shipping id conflicts", func(t *testing.T) {
		shipment := createShipmentRecord(t, "SHIP-002", "ORD-002", time.Now().UTC())
		require.NoError(t, repo.Create(ctx, shipment))

		duplicate := createShipmentRecord(t, "SHIP-002", "ORD-003", time.Now().UTC())
		err := repo.Create(ctx, duplicate)
		require.Error(t, err)

		appErr, ok := errors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.CodeConflict, appErr.Code)
	})
}

func TestShipmentRepository_FindByID(t *testing.T) {
	repo, cleanup := setupTestRepository(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	t.Run("Find existing shipment", func(t *testing.T) {
		shipment := createShipmentRecord(t, "SHIP-003", "ORD-003", time.Now().UTC())
		require.NoError(t, repo.Create(ctx, shipment))

		found, err := repo.FindByID(ctx, "SHIP-003")
		assert.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "SHIP-003", found.ShippingID)
	})

	t.Run("Find non-existent shipment", func(t *testing.T) {
		found, err := repo.FindByID(ctx, "SHIP-NONEXISTENT")
		assert.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestShipmentRepository_FindByOrderID(t *testing.T) {
	repo, cleanup := setupTestRepository(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	t.Run("Find shipment by order id", func(t *testing.T) {
		shipment := createShipmentRecord(t, "SHIP-004", "ORD-004", time.Now().UTC())
		require.NoError(t, repo.Create(ctx, shipment))

		found, err := repo.FindByOrderID(ctx, "ORD-004")
		assert.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "SHIP-004", found.ShippingID)
	})

	t.Run("Find for non-existent order", func(t *testing.T) {
		found, err := repo.FindByOrderID(ctx, "ORD-NONEXISTENT")
		assert.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestShipmentRepository_UpdateStatus(t *testing.T) {
	repo, cleanup := setupTestRepository(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	t.Run("Update existing shipment", func(t *testing.T) {
		shipment := createShipmentRecord(t, "SHIP-005", "ORD-005", time.Now().UTC())
		require.NoError(t, repo.Create(ctx, shipment))

		err := repo.UpdateStatus(ctx, "SHIP-005", domain.ShippingStatusInProgress)
		assert.NoError(t, err)

		found, err := repo.FindByID(ctx, "SHIP-005")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, domain.ShippingStatusInProgress, found.Status)
		assert.True(t, found.UpdatedAt.After(found.CreatedDate))
	})

	t.Run("Update non-existent shipment", func(t *testing.T) {
		err := repo.UpdateStatus(ctx, "SHIP-NONEXISTENT", domain.ShippingStatusFailed)
		require.Error(t, err)
		assert.True(t, errors.IsNotFound(err))
	})
}

func TestShipmentRepository_FindByStatus(t *testing.T) {
	repo, cleanup := setupTestRepository(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for i := 1; i <= 3; i++ {
		shipment := createShipmentRecord(t,
			fmt.Sprintf("SHIP-STATUS-%d", i),
			fmt.Sprintf("ORD-STATUS-%d", i),
			time.Now().UTC())
		require.NoError(t, repo.Create(ctx, shipment))
	}
	require.NoError(t, repo.UpdateStatus(ctx, "SHIP-STATUS-3", domain.ShippingStatusFailed))

	t.Run("Find shipments by status", func(t *testing.T) {
		shipments, err := repo.FindByStatus(ctx, domain.ShippingStatusCreated)
		assert.NoError(t, err)
		assert.Len(t, shipments, 2)
		for _, shipment := range shipments {
			assert.Equal(t, domain.ShippingStatusCreated, shipment.Status)
		}
	})

	t.Run("Find with no matching status", func(t *testing.T) {
		shipments, err := repo.FindByStatus(ctx, domain.ShippingStatusCompleted)
		assert.NoError(t, err)
		assert.Empty(t, shipments)
	})
}

func TestShipmentRepository_FindStaleCreated(t *testing.T) {
	repo, cleanup := setupTestRepository(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := time.Now().UTC()

	stale := createShipmentRecord(t, "SHIP-STALE-1", "ORD-STALE-1", now.Add(-10*time.Minute))
	require.NoError(t, repo.Create(ctx, stale))

	fresh := createShipmentRecord(t, "SHIP-FRESH-1", "ORD-FRESH-1", now)
	require.NoError(t, repo.Create(ctx, fresh))

	advanced := createShipmentRecord(t, "SHIP-ADVANCED-1", "ORD-ADVANCED-1", now.Add(-10*time.Minute))
	require.NoError(t, repo.Create(ctx, advanced))
	require.NoError(t, repo.UpdateStatus(ctx, "SHIP-ADVANCED-1", domain.ShippingStatusInProgress))

	t.Run("Only stale CREATED records are returned", func(t *testing.T) {
		shipments, err := repo.FindStaleCreated(ctx, now.Add(-5*time.Minute))
		assert.NoError(t, err)
		require.Len(t, shipments, 1)
		assert.Equal(t, "SHIP-STALE-1", shipments[0].ShippingID)
	})

	t.Run("Cutoff before all records returns nothing", func(t *testing.T) {
		shipments, err := repo.FindStaleCreated(ctx, now.Add(-time.Hour))
		assert.NoError(t, err)
		assert.Empty(t, shipments)
	})
}
