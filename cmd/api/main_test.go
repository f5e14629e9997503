package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshop-platform/shipping-service/internal/application"
	"github.com/eshop-platform/shipping-service/internal/domain"
	"github.com/eshop-platform/shipping-service/pkg/logging"
	"github.com/eshop-platform/shipping-service/pkg/metrics"
	"github.com/eshop-platform/shipping-service/pkg/middleware"
)

type memoryShipmentRepository struct {
	mu        sync.Mutex
	shipments map[string]*domain.Shipment
}

func newMemoryShipmentRepository() *memoryShipmentRepository {
	return &memoryShipmentRepository{shipments: make(map[string]*domain.Shipment)}
}

func (r *memoryShipmentRepository) Create(_ context.Context, shipment *domain.Shipment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shipments[shipment.ShippingID] = shipment
	return nil
}

func (r *memoryShipmentRepository) FindByID(_ context.Context, shippingID string) (*domain.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shipments[shippingID], nil
}

func (r *memoryShipmentRepository) FindByOrderID(_ context.Context, orderID string) (*domain.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, shipment := range r.shipments {
		if shipment.OrderID == orderID {
			return shipment, nil
		}
	}
	return nil, nil
}

func (r *memoryShipmentRepository) FindByStatus(_ context.Context, status domain.ShippingStatus) ([]*domain.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var found []*domain.Shipment
	for _, shipment := range r.shipments {
		if shipment.Status == status {
			found = append(found, shipment)
		}
	}
	return found, nil
}

func (r *memoryShipmentRepository) UpdateStatus(_ context.Context, shippingID string, status domain.ShippingStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if shipment, ok := r.shipments[shippingID]; ok {
		shipment.Status = status
	}
	return nil
}

func (r *memoryShipmentRepository) FindStaleCreated(_ context.Context, _ time.Time) ([]*domain.Shipment, error) {
	return nil, nil
}

type memoryShipmentQueue struct {
	mu        sync.Mutex
	published []string
}

func (q *memoryShipmentQueue) Publish(_ context.Context, body string) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.published = append(q.published, body)
	return fmt.Sprintf("message-%d", len(q.published)), nil
}

func (q *memoryShipmentQueue) Poll(_ context.Context, _ int, _ time.Duration) ([]domain.Delivery, error) {
	return nil, nil
}

func (q *memoryShipmentQueue) Ack(_ context.Context, _ string) error {
	return nil
}

func newOrderTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	middleware.InitValidator()

	logger := logging.New(&logging.Config{
		ServiceName: "shipping-service",
		Output:      io.Discard,
	})
	m := metrics.New(metrics.DefaultConfig("shipping-service"))
	service := application.NewShippingApplicationService(
		newMemoryShipmentRepository(), &memoryShipmentQueue{}, logger, m,
	)

	router := gin.New()
	router.POST("/api/v1/orders", placeOrderHandler(service, logger, m))
	return router
}

func postOrder(t *testing.T, router *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestPlaceOrderHandler(t *testing.T) {
	router := newOrderTestRouter(t)

	t.Run("Places an order and returns the shipment id", func(t *testing.T) {
		recorder := postOrder(t, router, `{
			"shippingType": "standard",
			"items": [{"name": "Monitor", "price": 249.99, "amount": 2}]
		}`)

		require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())
		assert.Contains(t, recorder.Body.String(), "shippingId")
		assert.Contains(t, recorder.Body.String(), "orderId")
	})

	t.Run("Accepts a free item with price zero", func(t *testing.T) {
		recorder := postOrder(t, router, `{
			"shippingType": "express",
			"items": [{"name": "Sticker Pack", "price": 0, "amount": 1}]
		}`)

		require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())
		assert.Contains(t, recorder.Body.String(), `"total":0`)
	})

	t.Run("Rejects a negative price", func(t *testing.T) {
		recorder := postOrder(t, router, `{
			"shippingType": "standard",
			"items": [{"name": "Monitor", "price": -1, "amount": 1}]
		}`)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("Rejects an unknown shipping type", func(t *testing.T) {
		recorder := postOrder(t, router, `{
			"shippingType": "drone",
			"items": [{"name": "Monitor", "price": 249.99, "amount": 1}]
		}`)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("Rejects an empty item list", func(t *testing.T) {
		recorder := postOrder(t, router, `{"shippingType": "standard", "items": []}`)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}
