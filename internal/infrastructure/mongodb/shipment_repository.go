package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/eshop-platform/shipping-service/internal/domain"
	"github.com/eshop-platform/shipping-service/pkg/errors"
	"github.com/eshop-platform/shipping-service/pkg/metrics"
)

const collectionName = "shipments"

// ShipmentRepository is the MongoDB-backed shipment store
type ShipmentRepository struct {
	collection *mongo.Collection
	metrics    *metrics.Metrics
}

// NewShipmentRepository creates a ShipmentRepository over the given database
func NewShipmentRepository(db *mongo.Database, m *metrics.Metrics) *ShipmentRepository {
	repo := &ShipmentRepository{
		collection: db.Collection(collectionName),
		metrics:    m,
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *ShipmentRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "shippingId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "orderId", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdDate", Value: 1}}},
	}
	_, _ = r.collection.Indexes().CreateMany(ctx, indexes)
}

// Create persists a new shipment record. The generated shipping id carries a
// unique index; a collision surfaces as a conflict error.
func (r *ShipmentRepository) Create(ctx context.Context, shipment *domain.Shipment) error {
	start := time.Now()
	_, err := r.collection.InsertOne(ctx, shipment)
	r.record("insert", err == nil, start)

	if mongo.IsDuplicateKeyError(err) {
		return errors.ErrConflict("shipment already exists").Wrap(err)
	}
	if err != nil {
		return errors.ErrServiceUnavailable("shipment store").Wrap(err)
	}
	return nil
}

// FindByID returns the shipment with the given id, or (nil, nil) when absent
func (r *ShipmentRepository) FindByID(ctx context.Context, shippingID string) (*domain.Shipment, error) {
	start := time.Now()
	var s domain.Shipment
	err := r.collection.FindOne(ctx, bson.M{"shippingId": shippingID}).Decode(&s)
	if err == mongo.ErrNoDocuments {
		r.record("findOne", true, start)
		return nil, nil
	}
	r.record("findOne", err == nil, start)
	if err != nil {
		return nil, errors.ErrServiceUnavailable("shipment store").Wrap(err)
	}
	return &s, nil
}

// FindByOrderID returns the shipment created for the order, or (nil, nil)
func (r *ShipmentRepository) FindByOrderID(ctx context.Context, orderID string) (*domain.Shipment, error) {
	start := time.Now()
	var s domain.Shipment
	err := r.collection.FindOne(ctx, bson.M{"orderId": orderID}).Decode(&s)
	if err == mongo.ErrNoDocuments {
		r.record("findOne", true, start)
		return nil, nil
	}
	r.record("findOne", err == nil, start)
	if err != nil {
		return nil, errors.ErrServiceUnavailable("shipment store").Wrap(err)
	}
	return &s, nil
}

// FindByStatus returns all shipments with the given status
func (r *ShipmentRepository) FindByStatus(ctx context.Context, status domain.ShippingStatus) ([]*domain.Shipment, error) {
	start := time.Now()
	cursor, err := r.collection.Find(ctx, bson.M{"status": status})
	if err != nil {
		r.record("find", false, start)
		return nil, errors.ErrServiceUnavailable("shipment store").Wrap(err)
	}
	defer cursor.Close(ctx)

	var shipments []*domain.Shipment
	err = cursor.All(ctx, &shipments)
	r.record("find", err == nil, start)
	if err != nil {
		return nil, errors.ErrServiceUnavailable("shipment store").Wrap(err)
	}
	return shipments, nil
}

// UpdateStatus sets the shipment's status. Fails with a not-found error when
// the id is unknown.
func (r *ShipmentRepository) UpdateStatus(ctx context.Context, shippingID string, status domain.ShippingStatus) error {
	start := time.Now()
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"shippingId": shippingID},
		bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now().UTC()}},
	)
	r.record("updateOne", err == nil, start)

	if err != nil {
		return errors.ErrServiceUnavailable("shipment store").Wrap(err)
	}
	if result.MatchedCount == 0 {
		return errors.ErrNotFoundWithID("shipment", shippingID)
	}
	return nil
}

// FindStaleCreated returns shipments still in CREATED state created before
// the cutoff, for the reconciliation sweep
func (r *ShipmentRepository) FindStaleCreated(ctx context.Context, cutoff time.Time) ([]*domain.Shipment, error) {
	start := time.Now()
	filter := bson.M{
		"status":      domain.ShippingStatusCreated,
		"createdDate": bson.M{"$lt": cutoff.UTC()},
	}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		r.record("find", false, start)
		return nil, errors.ErrServiceUnavailable("shipment store").Wrap(err)
	}
	defer cursor.Close(ctx)

	var shipments []*domain.Shipment
	err = cursor.All(ctx, &shipments)
	r.record("find", err == nil, start)
	if err != nil {
		return nil, errors.ErrServiceUnavailable("shipment store").Wrap(err)
	}
	return shipments, nil
}

func (r *ShipmentRepository) record(operation string, success bool, start time.Time) {
	if r.metrics != nil {
		r.metrics.RecordMongoOperation(collectionName, operation, success, time.Since(start))
	}
}
