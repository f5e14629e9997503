package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/eshop-platform/shipping-service/internal/domain"
	"github.com/eshop-platform/shipping-service/pkg/errors"
	"github.com/eshop-platform/shipping-service/pkg/logging"
	"github.com/eshop-platform/shipping-service/pkg/metrics"
)

// Batch processing defaults
const (
	DefaultBatchSize = 10
	DefaultPollWait  = 10 * time.Second
)

// ShippingApplicationService coordinates the shipment lifecycle: it creates
// shipment records, feeds them onto the queue, drains the queue in batches to
// advance their state, and answers status queries. It holds no state beyond
// its collaborators; every store or queue call is an independent round trip.
type ShippingApplicationService struct {
	repo     domain.ShipmentRepository
	queue    domain.ShipmentQueue
	logger   *logging.Logger
	metrics  *metrics.Metrics
	clock    func() time.Time
	idgen    func() string
	pollWait time.Duration
}

// Option configures a ShippingApplicationService
type Option func(*ShippingApplicationService)

// WithClock overrides the time source
func WithClock(clock func() time.Time) Option {
	return func(s *ShippingApplicationService) { s.clock = clock }
}

// WithIDGenerator overrides the shipping id generator
func WithIDGenerator(idgen func() string) Option {
	return func(s *ShippingApplicationService) { s.idgen = idgen }
}

// WithPollWait overrides how long a batch poll waits for messages
func WithPollWait(wait time.Duration) Option {
	return func(s *ShippingApplicationService) { s.pollWait = wait }
}

// NewShippingApplicationService creates a new ShippingApplicationService
func NewShippingApplicationService(
	repo domain.ShipmentRepository,
	queue domain.ShipmentQueue,
	logger *logging.Logger,
	m *metrics.Metrics,
	opts ...Option,
) *ShippingApplicationService {
	s := &ShippingApplicationService{
		repo:     repo,
		queue:    queue,
		logger:   logger,
		metrics:  m,
		clock:    time.Now,
		idgen:    uuid.NewString,
		pollWait: DefaultPollWait,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AvailableShippingTypes returns the supported shipping types in stable order
func (s *ShippingApplicationService) AvailableShippingTypes() []string {
	return domain.ShippingTypes()
}

// CreateShipping validates the shipping type and due date, persists a new
// shipment record in CREATED state, publishes its id to the queue, and
// returns the id. If the publish fails the CREATED record remains in the
// store; ReconcileUnpublished re-publishes such records out of band.
func (s *ShippingApplicationService) CreateShipping(ctx context.Context, shippingType string, productIDs []string, orderID string, dueDate time.Time) (string, error) {
	now := s.clock()
	shipment, err := domain.NewShipment(s.idgen(), shippingType, orderID, productIDs, now, dueDate)
	if err != nil {
		return "", err
	}

	if err := s.repo.Create(ctx, shipment); err != nil {
		s.logger.WithError(err).Error("Failed to create shipment", "orderId", orderID)
		return "", fmt.Errorf("failed to create shipment: %w", err)
	}
	s.metrics.RecordShipmentCreated(shippingType)

	messageID, err := s.queue.Publish(ctx, shipment.ShippingID)
	if err != nil {
		// The record exists in CREATED state but never made it onto the
		// queue. Surface a collaborator error; the reconciliation sweep
		// picks the record up later.
		s.logger.WithError(err).Error("Failed to publish shipment to queue",
			"shippingId", shipment.ShippingID, "orderId", orderID)
		return "", errors.ErrServiceUnavailable("shipment queue").Wrap(err)
	}

	s.logger.Info("Created shipment",
		"shippingId", shipment.ShippingID,
		"orderId", orderID,
		"shippingType", shippingType,
		"messageId", messageID,
		"dueDate", shipment.DueDate)

	return shipment.ShippingID, nil
}

// ProcessShippingBatch polls up to batchSize messages from the queue and
// advances each matching shipment from CREATED to IN_PROGRESS. The advance is
// idempotent, so redelivered messages are acknowledged without a second state
// change. Messages are acknowledged only after the store write succeeds;
// unacknowledged messages are redelivered. Returns the ids processed in this
// call; an empty queue yields an empty slice.
func (s *ShippingApplicationService) ProcessShippingBatch(ctx context.Context, batchSize int) ([]string, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	deliveries, err := s.queue.Poll(ctx, batchSize, s.pollWait)
	if err != nil {
		return nil, errors.ErrServiceUnavailable("shipment queue").Wrap(err)
	}

	processed := make([]string, 0, len(deliveries))
	for _, delivery := range deliveries {
		shippingID := delivery.Body

		shipment, err := s.repo.FindByID(ctx, shippingID)
		if err != nil {
			// Leave the message unacknowledged; redelivery retries it.
			s.logger.WithError(err).Error("Failed to load shipment for batch processing", "shippingId", shippingID)
			continue
		}
		if shipment == nil {
			// Poison message: the body does not identify a known record.
			// Acknowledge it so it is not redelivered forever.
			s.logger.Warn("Dropping queue message for unknown shipment", "shippingId", shippingID)
			if err := s.queue.Ack(ctx, delivery.Receipt); err != nil {
				s.logger.WithError(err).Error("Failed to ack unknown shipment message", "shippingId", shippingID)
			}
			continue
		}

		if shipment.MarkInProgress(s.clock()) {
			if err := s.repo.UpdateStatus(ctx, shippingID, shipment.Status); err != nil {
				// Leave the message unacknowledged; redelivery retries it.
				s.logger.WithError(err).Error("Failed to advance shipment", "shippingId", shippingID)
				continue
			}
			s.metrics.RecordShipmentProcessed(string(shipment.Status))
		}

		if err := s.queue.Ack(ctx, delivery.Receipt); err != nil {
			s.logger.WithError(err).Error("Failed to ack shipment message", "shippingId", shippingID)
			// The status advance already committed; redelivery is harmless.
		}

		processed = append(processed, shippingID)
	}

	if len(processed) > 0 {
		s.logger.Info("Processed shipping batch", "count", len(processed))
	}

	return processed, nil
}

// CheckStatus returns the latest committed status of a shipment. Reads go
// straight to the store; there is no cache that could serve a stale status.
func (s *ShippingApplicationService) CheckStatus(ctx context.Context, shippingID string) (domain.ShippingStatus, error) {
	shipment, err := s.repo.FindByID(ctx, shippingID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to check shipment status", "shippingId", shippingID)
		return "", fmt.Errorf("failed to check shipment status: %w", err)
	}
	if shipment == nil {
		return "", errors.ErrNotFoundWithID("shipment", shippingID)
	}

	return shipment.Status, nil
}

// GetShipment returns the full shipment record
func (s *ShippingApplicationService) GetShipment(ctx context.Context, shippingID string) (*ShipmentDTO, error) {
	shipment, err := s.repo.FindByID(ctx, shippingID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get shipment", "shippingId", shippingID)
		return nil, fmt.Errorf("failed to get shipment: %w", err)
	}
	if shipment == nil {
		return nil, errors.ErrNotFoundWithID("shipment", shippingID)
	}

	return ToShipmentDTO(shipment), nil
}

// FailShipping forces a shipment to FAILED regardless of its current state.
// Administrative override used to simulate delivery failure; idempotent.
func (s *ShippingApplicationService) FailShipping(ctx context.Context, shippingID string) error {
	shipment, err := s.repo.FindByID(ctx, shippingID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load shipment", "shippingId", shippingID)
		return fmt.Errorf("failed to load shipment: %w", err)
	}
	if shipment == nil {
		return errors.ErrNotFoundWithID("shipment", shippingID)
	}

	if !shipment.Fail(s.clock()) {
		return nil
	}

	if err := s.repo.UpdateStatus(ctx, shippingID, shipment.Status); err != nil {
		s.logger.WithError(err).Error("Failed to fail shipment", "shippingId", shippingID)
		return fmt.Errorf("failed to fail shipment: %w", err)
	}

	s.metrics.RecordShipmentFailed()
	s.logger.Info("Failed shipment", "shippingId", shippingID)
	return nil
}

// ReconcileUnpublished re-publishes CREATED records older than the given age.
// This is the operator-level sweep for records whose queue publish failed
// after persistence succeeded. Safe to run at any time: re-publishing a
// record whose message is still in flight only causes a redundant delivery,
// which the idempotent status advance absorbs.
func (s *ShippingApplicationService) ReconcileUnpublished(ctx context.Context, olderThan time.Duration) ([]string, error) {
	cutoff := s.clock().Add(-olderThan)

	stale, err := s.repo.FindStaleCreated(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to find stale shipments: %w", err)
	}

	republished := make([]string, 0, len(stale))
	for _, shipment := range stale {
		if _, err := s.queue.Publish(ctx, shipment.ShippingID); err != nil {
			s.logger.WithError(err).Error("Failed to re-publish stale shipment", "shippingId", shipment.ShippingID)
			continue
		}
		republished = append(republished, shipment.ShippingID)
	}

	if len(republished) > 0 {
		s.logger.Info("Re-published stale shipments", "count", len(republished))
	}

	return republished, nil
}
