package kafkaqueue

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/eshop-platform/shipping-service/internal/domain"
	"github.com/eshop-platform/shipping-service/pkg/errors"
	"github.com/eshop-platform/shipping-service/pkg/logging"
	"github.com/eshop-platform/shipping-service/pkg/metrics"
)

// DefaultTopic is the topic shipment ids are published to
const DefaultTopic = "eshop.shipping.new"

// Config holds Kafka queue configuration
type Config struct {
	Brokers       []string
	Topic         string
	ConsumerGroup string
	ClientID      string

	// Producer settings
	BatchTimeout time.Duration
	RequiredAcks int // 0: no ack, 1: leader ack, -1: all replicas ack

	// Consumer settings
	MinBytes int
	MaxBytes int
	MaxWait  time.Duration
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Brokers:       []string{"localhost:9092"},
		Topic:         DefaultTopic,
		ConsumerGroup: "shipping-service",
		ClientID:      "shipping-service",

		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: -1, // All replicas

		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
		MaxWait:  500 * time.Millisecond,
	}
}

// Queue is a Kafka-backed shipment queue with at-least-once delivery.
// Messages become visible to consumers only after a successful publish,
// and redelivery happens for any message fetched but never acknowledged.
type Queue struct {
	config  *Config
	writer  *kafka.Writer
	reader  *kafka.Reader
	logger  *logging.Logger
	metrics *metrics.Metrics
	tracker *ackTracker
}

// NewQueue creates a Queue over the configured brokers
func NewQueue(config *Config, logger *logging.Logger, m *metrics.Metrics) *Queue {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(config.Brokers...),
		Topic:        config.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: config.BatchTimeout,
		RequiredAcks: kafka.RequiredAcks(config.RequiredAcks),
		Async:        false,
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  config.Brokers,
		GroupID:  config.ConsumerGroup,
		Topic:    config.Topic,
		MinBytes: config.MinBytes,
		MaxBytes: config.MaxBytes,
		MaxWait:  config.MaxWait,
		// Offsets are committed explicitly on Ack, never on an interval.
		CommitInterval: 0,
	})

	return &Queue{
		config:  config,
		writer:  writer,
		reader:  reader,
		logger:  logger,
		metrics: m,
		tracker: newAckTracker(),
	}
}

// Publish writes the shipment id to the queue and returns the message id
func (q *Queue) Publish(ctx context.Context, body string) (string, error) {
	messageID := uuid.New().String()
	start := time.Now()

	err := q.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(body),
		Value: []byte(body),
		Headers: []kafka.Header{
			{Key: "message-id", Value: []byte(messageID)},
		},
		Time: start,
	})
	q.metrics.RecordQueuePublish(q.config.Topic, err == nil, time.Since(start))
	q.logger.QueuePublish(ctx, q.config.Topic, messageID, err == nil, time.Since(start))

	if err != nil {
		return "", errors.ErrServiceUnavailable("shipment queue").Wrap(err)
	}
	return messageID, nil
}

// Poll fetches up to maxMessages deliveries, waiting at most wait for the
// first one. A short wait with nothing queued returns an empty slice.
func (q *Queue) Poll(ctx context.Context, maxMessages int, wait time.Duration) ([]domain.Delivery, error) {
	pollCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	start := time.Now()
	deliveries := make([]domain.Delivery, 0, maxMessages)

	for len(deliveries) < maxMessages {
		msg, err := q.reader.FetchMessage(pollCtx)
		if err != nil {
			// Deadline exhaustion ends the poll with whatever was fetched
			if pollCtx.Err() != nil && ctx.Err() == nil {
				break
			}
			if ctx.Err() != nil {
				return deliveries, ctx.Err()
			}
			q.metrics.RecordQueueConsume(q.config.Topic, false)
			return deliveries, errors.ErrServiceUnavailable("shipment queue").Wrap(err)
		}

		receipt := uuid.New().String()
		q.tracker.track(receipt, msg)

		q.metrics.RecordQueueConsume(q.config.Topic, true)
		deliveries = append(deliveries, domain.Delivery{
			Body:    string(msg.Value),
			Receipt: receipt,
		})
	}

	q.logger.QueuePoll(ctx, q.config.Topic, len(deliveries), time.Since(start))
	return deliveries, nil
}

// Ack marks the delivery acknowledged and commits the highest offset of
// its partition that every earlier fetched message has also acked.
// Commits past an unacked message are held back until that message is
// acked, since committing it would cancel its redelivery. Unknown
// receipts are ignored so a redelivered message acked twice stays
// harmless.
func (q *Queue) Ack(ctx context.Context, receipt string) error {
	msg, ok := q.tracker.ack(receipt)
	if !ok {
		return nil
	}

	if err := q.reader.CommitMessages(ctx, msg); err != nil {
		// The tracker keeps the acked state, so acking again retries
		// the commit
		return errors.ErrServiceUnavailable("shipment queue").Wrap(err)
	}
	q.tracker.committed(msg)
	return nil
}

// Close releases the underlying writer and reader
func (q *Queue) Close() error {
	werr := q.writer.Close()
	rerr := q.reader.Close()
	if werr != nil {
		return werr
	}
	return rerr
}
