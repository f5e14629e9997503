package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all service metrics
type Metrics struct {
	serviceName string
	registry    *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Store metrics
	MongoDBOperations        *prometheus.CounterVec
	MongoDBOperationDuration *prometheus.HistogramVec

	// Queue metrics
	QueueMessagesPublished *prometheus.CounterVec
	QueueMessagesConsumed  *prometheus.CounterVec
	QueuePublishDuration   *prometheus.HistogramVec

	// Business metrics
	OrdersPlaced       *prometheus.CounterVec
	ShipmentsCreated   *prometheus.CounterVec
	ShipmentsProcessed *prometheus.CounterVec
	ShipmentsFailed    prometheus.Counter
}

// Config holds metrics configuration
type Config struct {
	ServiceName string
	Namespace   string
	Subsystem   string
}

// DefaultConfig returns default metrics configuration
func DefaultConfig(serviceName string) *Config {
	return &Config{
		ServiceName: serviceName,
		Namespace:   "eshop",
		Subsystem:   serviceName,
	}
}

// New creates a new Metrics instance
func New(config *Config) *Metrics {
	registry := prometheus.NewRegistry()

	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{
		serviceName: config.ServiceName,
		registry:    registry,
	}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"service", "method", "path", "status"})

	m.HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: config.Namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"service", "method", "path"})

	m.HTTPRequestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: config.Namespace,
		Name:      "http_requests_in_flight",
		Help:      "Number of HTTP requests currently being served",
		ConstLabels: prometheus.Labels{
			"service": config.ServiceName,
		},
	})

	m.MongoDBOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Name:      "mongodb_operations_total",
		Help:      "Total number of MongoDB operations",
	}, []string{"service", "collection", "operation", "status"})

	m.MongoDBOperationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: config.Namespace,
		Name:      "mongodb_operation_duration_seconds",
		Help:      "MongoDB operation duration in seconds",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"service", "collection", "operation"})

	m.QueueMessagesPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Name:      "queue_messages_published_total",
		Help:      "Total number of messages published to the shipment queue",
	}, []string{"service", "topic", "status"})

	m.QueueMessagesConsumed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Name:      "queue_messages_consumed_total",
		Help:      "Total number of messages consumed from the shipment queue",
	}, []string{"service", "topic", "status"})

	m.QueuePublishDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: config.Namespace,
		Name:      "queue_publish_duration_seconds",
		Help:      "Queue publish duration in seconds",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"service", "topic"})

	m.OrdersPlaced = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Name:      "orders_placed_total",
		Help:      "Total number of orders placed",
	}, []string{"service", "shipping_type"})

	m.ShipmentsCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Name:      "shipments_created_total",
		Help:      "Total number of shipment records created",
	}, []string{"service", "shipping_type"})

	m.ShipmentsProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Name:      "shipments_processed_total",
		Help:      "Total number of shipments advanced by batch processing",
	}, []string{"service", "status"})

	m.ShipmentsFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Name:      "shipments_failed_total",
		Help:      "Total number of shipments forced to FAILED",
		ConstLabels: prometheus.Labels{
			"service": config.ServiceName,
		},
	})

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.MongoDBOperations,
		m.MongoDBOperationDuration,
		m.QueueMessagesPublished,
		m.QueueMessagesConsumed,
		m.QueuePublishDuration,
		m.OrdersPlaced,
		m.ShipmentsCreated,
		m.ShipmentsProcessed,
		m.ShipmentsFailed,
	)

	return m
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(m.serviceName, method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(m.serviceName, method, path).Observe(duration.Seconds())
}

// IncrementHTTPRequestsInFlight increments the in-flight gauge
func (m *Metrics) IncrementHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Inc()
}

// DecrementHTTPRequestsInFlight decrements the in-flight gauge
func (m *Metrics) DecrementHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Dec()
}

// RecordMongoOperation records a MongoDB operation
func (m *Metrics) RecordMongoOperation(collection, operation string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}
	m.MongoDBOperations.WithLabelValues(m.serviceName, collection, operation, status).Inc()
	m.MongoDBOperationDuration.WithLabelValues(m.serviceName, collection, operation).Observe(duration.Seconds())
}

// RecordQueuePublish records a queue publish attempt
func (m *Metrics) RecordQueuePublish(topic string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}
	m.QueueMessagesPublished.WithLabelValues(m.serviceName, topic, status).Inc()
	m.QueuePublishDuration.WithLabelValues(m.serviceName, topic).Observe(duration.Seconds())
}

// RecordQueueConsume records a consumed queue message
func (m *Metrics) RecordQueueConsume(topic string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.QueueMessagesConsumed.WithLabelValues(m.serviceName, topic, status).Inc()
}

// RecordOrderPlaced records an order placement
func (m *Metrics) RecordOrderPlaced(shippingType string) {
	m.OrdersPlaced.WithLabelValues(m.serviceName, shippingType).Inc()
}

// RecordShipmentCreated records a shipment record creation
func (m *Metrics) RecordShipmentCreated(shippingType string) {
	m.ShipmentsCreated.WithLabelValues(m.serviceName, shippingType).Inc()
}

// RecordShipmentProcessed records a shipment advanced by batch processing
func (m *Metrics) RecordShipmentProcessed(status string) {
	m.ShipmentsProcessed.WithLabelValues(m.serviceName, status).Inc()
}

// RecordShipmentFailed records a forced shipment failure
func (m *Metrics) RecordShipmentFailed() {
	m.ShipmentsFailed.Inc()
}

// Handler returns an HTTP handler for the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
