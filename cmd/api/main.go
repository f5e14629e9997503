package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/eshop-platform/shipping-service/internal/application"
	"github.com/eshop-platform/shipping-service/internal/domain"
	"github.com/eshop-platform/shipping-service/internal/infrastructure/kafkaqueue"
	mongoRepo "github.com/eshop-platform/shipping-service/internal/infrastructure/mongodb"
	"github.com/eshop-platform/shipping-service/pkg/errors"
	"github.com/eshop-platform/shipping-service/pkg/logging"
	"github.com/eshop-platform/shipping-service/pkg/metrics"
	"github.com/eshop-platform/shipping-service/pkg/middleware"
	"github.com/eshop-platform/shipping-service/pkg/tracing"
)

const serviceName = "shipping-service"

func main() {
	// Setup enhanced logger
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting shipping-service API")

	// Load configuration
	config := loadConfig()
	ctx := context.Background()

	// Initialize OpenTelemetry tracing
	tracingConfig := tracing.DefaultConfig(serviceName)
	tracingConfig.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	tracingConfig.Environment = getEnv("ENVIRONMENT", "development")
	tracingConfig.Enabled = getEnv("TRACING_ENABLED", "true") == "true"

	tracerProvider, err := tracing.Initialize(ctx, tracingConfig)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
		// Continue without tracing - don't exit
	} else if tracerProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
		logger.Info("Tracing initialized", "endpoint", tracingConfig.OTLPEndpoint)
	}

	// Initialize Prometheus metrics
	metricsConfig := metrics.DefaultConfig(serviceName)
	m := metrics.New(metricsConfig)
	logger.Info("Metrics initialized")

	// Initialize MongoDB
	mongoClient, err := mongo.Connect(ctx, options.Client().
		ApplyURI(config.MongoURI).
		SetConnectTimeout(10*time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(10))
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	defer mongoClient.Disconnect(ctx)

	pingCtx, cancelPing := context.WithTimeout(ctx, 10*time.Second)
	if err := mongoClient.Ping(pingCtx, readpref.Primary()); err != nil {
		cancelPing()
		logger.WithError(err).Error("Failed to ping MongoDB")
		os.Exit(1)
	}
	cancelPing()
	db := mongoClient.Database(config.MongoDatabase)
	logger.Info("Connected to MongoDB", "database", config.MongoDatabase)

	// Initialize the shipment queue
	queue := kafkaqueue.NewQueue(config.Queue, logger, m)
	defer queue.Close()
	logger.Info("Shipment queue initialized", "brokers", config.Queue.Brokers, "topic", config.Queue.Topic)

	// Initialize repository and application service
	repo := mongoRepo.NewShipmentRepository(db, m)
	shippingService := application.NewShippingApplicationService(repo, queue, logger, m)

	// Start the background batch poller
	pollerCtx, stopPoller := context.WithCancel(ctx)
	defer stopPoller()
	if config.PollerEnabled {
		go runBatchPoller(pollerCtx, shippingService, config, logger)
		logger.Info("Batch poller started",
			"interval", config.PollerInterval.String(),
			"batchSize", config.PollerBatchSize,
		)
	}

	// Setup Gin router with middleware
	router := gin.New()

	// Apply standard middleware (includes recovery, request ID, correlation, logging, error handling)
	middlewareConfig := middleware.DefaultConfig(serviceName, logger.Logger)
	middleware.Setup(router, middlewareConfig)

	// Add metrics middleware
	router.Use(middleware.MetricsMiddleware(m))

	// Add tracing middleware
	router.Use(middleware.Tracing(serviceName))

	// Handle 404 and 405 errors
	router.NoRoute(middleware.NoRoute())
	router.NoMethod(middleware.NoMethod())

	// Health check endpoints
	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, func() error {
		checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return mongoClient.Ping(checkCtx, readpref.Primary())
	}))

	// Metrics endpoint
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	// API v1 routes
	api := router.Group("/api/v1")
	{
		api.POST("/orders", placeOrderHandler(shippingService, logger, m))
		api.GET("/shipping-types", shippingTypesHandler(shippingService))

		shipments := api.Group("/shipments")
		{
			shipments.GET("/:shippingId", getShipmentHandler(shippingService, logger))
			shipments.GET("/:shippingId/status", checkStatusHandler(shippingService, logger))
			shipments.POST("/:shippingId/fail", failShipmentHandler(shippingService, logger))
			shipments.POST("/process-batch", processBatchHandler(shippingService, logger))
			shipments.POST("/reconcile", reconcileHandler(shippingService, logger))
		}
	}

	// Start server
	srv := &http.Server{
		Addr:         config.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "error", err)
		}
	}()
	logger.Info("Server started", "addr", config.ServerAddr)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	stopPoller()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server stopped")
}

// runBatchPoller drains the shipment queue on a fixed interval until the
// context is cancelled
func runBatchPoller(ctx context.Context, service *application.ShippingApplicationService, config *Config, logger *logging.Logger) {
	ticker := time.NewTicker(config.PollerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Batch poller stopped")
			return
		case <-ticker.C:
			processed, err := service.ProcessShippingBatch(ctx, config.PollerBatchSize)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.WithError(err).Error("Batch processing failed")
				continue
			}
			if len(processed) > 0 {
				logger.Info("Batch processed", "count", len(processed))
			}
		}
	}
}

// Config holds application configuration
type Config struct {
	ServerAddr    string
	MongoURI      string
	MongoDatabase string
	Queue         *kafkaqueue.Config

	PollerEnabled   bool
	PollerInterval  time.Duration
	PollerBatchSize int
}

func loadConfig() *Config {
	queueConfig := kafkaqueue.DefaultConfig()
	queueConfig.Brokers = []string{getEnv("KAFKA_BROKERS", "localhost:9092")}
	queueConfig.Topic = getEnv("SHIPMENT_TOPIC", kafkaqueue.DefaultTopic)
	queueConfig.ConsumerGroup = serviceName
	queueConfig.ClientID = serviceName

	return &Config{
		ServerAddr:    getEnv("SERVER_ADDR", ":8007"),
		MongoURI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGODB_DATABASE", "shipping_db"),
		Queue:         queueConfig,

		PollerEnabled:   getEnv("POLLER_ENABLED", "true") == "true",
		PollerInterval:  getEnvDuration("POLLER_INTERVAL", 5*time.Second),
		PollerBatchSize: getEnvInt("POLLER_BATCH_SIZE", application.DefaultBatchSize),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// HTTP Handlers

func placeOrderHandler(service *application.ShippingApplicationService, logger *logging.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			ShippingType string     `json:"shippingType" binding:"required"`
			DueDate      *time.Time `json:"dueDate"`
			Items        []struct {
				Name            string  `json:"name" binding:"required,product_name"`
				Price           float64 `json:"price" binding:"gte=0"`
				Amount          int     `json:"amount" binding:"required,gt=0"`
				AvailableAmount *int    `json:"availableAmount"`
			} `json:"items" binding:"required,min=1,dive"`
		}

		if err := c.ShouldBindJSON(&req); err != nil {
			responder.RespondWithAppError(errors.ErrValidation(err.Error()))
			return
		}

		cart := domain.NewShoppingCart()
		for _, item := range req.Items {
			available := item.Amount
			if item.AvailableAmount != nil {
				available = *item.AvailableAmount
			}
			product, err := domain.NewProduct(item.Name, item.Price, available)
			if err != nil {
				responder.RespondWithError(err)
				return
			}
			if err := cart.AddProduct(product, item.Amount); err != nil {
				responder.RespondWithError(err)
				return
			}
		}
		total := cart.CalculateTotal()

		order := domain.NewOrder(cart, service)

		middleware.AddSpanAttributes(c, map[string]interface{}{
			"order.id":      order.OrderID,
			"shipping.type": req.ShippingType,
		})

		var dueDate time.Time
		if req.DueDate != nil {
			dueDate = *req.DueDate
		}

		shippingID, err := order.PlaceOrder(c.Request.Context(), req.ShippingType, dueDate)
		if err != nil {
			responder.RespondWithError(err)
			return
		}
		m.RecordOrderPlaced(req.ShippingType)

		c.JSON(http.StatusCreated, gin.H{
			"orderId":    order.OrderID,
			"shippingId": shippingID,
			"total":      total,
		})
	}
}

func shippingTypesHandler(service *application.ShippingApplicationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"shippingTypes": service.AvailableShippingTypes()})
	}
}

func getShipmentHandler(service *application.ShippingApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		shippingID := c.Param("shippingId")
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"shipping.id": shippingID,
		})

		shipment, err := service.GetShipment(c.Request.Context(), shippingID)
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, shipment)
	}
}

func checkStatusHandler(service *application.ShippingApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		shippingID := c.Param("shippingId")
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"shipping.id": shippingID,
		})

		status, err := service.CheckStatus(c.Request.Context(), shippingID)
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"shippingId": shippingID,
			"status":     status,
		})
	}
}

func failShipmentHandler(service *application.ShippingApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		shippingID := c.Param("shippingId")
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"shipping.id": shippingID,
		})

		if err := service.FailShipping(c.Request.Context(), shippingID); err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"shippingId": shippingID,
			"status":     domain.ShippingStatusFailed,
		})
	}
}

func processBatchHandler(service *application.ShippingApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			BatchSize int `json:"batchSize" binding:"omitempty,gt=0,lte=100"`
		}
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				responder.RespondWithAppError(errors.ErrValidation(err.Error()))
				return
			}
		}

		processed, err := service.ProcessShippingBatch(c.Request.Context(), req.BatchSize)
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"processed": processed,
			"count":     len(processed),
		})
	}
}

func reconcileHandler(service *application.ShippingApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			OlderThanSeconds int `json:"olderThanSeconds" binding:"omitempty,gt=0"`
		}
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				responder.RespondWithAppError(errors.ErrValidation(err.Error()))
				return
			}
		}
		olderThan := 60 * time.Second
		if req.OlderThanSeconds > 0 {
			olderThan = time.Duration(req.OlderThanSeconds) * time.Second
		}

		republished, err := service.ReconcileUnpublished(c.Request.Context(), olderThan)
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"republished": republished,
			"count":       len(republished),
		})
	}
}
