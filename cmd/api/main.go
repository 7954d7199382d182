package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Bare3-dev/FoodHub-sub001/internal/api/handlers"
	"github.com/Bare3-dev/FoodHub-sub001/internal/application"
	"github.com/Bare3-dev/FoodHub-sub001/internal/domain"
	"github.com/Bare3-dev/FoodHub-sub001/internal/infrastructure/gateways"
	"github.com/Bare3-dev/FoodHub-sub001/internal/infrastructure/healthcache"
	mongoRepo "github.com/Bare3-dev/FoodHub-sub001/internal/infrastructure/mongodb"
	"github.com/Bare3-dev/FoodHub-sub001/internal/infrastructure/notify"
	"github.com/Bare3-dev/FoodHub-sub001/internal/infrastructure/verifiers"
	"github.com/Bare3-dev/FoodHub-sub001/internal/worker"
	"github.com/Bare3-dev/FoodHub-sub001/pkg/cache"
	"github.com/Bare3-dev/FoodHub-sub001/pkg/kafka"
	"github.com/Bare3-dev/FoodHub-sub001/pkg/logging"
	"github.com/Bare3-dev/FoodHub-sub001/pkg/metrics"
	"github.com/Bare3-dev/FoodHub-sub001/pkg/middleware"
	"github.com/Bare3-dev/FoodHub-sub001/pkg/mongodb"
	"github.com/Bare3-dev/FoodHub-sub001/pkg/outbox"
	outboxMongo "github.com/Bare3-dev/FoodHub-sub001/pkg/outbox/mongodb"
	"github.com/Bare3-dev/FoodHub-sub001/pkg/tracing"
)

const serviceName = "pos-sync-service"

func main() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	if err := run(context.Background(), quit); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, quit <-chan os.Signal) error {
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting pos-sync-service API")

	config := loadConfig()

	// OpenTelemetry tracing
	tracingConfig := tracing.DefaultConfig(serviceName)
	tracingConfig.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	tracingConfig.Environment = getEnv("ENVIRONMENT", "development")
	tracingConfig.Enabled = getEnv("TRACING_ENABLED", "true") == "true"

	tracerProvider, err := tracing.Initialize(ctx, tracingConfig)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
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

	// Prometheus metrics
	m := metrics.New(metrics.DefaultConfig(serviceName))
	logger.Info("Metrics initialized")

	// MongoDB
	mongoClient, err := mongodb.NewClient(ctx, config.MongoDB)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		return err
	}
	defer mongoClient.Close(ctx)
	db := mongoClient.Database()
	logger.Info("Connected to MongoDB", "database", config.MongoDB.Database)

	// TTL cache: Redis in production, in-memory fallback for local runs
	var store cache.Store
	if redisStore, err := cache.NewRedisStore(ctx, config.Redis); err != nil {
		logger.WithError(err).Warn("Redis unavailable, using in-memory cache")
		store = cache.NewMemoryStore()
	} else {
		defer redisStore.Close()
		store = redisStore
	}

	// Repositories and stores
	integrationRepo, err := mongoRepo.NewIntegrationRepository(ctx, db)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize integration repository")
		return err
	}
	mappingRepo, err := mongoRepo.NewMappingRepository(ctx, db)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize mapping repository")
		return err
	}
	syncLogRepo, err := mongoRepo.NewSyncLogRepository(ctx, db)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize sync log repository")
		return err
	}
	webhookLogRepo, err := mongoRepo.NewWebhookLogRepository(ctx, db)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize webhook log repository")
		return err
	}
	webhookStatsRepo, err := mongoRepo.NewWebhookStatsRepository(ctx, db)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize webhook stats repository")
		return err
	}
	menuItemStore, err := mongoRepo.NewMenuItemStore(ctx, db)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize menu item store")
		return err
	}
	orderStore := mongoRepo.NewOrderStore(db)
	paymentStore := mongoRepo.NewPaymentStore(db)

	outboxRepo := outboxMongo.NewOutboxRepository(db)
	if err := outboxRepo.EnsureIndexes(ctx); err != nil {
		logger.WithError(err).Error("Failed to ensure outbox indexes")
		return err
	}

	// Kafka producer (circuit breaker protected) and outbox publisher
	producer := kafka.NewCircuitBreakerProducer(kafka.NewProducer(config.Kafka), logger.Logger)
	defer producer.Close()
	logger.Info("Kafka producer initialized", "brokers", config.Kafka.Brokers)

	outboxPublisher := outbox.NewPublisher(outboxRepo, producer, logger, m, outbox.DefaultPublisherConfig())
	if err := outboxPublisher.Start(ctx); err != nil {
		logger.WithError(err).Error("Failed to start outbox publisher")
	} else {
		defer outboxPublisher.Stop()
		logger.Info("Outbox publisher started")
	}

	// Gateway adapters
	gatewayRegistry := domain.NewGatewayRegistry()
	gatewayRegistry.Register(gateways.NewSquareGateway())
	gatewayRegistry.Register(gateways.NewToastGateway())
	gatewayRegistry.Register(gateways.NewLocalGateway())
	logger.Info("POS gateways registered", "gateways", gatewayRegistry.Types())

	// Payment webhook verifiers
	verifierRegistry := verifiers.NewRegistry(verifiers.Secrets{
		StripeSecret:      os.Getenv("STRIPE_WEBHOOK_SECRET"),
		PayPalSecret:      os.Getenv("PAYPAL_WEBHOOK_SECRET"),
		JazzCashSecret:    os.Getenv("JAZZCASH_WEBHOOK_SECRET"),
		EasypaisaMerchant: os.Getenv("EASYPAISA_MERCHANT_KEY"),
	})

	// Collaborators
	notifier := notify.NewEventNotifier(outboxRepo, logger)
	loyalty := notify.NewEventLoyaltyService(outboxRepo, logger)
	audit := notify.NewKafkaAuditLogger(producer, logger)

	// Connection health and sync state
	health := healthcache.New(store, logger)
	syncState := healthcache.NewSyncState(store, logger)

	// Application services
	syncService := application.NewSyncService(
		gatewayRegistry, integrationRepo, mappingRepo, syncLogRepo,
		menuItemStore, orderStore, logger, m,
	)
	webhookSvc := application.NewWebhookService(
		verifierRegistry, paymentStore, orderStore, webhookLogRepo,
		webhookStatsRepo, notifier, loyalty, audit, syncService, logger, m,
	)

	// Worker pool
	pool := worker.NewPool(worker.DefaultConfig(), health, syncState, notifier, audit, logger, m)
	worker.RegisterSyncHandlers(pool, syncService)
	if err := pool.Start(ctx); err != nil {
		logger.WithError(err).Error("Failed to start worker pool")
		return err
	}
	defer pool.Stop()

	// HTTP server
	router := gin.New()
	middleware.Setup(router, middleware.DefaultConfig(serviceName, logger.Logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.MetricsMiddleware(m))
	router.Use(middleware.SimpleTracingMiddleware(serviceName))
	router.NoRoute(middleware.NoRoute())
	router.NoMethod(middleware.NoMethod())

	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, func() error {
		return mongoClient.HealthCheck(ctx)
	}))
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	api := router.Group("/api/v1")
	handlers.NewWebhookHandler(webhookSvc, logger).RegisterRoutes(api)
	handlers.NewSyncHandler(syncService, pool, logger).RegisterRoutes(api)

	srv := &http.Server{
		Addr:         config.ServerAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info("Server started", "addr", config.ServerAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Server error")
		}
	}()

	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server stopped")
	return nil
}

// Config holds application configuration
type Config struct {
	ServerAddr string
	MongoDB    *mongodb.Config
	Redis      *cache.RedisConfig
	Kafka      *kafka.Config
}

func loadConfig() *Config {
	kafkaConfig := kafka.DefaultConfig()
	kafkaConfig.Brokers = strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ",")
	kafkaConfig.ClientID = serviceName

	mongoConfig := mongodb.DefaultConfig()
	mongoConfig.URI = getEnv("MONGODB_URI", "mongodb://localhost:27017")
	mongoConfig.Database = getEnv("MONGODB_DATABASE", "foodhub_pos_sync")

	redisConfig := cache.DefaultRedisConfig()
	redisConfig.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	redisConfig.Password = os.Getenv("REDIS_PASSWORD")

	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8041"),
		MongoDB:    mongoConfig,
		Redis:      redisConfig,
		Kafka:      kafkaConfig,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
