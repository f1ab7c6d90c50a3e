package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/wms-platform/shipment-service/internal/api/handlers"
	"github.com/wms-platform/shipment-service/internal/application"
	"github.com/wms-platform/shipment-service/internal/config"
	"github.com/wms-platform/shipment-service/internal/contracts"
	"github.com/wms-platform/shipment-service/internal/domain"
	"github.com/wms-platform/shipment-service/internal/infrastructure/customer"
	"github.com/wms-platform/shipment-service/internal/infrastructure/postgres"
	"github.com/wms-platform/shipment-service/pkg/cloudevents"
	"github.com/wms-platform/shipment-service/pkg/idempotency"
	"github.com/wms-platform/shipment-service/pkg/kafka"
	"github.com/wms-platform/shipment-service/pkg/logging"
	"github.com/wms-platform/shipment-service/pkg/metrics"
	"github.com/wms-platform/shipment-service/pkg/middleware"
	"github.com/wms-platform/shipment-service/pkg/outbox"
	"github.com/wms-platform/shipment-service/pkg/outbox/gormstore"
	"github.com/wms-platform/shipment-service/pkg/tracing"
)

const serviceName = "shipment-service"

const poolStatsInterval = 15 * time.Second

type database interface {
	DB() *gorm.DB
	HealthCheck(context.Context) error
	ReportPoolStats(*metrics.Metrics)
	Close() error
}

type kafkaProducer interface {
	kafka.EventPublisher
	Close() error
}

type outboxPublisher interface {
	Start(context.Context) error
	Stop() error
}

var loadConfig = config.Load

var newDatabase = func(ctx context.Context, cfg config.DatabaseConfig, logger *logging.Logger, m *metrics.Metrics) (database, error) {
	client, err := postgres.NewClient(ctx, cfg, logger, m)
	if err != nil {
		return nil, err
	}
	return client, nil
}

var migrateSchema = postgres.Migrate

var newKafkaProducer = func(cfg *kafka.Config, m *metrics.Metrics, logger *logging.Logger) kafkaProducer {
	return kafka.NewProductionProducer(cfg, m, logger)
}

var ensureTopics = kafka.EnsureTopics

var newOutboxPublisher = func(repo outbox.Repository, producer kafka.EventPublisher, logger *logging.Logger, m *metrics.Metrics, cfg *outbox.PublisherConfig) outboxPublisher {
	return outbox.NewPublisher(repo, producer, logger, m, cfg)
}

var newCustomerGateway = func(cfg config.CustomerConfig, logger *logging.Logger, m *metrics.Metrics) domain.CustomerGateway {
	return customer.NewClient(cfg, logger, m)
}

var newEventContract = func() (postgres.EventContract, error) {
	return contracts.NewEventValidator()
}

var newMetrics = metrics.New

var initTracing = tracing.Initialize

var startHTTPServer = func(srv *http.Server) error {
	return srv.ListenAndServe()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           serviceName,
		Short:         "Shipment and package management API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), configPath)
		},
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the YAML config file")

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the outbox publisher",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), configPath)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrations(cmd.Context(), configPath)
		},
	})
	return cmd
}

func serve(ctx context.Context, configPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signalCh)

	return run(ctx, signalCh, configPath)
}

func newLogger(cfg *config.Config) *logging.Logger {
	logConfig := logging.DefaultConfig(serviceName)
	if cfg != nil {
		logConfig.Level = logging.LogLevel(cfg.Log.Level)
		logConfig.AddSource = cfg.Log.AddSource
		logConfig.Environment = cfg.Service.Environment
		logConfig.Version = cfg.Service.Version
	}
	return logging.New(logConfig)
}

func runMigrations(ctx context.Context, configPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		newLogger(nil).WithError(err).Error("Failed to load configuration")
		return err
	}
	logger := newLogger(cfg)

	m := newMetrics(metrics.DefaultConfig(serviceName))
	db, err := newDatabase(ctx, cfg.Database, logger, m)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to Postgres")
		return err
	}
	defer db.Close()

	if err := migrateSchema(ctx, db.DB()); err != nil {
		logger.WithError(err).Error("Failed to migrate schema")
		return err
	}
	logger.Info("Schema migrated")
	return nil
}

func run(ctx context.Context, signalCh <-chan os.Signal, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		newLogger(nil).WithError(err).Error("Failed to load configuration")
		return err
	}

	logger := newLogger(cfg)
	logger.SetDefault()
	logger.Info("Starting shipment-service API", "version", cfg.Service.Version)

	// Initialize OpenTelemetry tracing
	tracingConfig := tracing.DefaultConfig(serviceName)
	tracingConfig.Enabled = cfg.Tracing.Enabled
	tracingConfig.OTLPEndpoint = cfg.Tracing.OTLPEndpoint
	tracingConfig.SampleRate = cfg.Tracing.SampleRate
	tracingConfig.Environment = cfg.Service.Environment
	tracingConfig.ServiceVersion = cfg.Service.Version

	tracerProvider, err := initTracing(ctx, tracingConfig)
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
		logger.Info("Tracing initialized", "enabled", tracingConfig.Enabled, "endpoint", tracingConfig.OTLPEndpoint)
	}

	m := newMetrics(metrics.DefaultConfig(serviceName))

	db, err := newDatabase(ctx, cfg.Database, logger, m)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to Postgres")
		return err
	}
	defer db.Close()
	logger.Info("Connected to Postgres")

	if err := migrateSchema(ctx, db.DB()); err != nil {
		logger.WithError(err).Error("Failed to migrate schema")
		return err
	}

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	go reportPoolStats(runCtx, db, m, poolStatsInterval)

	contract, err := newEventContract()
	if err != nil {
		logger.WithError(err).Error("Failed to load event contracts")
		return err
	}

	eventFactory := cloudevents.NewEventFactory(cloudevents.SourceShipmentService)

	// Repositories
	gdb := db.DB()
	shipmentRepo := postgres.NewShipmentRepository(gdb, eventFactory).WithContract(contract)
	packageRepo := postgres.NewPackageRepository(gdb)
	linkRepo := postgres.NewShipmentPackageRepository(gdb)
	carrierRepo := postgres.NewCarrierRepository(gdb)
	warehouseRepo := postgres.NewWarehouseRepository(gdb)
	productRepo := postgres.NewProductRepository(gdb)

	numbers := domain.NewIdentifierGenerator(
		postgres.NewNumberStore(gdb),
		domain.WithMaxAttempts(cfg.Numbering.MaxAttempts),
		domain.WithSequenceStrategy(domain.SequenceStrategy(cfg.Numbering.PackageStrategy)),
		domain.WithCollisionHook(m.RecordIdentifierCollision),
	)

	customers := newCustomerGateway(cfg.Customer, logger, m)

	// Outbox relay to Kafka
	if cfg.Kafka.Enabled {
		kafkaConfig := &kafka.Config{
			Brokers:      cfg.Kafka.Brokers,
			ClientID:     cfg.Kafka.ClientID,
			BatchSize:    cfg.Kafka.BatchSize,
			BatchTimeout: cfg.Kafka.BatchTimeout,
			RequiredAcks: cfg.Kafka.RequiredAcks,
		}

		topics := kafka.DefaultTopicConfigs()
		for i := range topics {
			topics[i].Partitions = cfg.Kafka.Partitions
			topics[i].ReplicationFactor = cfg.Kafka.ReplicationFactor
		}
		if err := ensureTopics(ctx, kafkaConfig, topics); err != nil {
			logger.WithError(err).Warn("Failed to ensure Kafka topics")
		}

		producer := newKafkaProducer(kafkaConfig, m, logger)
		defer producer.Close()
		logger.Info("Kafka producer initialized", "brokers", cfg.Kafka.Brokers)

		publisher := newOutboxPublisher(
			gormstore.NewOutboxRepository(gdb),
			producer,
			logger,
			m,
			&outbox.PublisherConfig{
				PollInterval:    cfg.Outbox.PollInterval,
				BatchSize:       cfg.Outbox.BatchSize,
				Retention:       cfg.Outbox.Retention,
				CleanupInterval: cfg.Outbox.CleanupInterval,
			},
		)
		if err := publisher.Start(runCtx); err != nil {
			logger.WithError(err).Error("Failed to start outbox publisher")
			return err
		}
		defer func() {
			if err := publisher.Stop(); err != nil {
				logger.WithError(err).Warn("Failed to stop outbox publisher")
			}
		}()
		logger.Info("Outbox publisher started")
	} else {
		logger.Warn("Kafka disabled, outbox events stay pending")
	}

	// Application services
	aggregator := application.NewPackageAggregator(warehouseRepo, carrierRepo, packageRepo, customers, numbers, logger, m)
	shipmentService := application.NewShipmentService(shipmentRepo, packageRepo, linkRepo, carrierRepo, warehouseRepo,
		customers, aggregator, numbers, logger, m)
	packageService := application.NewPackageService(packageRepo, shipmentRepo, aggregator, numbers, logger, m)
	linkService := application.NewShipmentPackageService(linkRepo, shipmentRepo, packageRepo, logger)
	catalogService := application.NewCatalogService(carrierRepo, warehouseRepo, productRepo, logger)

	handlers.RegisterValidators()

	// Setup Gin router with middleware
	router := gin.New()

	middlewareConfig := middleware.DefaultConfig(serviceName, logger)
	middlewareConfig.EnableCORS = cfg.Server.EnableCORS
	middlewareConfig.TrustedProxies = cfg.Server.TrustedProxies
	middleware.Setup(router, middlewareConfig)
	router.Use(middleware.MetricsMiddleware(m))
	router.Use(middleware.TracingMiddleware(middleware.DefaultTracingConfig(serviceName)))

	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, func() error {
		checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return db.HealthCheck(checkCtx)
	}))
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	v1 := router.Group("/api/v1")
	if cfg.Idempotency.Enabled {
		store := idempotency.NewGormStore(gdb)
		idemConfig := idempotency.DefaultConfig(serviceName, store, logger)
		idemConfig.Metrics = m
		idemConfig.RequireKey = cfg.Idempotency.RequireKey
		idemConfig.LockTimeout = cfg.Idempotency.LockTimeout
		idemConfig.RetentionPeriod = cfg.Idempotency.Retention
		idemConfig.UserIDExtractor = middleware.GetActorID
		v1.Use(idempotency.Middleware(idemConfig))
		go idempotency.RunCleanup(runCtx, store, cfg.Idempotency.CleanupInterval, logger)
	}

	handlers.RegisterRoutes(v1, handlers.Handlers{
		Shipments:        handlers.NewShipmentHandler(shipmentService, logger),
		Packages:         handlers.NewPackageHandler(packageService, logger),
		ShipmentPackages: handlers.NewShipmentPackageHandler(linkService, logger),
		Catalog:          handlers.NewCatalogHandler(catalogService, logger),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := startHTTPServer(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()
	logger.Info("Server started", "addr", cfg.Server.Addr)

	select {
	case <-signalCh:
	case <-ctx.Done():
	case err := <-serverErr:
		logger.WithError(err).Error("Server error")
		return fmt.Errorf("http server: %w", err)
	}
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server stopped")
	return nil
}

func reportPoolStats(ctx context.Context, db database, m *metrics.Metrics, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	db.ReportPoolStats(m)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			db.ReportPoolStats(m)
		}
	}
}
