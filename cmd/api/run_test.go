package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/wms-platform/shipment-service/internal/config"
	"github.com/wms-platform/shipment-service/internal/infrastructure/postgres"
	"github.com/wms-platform/shipment-service/pkg/cloudevents"
	"github.com/wms-platform/shipment-service/pkg/idempotency"
	"github.com/wms-platform/shipment-service/pkg/kafka"
	"github.com/wms-platform/shipment-service/pkg/logging"
	"github.com/wms-platform/shipment-service/pkg/metrics"
	"github.com/wms-platform/shipment-service/pkg/outbox"
	"github.com/wms-platform/shipment-service/pkg/tracing"
)

type fakeDatabase struct {
	healthErr error
	closed    atomic.Bool
}

func (f *fakeDatabase) DB() *gorm.DB                      { return nil }
func (f *fakeDatabase) HealthCheck(context.Context) error { return f.healthErr }
func (f *fakeDatabase) ReportPoolStats(*metrics.Metrics)  {}
func (f *fakeDatabase) Close() error                      { f.closed.Store(true); return nil }

type fakeProducer struct {
	closed bool
}

func (f *fakeProducer) PublishEvent(context.Context, string, *cloudevents.CloudEvent) error {
	return nil
}
func (f *fakeProducer) Close() error { f.closed = true; return nil }

type fakeOutboxPublisher struct {
	startErr error
	stopErr  error
	started  bool
	stopped  bool
}

func (f *fakeOutboxPublisher) Start(context.Context) error {
	f.started = true
	return f.startErr
}

func (f *fakeOutboxPublisher) Stop() error {
	f.stopped = true
	return f.stopErr
}

type runDeps struct {
	cfg        *config.Config
	db         *fakeDatabase
	producer   *fakeProducer
	publisher  *fakeOutboxPublisher
	migrated   bool
	topics     []kafka.TopicConfig
	outboxConf *outbox.PublisherConfig
}

func testConfig() *config.Config {
	return &config.Config{
		Service: config.ServiceConfig{Name: serviceName, Version: "test", Environment: "test"},
		Server: config.ServerConfig{
			Addr:            ":0",
			ReadTimeout:     time.Second,
			WriteTimeout:    time.Second,
			ShutdownTimeout: time.Second,
		},
		Database: config.DatabaseConfig{DSN: "postgres://test"},
		Kafka: config.KafkaConfig{
			Enabled:           true,
			Brokers:           []string{"kafka:9092"},
			ClientID:          serviceName,
			BatchSize:         10,
			RequiredAcks:      -1,
			Partitions:        3,
			ReplicationFactor: 1,
		},
		Outbox: config.OutboxConfig{
			PollInterval:    time.Second,
			BatchSize:       50,
			Retention:       time.Hour,
			CleanupInterval: time.Minute,
		},
		Idempotency: config.IdempotencyConfig{
			Enabled:         true,
			LockTimeout:     time.Minute,
			Retention:       time.Hour,
			CleanupInterval: time.Hour,
		},
		Customer:  config.CustomerConfig{BaseURL: "http://customer.test", Timeout: time.Second},
		Numbering: config.NumberingConfig{MaxAttempts: 5, PackageStrategy: "max"},
		Log:       config.LogConfig{Level: "error"},
	}
}

// stubDeps swaps every factory for a fake and restores them when the test ends
func stubDeps(t *testing.T) *runDeps {
	t.Helper()
	gin.SetMode(gin.TestMode)

	oldLoad := loadConfig
	oldDatabase := newDatabase
	oldMigrate := migrateSchema
	oldProducer := newKafkaProducer
	oldTopics := ensureTopics
	oldOutbox := newOutboxPublisher
	oldContract := newEventContract
	oldTracing := initTracing
	oldStartHTTP := startHTTPServer
	t.Cleanup(func() {
		loadConfig = oldLoad
		newDatabase = oldDatabase
		migrateSchema = oldMigrate
		newKafkaProducer = oldProducer
		ensureTopics = oldTopics
		newOutboxPublisher = oldOutbox
		newEventContract = oldContract
		initTracing = oldTracing
		startHTTPServer = oldStartHTTP
	})

	deps := &runDeps{
		cfg:       testConfig(),
		db:        &fakeDatabase{},
		producer:  &fakeProducer{},
		publisher: &fakeOutboxPublisher{},
	}

	loadConfig = func(string) (*config.Config, error) { return deps.cfg, nil }
	newDatabase = func(context.Context, config.DatabaseConfig, *logging.Logger, *metrics.Metrics) (database, error) {
		return deps.db, nil
	}
	migrateSchema = func(context.Context, *gorm.DB) error {
		deps.migrated = true
		return nil
	}
	newKafkaProducer = func(*kafka.Config, *metrics.Metrics, *logging.Logger) kafkaProducer {
		return deps.producer
	}
	ensureTopics = func(_ context.Context, _ *kafka.Config, topics []kafka.TopicConfig) error {
		deps.topics = topics
		return nil
	}
	newOutboxPublisher = func(_ outbox.Repository, _ kafka.EventPublisher, _ *logging.Logger, _ *metrics.Metrics, cfg *outbox.PublisherConfig) outboxPublisher {
		deps.outboxConf = cfg
		return deps.publisher
	}
	initTracing = func(context.Context, *tracing.Config) (*tracing.TracerProvider, error) {
		return &tracing.TracerProvider{}, nil
	}
	startHTTPServer = func(*http.Server) error { return http.ErrServerClosed }

	return deps
}

func interrupted() chan os.Signal {
	signalCh := make(chan os.Signal, 1)
	signalCh <- os.Interrupt
	return signalCh
}

func TestRunSuccess(t *testing.T) {
	deps := stubDeps(t)

	err := run(context.Background(), interrupted(), "")
	require.NoError(t, err)

	assert.True(t, deps.migrated)
	assert.True(t, deps.publisher.started)
	assert.True(t, deps.publisher.stopped)
	assert.True(t, deps.producer.closed)
	assert.True(t, deps.db.closed.Load())

	require.Len(t, deps.topics, 1)
	assert.Equal(t, kafka.Topics.ShipmentEvents, deps.topics[0].Name)
	assert.Equal(t, 3, deps.topics[0].Partitions)
	assert.Equal(t, 1, deps.topics[0].ReplicationFactor)

	require.NotNil(t, deps.outboxConf)
	assert.Equal(t, 50, deps.outboxConf.BatchSize)
	assert.Equal(t, time.Hour, deps.outboxConf.Retention)
}

func TestRunKafkaDisabledSkipsPublisher(t *testing.T) {
	deps := stubDeps(t)
	deps.cfg.Kafka.Enabled = false

	err := run(context.Background(), interrupted(), "")
	require.NoError(t, err)

	assert.False(t, deps.publisher.started)
	assert.Nil(t, deps.topics)
	assert.False(t, deps.producer.closed)
}

func TestRunTopicErrorIsNotFatal(t *testing.T) {
	deps := stubDeps(t)
	ensureTopics = func(context.Context, *kafka.Config, []kafka.TopicConfig) error {
		return errors.New("controller unavailable")
	}

	err := run(context.Background(), interrupted(), "")
	require.NoError(t, err)
	assert.True(t, deps.publisher.started)
}

func TestRunConfigError(t *testing.T) {
	stubDeps(t)
	loadConfig = func(string) (*config.Config, error) {
		return nil, errors.New("database.dsn is required")
	}

	err := run(context.Background(), interrupted(), "")
	require.EqualError(t, err, "database.dsn is required")
}

func TestRunTracingError(t *testing.T) {
	stubDeps(t)
	initTracing = func(context.Context, *tracing.Config) (*tracing.TracerProvider, error) {
		return nil, errors.New("trace init failed")
	}

	err := run(context.Background(), interrupted(), "")
	require.NoError(t, err)
}

func TestRunDatabaseError(t *testing.T) {
	deps := stubDeps(t)
	newDatabase = func(context.Context, config.DatabaseConfig, *logging.Logger, *metrics.Metrics) (database, error) {
		return nil, errors.New("connection refused")
	}

	err := run(context.Background(), interrupted(), "")
	require.Error(t, err)
	assert.False(t, deps.migrated)
	assert.False(t, deps.publisher.started)
}

func TestRunMigrateError(t *testing.T) {
	deps := stubDeps(t)
	migrateSchema = func(context.Context, *gorm.DB) error {
		return errors.New("permission denied")
	}

	err := run(context.Background(), interrupted(), "")
	require.EqualError(t, err, "permission denied")
	assert.True(t, deps.db.closed.Load())
	assert.False(t, deps.publisher.started)
}

func TestRunContractError(t *testing.T) {
	stubDeps(t)
	newEventContract = func() (postgres.EventContract, error) {
		return nil, errors.New("bad contract")
	}

	err := run(context.Background(), interrupted(), "")
	require.EqualError(t, err, "bad contract")
}

func TestRunOutboxStartError(t *testing.T) {
	deps := stubDeps(t)
	deps.publisher.startErr = errors.New("already running")

	err := run(context.Background(), interrupted(), "")
	require.EqualError(t, err, "already running")
	assert.False(t, deps.publisher.stopped)
	assert.True(t, deps.producer.closed)
}

func TestRunReturnsServerStartError(t *testing.T) {
	deps := stubDeps(t)
	startHTTPServer = func(*http.Server) error { return errors.New("address in use") }

	done := make(chan error, 1)
	go func() { done <- run(context.Background(), make(chan os.Signal), "") }()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "address in use")
	case <-time.After(5 * time.Second):
		t.Fatal("run kept waiting after the server failed to start")
	}
	assert.True(t, deps.publisher.stopped)
	assert.True(t, deps.db.closed.Load())
}

func TestRunStopsOnContextCancel(t *testing.T) {
	deps := stubDeps(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := run(ctx, make(chan os.Signal), "")
	require.NoError(t, err)
	assert.True(t, deps.publisher.stopped)
}

func TestRunServesHealthAndRoutes(t *testing.T) {
	deps := stubDeps(t)

	srvCh := make(chan *http.Server, 1)
	startHTTPServer = func(srv *http.Server) error {
		srvCh <- srv
		return http.ErrServerClosed
	}

	signalCh := make(chan os.Signal, 1)
	done := make(chan error, 1)
	go func() { done <- run(context.Background(), signalCh, "") }()

	var srv *http.Server
	select {
	case srv = <-srvCh:
	case <-time.After(5 * time.Second):
		t.Fatal("server was not started")
	}

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	assert.Equal(t, http.StatusOK, get("/health").Code)
	assert.Equal(t, http.StatusOK, get("/ready").Code)
	assert.Equal(t, http.StatusOK, get("/metrics").Code)
	assert.Equal(t, http.StatusBadRequest, get("/api/v1/shipments/not-a-uuid").Code)
	assert.Equal(t, http.StatusNotFound, get("/api/v1/unknown").Code)

	// the idempotency middleware rejects a malformed key before any handler runs
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/shipments", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(idempotency.HeaderIdempotencyKey, "not a valid key")
	srv.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	deps.db.healthErr = errors.New("ping timeout")
	assert.Equal(t, http.StatusServiceUnavailable, get("/ready").Code)

	signalCh <- os.Interrupt
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after interrupt")
	}
}
