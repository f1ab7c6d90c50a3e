package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wms-platform/shipment-service/internal/config"
	"github.com/wms-platform/shipment-service/pkg/logging"
	"github.com/wms-platform/shipment-service/pkg/metrics"
)

// Client wraps a gorm connection pool
type Client struct {
	db     *gorm.DB
	config config.DatabaseConfig
}

// NewClient opens the pool, installs the instrumentation plugin and pings the server
func NewClient(ctx context.Context, cfg config.DatabaseConfig, logger *logging.Logger, m *metrics.Metrics) (*Client, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger:                 gormlogger.Discard,
		SkipDefaultTransaction: true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	if err := db.Use(NewInstrumentation(logger, m, cfg.SlowThreshold)); err != nil {
		return nil, fmt.Errorf("failed to install gorm instrumentation: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping Postgres: %w", err)
	}

	return &Client{db: db, config: cfg}, nil
}

// DB returns the gorm handle
func (c *Client) DB() *gorm.DB {
	return c.db
}

// HealthCheck pings the server
func (c *Client) HealthCheck(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// ReportPoolStats publishes the number of open connections
func (c *Client) ReportPoolStats(m *metrics.Metrics) {
	sqlDB, err := c.db.DB()
	if err != nil {
		return
	}
	m.SetDBConnections(sqlDB.Stats().OpenConnections)
}

// Close releases the pool
func (c *Client) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
