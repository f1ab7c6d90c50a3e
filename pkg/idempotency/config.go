package idempotency

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/shipment-service/pkg/logging"
	"github.com/wms-platform/shipment-service/pkg/metrics"
)

const (
	// DefaultMaxKeyLength is the maximum length for an idempotency key
	DefaultMaxKeyLength = 255

	// DefaultLockTimeout is how long a lock is honoured before a retry may take it over
	DefaultLockTimeout = 5 * time.Minute

	// DefaultRetentionPeriod is the default retention period for idempotency keys
	DefaultRetentionPeriod = 24 * time.Hour

	// DefaultMaxResponseSize is the maximum response size to cache (1MB)
	DefaultMaxResponseSize = 1 * 1024 * 1024
)

// Config holds configuration for the idempotency middleware
type Config struct {
	ServiceName string
	Store       Store
	Logger      *logging.Logger
	Metrics     *metrics.Metrics

	// RequireKey rejects mutating requests without an Idempotency-Key.
	// When false such requests proceed without deduplication.
	RequireKey bool

	// UserIDExtractor scopes keys per caller; nil scopes them per service only
	UserIDExtractor func(*gin.Context) string

	MaxKeyLength    int
	LockTimeout     time.Duration
	RetentionPeriod time.Duration

	// MaxResponseSize caps the stored body; larger responses are replaced by a marker
	MaxResponseSize int
}

// DefaultConfig returns a default configuration for the given service
func DefaultConfig(serviceName string, store Store, logger *logging.Logger) *Config {
	return &Config{
		ServiceName:     serviceName,
		Store:           store,
		Logger:          logger,
		RequireKey:      false,
		MaxKeyLength:    DefaultMaxKeyLength,
		LockTimeout:     DefaultLockTimeout,
		RetentionPeriod: DefaultRetentionPeriod,
		MaxResponseSize: DefaultMaxResponseSize,
	}
}
