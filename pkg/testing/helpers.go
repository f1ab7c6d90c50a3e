package testing

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/wms-platform/shipment-service/pkg/logging"
)

// DiscardLogger returns a logger that writes nowhere
func DiscardLogger(service string) *logging.Logger {
	cfg := logging.DefaultConfig(service)
	cfg.Output = io.Discard
	return logging.New(cfg)
}

// CreateTestContext creates a context with a timeout for tests
func CreateTestContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

// Dec parses a decimal literal and panics on malformed input
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// AssertDecimalEqual compares decimals by value so 1.50 equals 1.5
func AssertDecimalEqual(t *testing.T, expected, actual decimal.Decimal, msgAndArgs ...interface{}) bool {
	t.Helper()
	if expected.Equal(actual) {
		return true
	}
	return assert.Fail(t, "decimals differ: expected "+expected.String()+", actual "+actual.String(), msgAndArgs...)
}

// WaitForCondition waits for a condition to become true or times out
func WaitForCondition(ctx context.Context, condition func() bool, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if condition() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			continue
		}
	}
}
