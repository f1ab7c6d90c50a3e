package idempotency

import (
	"context"
	"time"

	"github.com/wms-platform/shipment-service/pkg/logging"
)

// RunCleanup purges expired keys every interval until ctx is done
func RunCleanup(ctx context.Context, store Store, interval time.Duration, logger *logging.Logger) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purged, err := store.Purge(ctx, time.Now().UTC())
			if err != nil {
				logger.WithError(err).Warn("Failed to purge idempotency keys")
				continue
			}
			if purged > 0 {
				logger.Debug("Purged idempotency keys", "count", purged)
			}
		}
	}
}
