package main

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/wms-platform/shipment-service/internal/config"
	"github.com/wms-platform/shipment-service/pkg/logging"
	"github.com/wms-platform/shipment-service/pkg/metrics"
)

func TestRootCommandLayout(t *testing.T) {
	cmd := newRootCmd()

	flag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, flag)
	assert.Equal(t, "c", flag.Shorthand)

	names := make([]string, 0, len(cmd.Commands()))
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "migrate"}, names)
}

func TestMigrateCommand(t *testing.T) {
	deps := stubDeps(t)

	var gotPath string
	loadConfig = func(path string) (*config.Config, error) {
		gotPath = path
		return deps.cfg, nil
	}

	cmd := newRootCmd()
	cmd.SetArgs([]string{"migrate", "--config", "/etc/shipment/config.yaml"})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "/etc/shipment/config.yaml", gotPath)
	assert.True(t, deps.migrated)
	assert.True(t, deps.db.closed.Load())
	assert.False(t, deps.publisher.started)
}

func TestMigrateCommandErrors(t *testing.T) {
	t.Run("config", func(t *testing.T) {
		stubDeps(t)
		loadConfig = func(string) (*config.Config, error) { return nil, errors.New("bad yaml") }

		cmd := newRootCmd()
		cmd.SetArgs([]string{"migrate"})
		require.EqualError(t, cmd.Execute(), "bad yaml")
	})

	t.Run("database", func(t *testing.T) {
		stubDeps(t)
		newDatabase = func(context.Context, config.DatabaseConfig, *logging.Logger, *metrics.Metrics) (database, error) {
			return nil, errors.New("connection refused")
		}

		cmd := newRootCmd()
		cmd.SetArgs([]string{"migrate"})
		require.EqualError(t, cmd.Execute(), "connection refused")
	})

	t.Run("schema", func(t *testing.T) {
		deps := stubDeps(t)
		migrateSchema = func(context.Context, *gorm.DB) error { return errors.New("permission denied") }

		cmd := newRootCmd()
		cmd.SetArgs([]string{"migrate"})
		require.EqualError(t, cmd.Execute(), "permission denied")
		assert.True(t, deps.db.closed.Load())
	})
}

func TestNewLoggerUsesConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Log.Level = "debug"

	logger := newLogger(cfg)
	require.NotNil(t, logger)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))

	fallback := newLogger(nil)
	assert.False(t, fallback.Enabled(context.Background(), slog.LevelDebug))
}
