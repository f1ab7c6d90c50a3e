package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "shipment-service", cfg.Service.Name)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 10, cfg.Numbering.MaxAttempts)
	assert.Equal(t, "max", cfg.Numbering.PackageStrategy)
	assert.Equal(t, time.Second, cfg.Outbox.PollInterval)
	assert.False(t, cfg.Tracing.Enabled)
	assert.True(t, cfg.Idempotency.Enabled)
	assert.False(t, cfg.Idempotency.RequireKey)
	assert.Equal(t, 24*time.Hour, cfg.Idempotency.Retention)
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  addr: ":9090"
database:
  dsn: "host=db user=app dbname=shipments"
numbering:
  package_strategy: count
customer:
  base_url: "http://customers:8080"
  cache_ttl: 30s
idempotency:
  require_key: true
  lock_timeout: 2m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("SHIPMENT_SERVER_ADDR", ":7070")
	t.Setenv("SHIPMENT_NUMBERING_MAX_ATTEMPTS", "3")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr, "env wins over file")
	assert.Equal(t, "host=db user=app dbname=shipments", cfg.Database.DSN)
	assert.Equal(t, "count", cfg.Numbering.PackageStrategy)
	assert.Equal(t, 3, cfg.Numbering.MaxAttempts)
	assert.Equal(t, "http://customers:8080", cfg.Customer.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Customer.CacheTTL)
	assert.True(t, cfg.Idempotency.RequireKey)
	assert.Equal(t, 2*time.Minute, cfg.Idempotency.LockTimeout)
}

func TestLoadRejectsUnknownStrategy(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SHIPMENT_NUMBERING_PACKAGE_STRATEGY", "random")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "package_strategy")
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}
