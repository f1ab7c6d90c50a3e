package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. SHIPMENT_DATABASE_DSN
const EnvPrefix = "SHIPMENT"

type Config struct {
	Service     ServiceConfig     `mapstructure:"service"`
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Kafka       KafkaConfig       `mapstructure:"kafka"`
	Outbox      OutboxConfig      `mapstructure:"outbox"`
	Idempotency IdempotencyConfig `mapstructure:"idempotency"`
	Customer    CustomerConfig    `mapstructure:"customer"`
	Numbering   NumberingConfig   `mapstructure:"numbering"`
	Tracing     TracingConfig     `mapstructure:"tracing"`
	Log         LogConfig         `mapstructure:"log"`
}

type ServiceConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	EnableCORS      bool          `mapstructure:"enable_cors"`
	TrustedProxies  []string      `mapstructure:"trusted_proxies"`
}

type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	SlowThreshold   time.Duration `mapstructure:"slow_threshold"`
}

type KafkaConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	Brokers           []string      `mapstructure:"brokers"`
	ClientID          string        `mapstructure:"client_id"`
	BatchSize         int           `mapstructure:"batch_size"`
	BatchTimeout      time.Duration `mapstructure:"batch_timeout"`
	RequiredAcks      int           `mapstructure:"required_acks"`
	Partitions        int           `mapstructure:"partitions"`
	ReplicationFactor int           `mapstructure:"replication_factor"`
}

type OutboxConfig struct {
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	BatchSize       int           `mapstructure:"batch_size"`
	Retention       time.Duration `mapstructure:"retention"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type IdempotencyConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	RequireKey      bool          `mapstructure:"require_key"`
	LockTimeout     time.Duration `mapstructure:"lock_timeout"`
	Retention       time.Duration `mapstructure:"retention"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type CustomerConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
	CacheSize     int           `mapstructure:"cache_size"` // 0 disables the profile cache
	RetryMaxTries int           `mapstructure:"retry_max_tries"`
}

type NumberingConfig struct {
	MaxAttempts int `mapstructure:"max_attempts"`
	// PackageStrategy is "max" (highest existing suffix + 1) or "count" (existing rows + 1)
	PackageStrategy string `mapstructure:"package_strategy"`
}

type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	SampleRate   float64 `mapstructure:"sample_rate"`
}

type LogConfig struct {
	Level     string `mapstructure:"level"`
	AddSource bool   `mapstructure:"add_source"`
}

// Load reads configuration from path (or config.yaml on the search path when
// path is empty), then applies SHIPMENT_* environment overrides. A missing
// config file is not an error; defaults cover every key.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/shipment-service/")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects settings the service cannot start with
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return errors.New("database.dsn is required")
	}
	if c.Numbering.MaxAttempts <= 0 {
		return errors.New("numbering.max_attempts must be positive")
	}
	switch c.Numbering.PackageStrategy {
	case "max", "count":
	default:
		return fmt.Errorf("numbering.package_strategy must be max or count, got %q", c.Numbering.PackageStrategy)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka.brokers is required when kafka is enabled")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.name", "shipment-service")
	v.SetDefault("service.version", "1.0.0")
	v.SetDefault("service.environment", "development")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.enable_cors", true)
	v.SetDefault("server.trusted_proxies", []string{})

	v.SetDefault("database.dsn", "host=localhost user=postgres password=postgres dbname=shipments port=5432 sslmode=disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("database.slow_threshold", 200*time.Millisecond)

	v.SetDefault("kafka.enabled", true)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.client_id", "shipment-service")
	v.SetDefault("kafka.batch_size", 100)
	v.SetDefault("kafka.batch_timeout", 10*time.Millisecond)
	v.SetDefault("kafka.required_acks", -1)
	v.SetDefault("kafka.partitions", 3)
	v.SetDefault("kafka.replication_factor", 1)

	v.SetDefault("outbox.poll_interval", time.Second)
	v.SetDefault("outbox.batch_size", 100)
	v.SetDefault("outbox.retention", 7*24*time.Hour)
	v.SetDefault("outbox.cleanup_interval", time.Hour)

	v.SetDefault("idempotency.enabled", true)
	v.SetDefault("idempotency.require_key", false)
	v.SetDefault("idempotency.lock_timeout", time.Minute)
	v.SetDefault("idempotency.retention", 24*time.Hour)
	v.SetDefault("idempotency.cleanup_interval", time.Hour)

	v.SetDefault("customer.base_url", "http://localhost:8081")
	v.SetDefault("customer.timeout", 5*time.Second)
	v.SetDefault("customer.cache_ttl", 5*time.Minute)
	v.SetDefault("customer.cache_size", 1024)
	v.SetDefault("customer.retry_max_tries", 3)

	v.SetDefault("numbering.max_attempts", 10)
	v.SetDefault("numbering.package_strategy", "max")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.otlp_endpoint", "localhost:4317")
	v.SetDefault("tracing.sample_rate", 1.0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.add_source", false)
}
