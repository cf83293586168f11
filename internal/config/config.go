package config

import (
	"fmt"
	"time"

	"github.com/reposphere/staleweb/pkg/errors"
)

// Config holds the application's configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	UI       UIConfig       `mapstructure:"ui"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Database DatabaseConfig `mapstructure:"database"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Log      LogConfig      `mapstructure:"log"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

// ServerConfig configures the operational HTTP surface.
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // in seconds
}

// UIConfig describes the public front end whose pages are cached at the edge.
type UIConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// CacheConfig configures the edge cache driver: worker pool sizes, per-request
// socket timeouts and the locale fan-out list.
type CacheConfig struct {
	Languages           []string `mapstructure:"languages"`
	InvalidateWorkers   int      `mapstructure:"invalidate_workers"`
	InvalidateTimeoutMs int      `mapstructure:"invalidate_timeout_ms"`
	RenewWorkers        int      `mapstructure:"renew_workers"`
	RenewTimeoutMs      int      `mapstructure:"renew_timeout_ms"`
}

// InvalidateTimeout returns the invalidation socket timeout as a duration.
func (c *CacheConfig) InvalidateTimeout() time.Duration {
	return time.Duration(c.InvalidateTimeoutMs) * time.Millisecond
}

// RenewTimeout returns the renewal socket timeout as a duration.
func (c *CacheConfig) RenewTimeout() time.Duration {
	return time.Duration(c.RenewTimeoutMs) * time.Millisecond
}

// DatabaseConfig configures the repository database used for resource-policy
// lookups.
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxConns        int    `mapstructure:"max_conns"`
	MaxConnLifetime int    `mapstructure:"max_conn_lifetime"` // in minutes
}

// GetDSN builds the PostgreSQL connection string.
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// KafkaConfig configures the content-event stream consumer.
type KafkaConfig struct {
	Brokers       []string `mapstructure:"brokers"`
	ContentTopic  string   `mapstructure:"content_topic"`
	ConsumerGroup string   `mapstructure:"consumer_group"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TracingConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
	ServiceName    string `mapstructure:"service_name"`
	Environment    string `mapstructure:"environment"`
}

// Validate checks the configuration for values the service cannot run without.
func (c *Config) Validate() error {
	if c.UI.BaseURL == "" {
		return errors.ErrInvalidConfig.WithError(fmt.Errorf("ui.base_url must be set"))
	}
	if c.Cache.InvalidateWorkers < 1 || c.Cache.RenewWorkers < 1 {
		return errors.ErrInvalidConfig.WithError(fmt.Errorf("cache worker pool sizes must be at least 1"))
	}
	if c.Cache.InvalidateTimeoutMs < 1 || c.Cache.RenewTimeoutMs < 1 {
		return errors.ErrInvalidConfig.WithError(fmt.Errorf("cache timeouts must be positive"))
	}
	return nil
}
