package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8090, cfg.Server.Port)
	assert.Equal(t, "http://localhost:4000", cfg.UI.BaseURL)

	assert.Equal(t, 5, cfg.Cache.InvalidateWorkers)
	assert.Equal(t, 1, cfg.Cache.RenewWorkers)
	assert.Equal(t, 1000*time.Millisecond, cfg.Cache.InvalidateTimeout())
	assert.Equal(t, 5000*time.Millisecond, cfg.Cache.RenewTimeout())
	assert.Empty(t, cfg.Cache.Languages)

	assert.Equal(t, "repository.content-events", cfg.Kafka.ContentTopic)
	assert.Equal(t, "staleweb-consumers", cfg.Kafka.ConsumerGroup)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("STALEWEB_UI_BASE_URL", "https://repository.example.org")
	t.Setenv("STALEWEB_CACHE_INVALIDATE_WORKERS", "10")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "https://repository.example.org", cfg.UI.BaseURL)
	assert.Equal(t, 10, cfg.Cache.InvalidateWorkers)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	cfg.UI.BaseURL = ""
	assert.Error(t, cfg.Validate())

	cfg, err = LoadConfig()
	require.NoError(t, err)
	cfg.Cache.RenewWorkers = 0
	assert.Error(t, cfg.Validate())

	cfg, err = LoadConfig()
	require.NoError(t, err)
	cfg.Cache.InvalidateTimeoutMs = 0
	assert.Error(t, cfg.Validate())
}

func TestDatabaseDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host: "db", Port: 5432, User: "dspace", Password: "secret",
		Database: "dspace", SSLMode: "disable",
	}
	assert.Equal(t,
		"host=db port=5432 user=dspace password=secret dbname=dspace sslmode=disable",
		cfg.GetDSN())
}
