package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"DB_HOST", "STORE_DRIVER", "SLOT_RADIUS", "PORT", "RATE_LIMIT_PER_MINUTE", "LOG_RETENTION_DAYS", "JWT_ACCESS_EXPIRY"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
	assert.Equal(t, 30*time.Minute, cfg.SlotRadius)
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessExpiry)
	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, 100, cfg.RateLimitPerMinute)
	assert.Equal(t, 30, cfg.LogRetentionDays)
	assert.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("SLOT_RADIUS", "45m")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "20")
	t.Setenv("APP_ENV", "production")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "clinic")

	cfg := Load()
	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	assert.Equal(t, 45*time.Minute, cfg.SlotRadius)
	assert.Equal(t, 20, cfg.RateLimitPerMinute)
	assert.True(t, cfg.IsProduction())
	assert.Contains(t, cfg.DSN(), "host=db")
	assert.Contains(t, cfg.DSN(), "dbname=clinic")
	assert.Contains(t, cfg.DSN(), "TimeZone=UTC")
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("SLOT_RADIUS", "soon")
	t.Setenv("JWT_REFRESH_EXPIRY", "-1h")
	t.Setenv("LOG_RETENTION_DAYS", "zero")

	cfg := Load()
	assert.Equal(t, 30*time.Minute, cfg.SlotRadius)
	assert.Equal(t, 168*time.Hour, cfg.JWTRefreshExpiry)
	assert.Equal(t, 30, cfg.LogRetentionDays)
}
