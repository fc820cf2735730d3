package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigMethods(t *testing.T) {
	t.Run("Addr returns formatted port", func(t *testing.T) {
		cfg := &Config{Port: 3000}
		assert.Equal(t, ":3000", cfg.Addr())
	})

	t.Run("AccessTokenTTL converts minutes to duration", func(t *testing.T) {
		cfg := &Config{AccessTokenTTLMinutes: 15}
		assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL())
	})

	t.Run("RefreshTokenTTL converts days to duration", func(t *testing.T) {
		cfg := &Config{RefreshTokenTTLDays: 30}
		assert.Equal(t, 30*24*time.Hour, cfg.RefreshTokenTTL())
	})

	t.Run("LoginLockout converts seconds to duration", func(t *testing.T) {
		cfg := &Config{LoginLockoutSeconds: 60}
		assert.Equal(t, 60*time.Second, cfg.LoginLockout())
	})
}

func TestLoad(t *testing.T) {
	setRequired := func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/test")
		t.Setenv("REDIS_URL", "redis://localhost:6379")
		t.Setenv("JWT_SECRET", "test-secret-0123456789abcdef0123456789ab")
	}

	t.Run("loads config with defaults", func(t *testing.T) {
		setRequired(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 8080, cfg.Port)
		assert.Equal(t, 15, cfg.AccessTokenTTLMinutes)
		assert.Equal(t, 30, cfg.RefreshTokenTTLDays)
		assert.Equal(t, 5, cfg.LoginMaxAttempts)
		assert.Equal(t, 60, cfg.LoginLockoutSeconds)
		assert.Equal(t, 100, cfg.RateLimitPerMin)
		assert.Equal(t, 5, cfg.AuthRateLimitPerMin)
		assert.Equal(t, 10, cfg.BcryptCost)
		assert.Equal(t, "info", cfg.LogLevel)
	})

	t.Run("overrides from environment", func(t *testing.T) {
		setRequired(t)
		t.Setenv("PORT", "3000")
		t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "5")
		t.Setenv("LOGIN_MAX_ATTEMPTS", "3")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 3000, cfg.Port)
		assert.Equal(t, 5, cfg.AccessTokenTTLMinutes)
		assert.Equal(t, 3, cfg.LoginMaxAttempts)
	})

	t.Run("fails without required variables", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		t.Setenv("REDIS_URL", "")
		t.Setenv("JWT_SECRET", "")

		_, err := Load()
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			AccessTokenTTLMinutes: 15,
			RefreshTokenTTLDays:   30,
			LoginMaxAttempts:      5,
			JWTSecret:             strings.Repeat("a", 40),
			RedisURL:              "rediss://localhost:6379",
		}
	}

	t.Run("accepts sane config", func(t *testing.T) {
		assert.NoError(t, base().Validate(true))
	})

	t.Run("rejects non-positive TTLs", func(t *testing.T) {
		cfg := base()
		cfg.AccessTokenTTLMinutes = 0
		assert.Error(t, cfg.Validate(false))

		cfg = base()
		cfg.RefreshTokenTTLDays = -1
		assert.Error(t, cfg.Validate(false))

		cfg = base()
		cfg.LoginMaxAttempts = 0
		assert.Error(t, cfg.Validate(false))
	})

	t.Run("rejects short JWT secret in production", func(t *testing.T) {
		cfg := base()
		cfg.JWTSecret = "short"
		assert.Error(t, cfg.Validate(true))
	})

	t.Run("allows short JWT secret in development", func(t *testing.T) {
		cfg := base()
		cfg.JWTSecret = "dev"
		assert.NoError(t, cfg.Validate(false))
	})

	t.Run("rejects known weak secret in production", func(t *testing.T) {
		cfg := base()
		cfg.JWTSecret = "change-me"
		assert.Error(t, cfg.Validate(true))
	})
}
