package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"RECEIVING_APP_NAME":             os.Getenv("RECEIVING_APP_NAME"),
		"RECEIVING_APP_ENV":              os.Getenv("RECEIVING_APP_ENV"),
		"RECEIVING_APP_PORT":             os.Getenv("RECEIVING_APP_PORT"),
		"RECEIVING_DATABASE_HOST":        os.Getenv("RECEIVING_DATABASE_HOST"),
		"RECEIVING_DATABASE_PORT":        os.Getenv("RECEIVING_DATABASE_PORT"),
		"RECEIVING_DATABASE_USER":        os.Getenv("RECEIVING_DATABASE_USER"),
		"RECEIVING_DATABASE_PASSWORD":    os.Getenv("RECEIVING_DATABASE_PASSWORD"),
		"RECEIVING_DATABASE_DBNAME":      os.Getenv("RECEIVING_DATABASE_DBNAME"),
		"RECEIVING_DATABASE_SSLMODE":     os.Getenv("RECEIVING_DATABASE_SSLMODE"),
		"RECEIVING_REDIS_ENABLED":        os.Getenv("RECEIVING_REDIS_ENABLED"),
		"RECEIVING_SAGA_IDEMPOTENCY_TTL": os.Getenv("RECEIVING_SAGA_IDEMPOTENCY_TTL"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "receiving-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "receiving", cfg.Database.DBName)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.False(t, cfg.Redis.Enabled)
		assert.Equal(t, 24*60*60, int(cfg.Saga.IdempotencyTTL.Seconds()))
		assert.Equal(t, 1.0, cfg.Telemetry.SamplingRatio)
	})

	t.Run("loads values from environment variables with RECEIVING prefix", func(t *testing.T) {
		clearEnv()
		os.Setenv("RECEIVING_APP_PORT", "9000")
		os.Setenv("RECEIVING_DATABASE_HOST", "db.internal")
		os.Setenv("RECEIVING_DATABASE_PASSWORD", "secret")
		os.Setenv("RECEIVING_REDIS_ENABLED", "true")
		os.Setenv("RECEIVING_SAGA_IDEMPOTENCY_TTL", "2h")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "db.internal", cfg.Database.Host)
		assert.Equal(t, "secret", cfg.Database.Password)
		assert.True(t, cfg.Redis.Enabled)
		assert.Equal(t, 2*60*60, int(cfg.Saga.IdempotencyTTL.Seconds()))
	})

	t.Run("production requires password and ssl", func(t *testing.T) {
		clearEnv()
		os.Setenv("RECEIVING_APP_ENV", "production")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "password")

		os.Setenv("RECEIVING_DATABASE_PASSWORD", "secret")
		_, err = Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sslmode")

		os.Setenv("RECEIVING_DATABASE_SSLMODE", "require")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestConfigValidate(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg
	}

	t.Run("idle conns cannot exceed open conns", func(t *testing.T) {
		cfg := base()
		cfg.Database.MaxIdleConns = cfg.Database.MaxOpenConns + 1
		assert.Error(t, cfg.validate())
	})

	t.Run("sampling ratio out of range", func(t *testing.T) {
		cfg := base()
		cfg.Telemetry.SamplingRatio = 1.5
		assert.Error(t, cfg.validate())
	})

	t.Run("defaults pass validation", func(t *testing.T) {
		assert.NoError(t, base().validate())
	})
}

func TestDatabaseConfigDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "p@ss/word",
		DBName:   "receiving",
		SSLMode:  "disable",
	}

	dsn := cfg.DSN()
	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "localhost:5432")
	assert.Contains(t, dsn, "sslmode=disable")
	// Special characters in the password must be escaped.
	assert.NotContains(t, dsn, "p@ss/word")
}
