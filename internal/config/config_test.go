package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "a-perfectly-reasonable-signing-secret")
	t.Setenv("DB_PASSWORD", "postgres")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "eventlane", cfg.Database.Name)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Env)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenExpiry)
	assert.Equal(t, time.Hour, cfg.Auth.CleanupInterval)
	assert.False(t, cfg.Email.Enabled)
	assert.Empty(t, cfg.Redis.Addr, "redis is opt-in")
	assert.Equal(t, int64(5), cfg.RateLimit.AuthLimit)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.AuthWindow)
	assert.Equal(t, int64(100), cfg.RateLimit.APILimit)
	assert.Equal(t, int64(20), cfg.RateLimit.DefaultLimit)
	assert.Contains(t, cfg.Server.AllowedOrigins, "http://localhost:3000")
}

func TestLoad_EnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("REDIS_ADDR", "redis.internal:6379")
	t.Setenv("ACCESS_TOKEN_EXPIRY", "30m")
	t.Setenv("RATE_LIMIT_AUTH", "10")
	t.Setenv("RATE_LIMIT_AUTH_WINDOW", "5m")
	t.Setenv("EMAIL_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "redis.internal:6379", cfg.Redis.Addr)
	assert.Equal(t, 30*time.Minute, cfg.Auth.AccessTokenExpiry)
	assert.Equal(t, int64(10), cfg.RateLimit.AuthLimit)
	assert.Equal(t, 5*time.Minute, cfg.RateLimit.AuthWindow)
	assert.True(t, cfg.Email.Enabled)
}

func TestLoad_MissingRequiredValues(t *testing.T) {
	t.Run("missing JWT secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		t.Setenv("DB_PASSWORD", "postgres")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JWT_SECRET")
	})

	t.Run("missing database password", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "a-perfectly-reasonable-signing-secret")
		t.Setenv("DB_PASSWORD", "")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DB_PASSWORD")
	})
}

func TestValidateJWTSecret(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		env     string
		wantErr bool
	}{
		{"valid development secret", "sixteen-chars-ok", "development", false},
		{"too short for development", "short", "development", true},
		{"development length rejected in production", "sixteen-chars-ok", "production", true},
		{"valid production secret", "this-secret-is-long-enough-for-prod-use", "production", false},
		{"weak value rejected", "changeme", "development", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateJWTSecret(tt.secret, tt.env)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad_ProductionOrigins(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("JWT_SECRET", "this-secret-is-long-enough-for-prod-use")
	t.Setenv("ENV", "production")
	t.Setenv("ALLOWED_ORIGINS", "https://eventlane.io, https://admin.eventlane.io")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://eventlane.io", "https://admin.eventlane.io"}, cfg.Server.AllowedOrigins)
}

func TestDatabaseConfigDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		Name:     "eventlane",
		SSLMode:  "disable",
	}

	assert.Equal(t,
		"host=localhost port=5432 user=postgres password=postgres dbname=eventlane sslmode=disable",
		cfg.DSN())
}

func TestValidateJWTSecret_MessageNamesEnvironment(t *testing.T) {
	err := validateJWTSecret("short", "production")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "32")
	assert.Contains(t, err.Error(), "production")
}
