package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/league_test?sslmode=disable")
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	// Clear optional vars so a developer's .env does not leak in.
	t.Setenv("JWT_EXPIRES_IN", "")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("R2_ACCOUNT_ID", "")
	t.Setenv("R2_ACCESS_KEY_ID", "")
	t.Setenv("R2_SECRET_ACCESS_KEY", "")
	t.Setenv("R2_BUCKET_NAME", "")
	t.Setenv("R2_PUBLIC_BASE_URL", "")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiresIn)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.UploaderConfigured())
}

func TestLoadRequiredVariables(t *testing.T) {
	t.Run("missing DATABASE_URL", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("DATABASE_URL", "")

		_, err := Load()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "DATABASE_URL")
	})

	t.Run("missing JWT_SECRET_KEY", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("JWT_SECRET_KEY", "")

		_, err := Load()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "JWT_SECRET_KEY")
	})
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("JWT_EXPIRES_IN", "90m")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://example.com, https://admin.example.com")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, cfg.JWTExpiresIn)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, []string{"https://example.com", "https://admin.example.com"}, cfg.CORSAllowedOrigins)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Run("negative expiry", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("JWT_EXPIRES_IN", "-1h")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("port out of range", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("SERVER_PORT", "70000")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("port not a number", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("SERVER_PORT", "http")

		_, err := Load()
		assert.Error(t, err)
	})
}

func TestUploaderConfigured(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("R2_ACCOUNT_ID", "acct")
	t.Setenv("R2_ACCESS_KEY_ID", "key")
	t.Setenv("R2_SECRET_ACCESS_KEY", "secret")
	t.Setenv("R2_BUCKET_NAME", "logos")
	t.Setenv("R2_PUBLIC_BASE_URL", "https://cdn.example.com")

	cfg, err := Load()

	require.NoError(t, err)
	assert.True(t, cfg.UploaderConfigured())
}
