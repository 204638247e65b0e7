package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("GOOGLE_CLIENT_ID", "client-123.apps.googleusercontent.com")
	t.Setenv("ADMIN_EMAIL", "admin@example.com")
}

func TestFromEnvDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "https://oauth2.googleapis.com/tokeninfo", cfg.Identity.TokenInfoURL)
	assert.Equal(t, 5*time.Second, cfg.Identity.Timeout)
	assert.Equal(t, []string{"admin@example.com"}, cfg.Admin.Emails)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "survey.db", cfg.Database.URL)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
}

func TestFromEnvOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "3000")
	t.Setenv("IDENTITY_TIMEOUT", "750ms")
	t.Setenv("ADMIN_EMAILS", "ops@example.com, admin@example.com ,")
	t.Setenv("DATABASE_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://survey@localhost/survey?sslmode=disable")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.Addr)
	assert.Equal(t, 750*time.Millisecond, cfg.Identity.Timeout)
	assert.Equal(t, []string{"admin@example.com", "ops@example.com"}, cfg.Admin.Emails)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
}

func TestFromEnvAddrWinsOverPort(t *testing.T) {
	setRequired(t)
	t.Setenv("ADDR", "127.0.0.1:9000")
	t.Setenv("PORT", "3000")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
}

func TestFromEnvMissingRequired(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_ID", "")
	t.Setenv("ADMIN_EMAIL", "")
	t.Setenv("DATABASE_DRIVER", "mysql")

	_, err := FromEnv()
	require.Error(t, err)
	assert.ErrorContains(t, err, "GOOGLE_CLIENT_ID is required")
	assert.ErrorContains(t, err, "ADMIN_EMAIL is required")
	assert.ErrorContains(t, err, `unsupported DATABASE_DRIVER "mysql"`)
}
