package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("APP_DB_DSN", "postgres://u:p@localhost:5432/towncal?sslmode=disable")
	t.Setenv("APP_CALDAV_PASSWORD", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "http://127.0.0.1:5232", cfg.CalDAV.ServerURL)
	assert.Equal(t, "admin", cfg.CalDAV.Username)
	assert.Equal(t, "calendar", cfg.CalDAV.Collection)
	assert.Equal(t, 5, cfg.Publish.BatchSize)
	assert.Equal(t, 3, cfg.Publish.RetryAttempts)
	assert.Equal(t, "*/1 * * * *", cfg.Publish.CronSchedule)
	assert.False(t, cfg.PrometheusEnabled)
}

func TestLoadAssemblesDSNFromParts(t *testing.T) {
	t.Setenv("APP_CALDAV_PASSWORD", "secret")
	t.Setenv("APP_DB_HOST", "db.internal")
	t.Setenv("APP_DB_NAME", "towncal")
	t.Setenv("APP_DB_USER", "app")
	t.Setenv("APP_DB_PASSWORD", "pw")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://app:pw@db.internal:5432/towncal?sslmode=disable", cfg.DB.DSN)
}

func TestLoadMissingDatabase(t *testing.T) {
	t.Setenv("APP_CALDAV_PASSWORD", "secret")
	t.Setenv("APP_DB_DSN", "")
	t.Setenv("APP_DB_HOST", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APP_DB_DSN")
}

func TestLoadMissingCalDAVPassword(t *testing.T) {
	t.Setenv("APP_DB_DSN", "postgres://u:p@localhost/db")
	t.Setenv("APP_CALDAV_PASSWORD", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APP_CALDAV_PASSWORD")
}

func TestLoadRejectsBadBatchSize(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_PUBLISH_BATCH_SIZE", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APP_PUBLISH_BATCH_SIZE")

	t.Setenv("APP_PUBLISH_BATCH_SIZE", "not a number")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Publish.BatchSize, "unparseable values fall back to the default")
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_CALDAV_SERVER_URL", "https://dav.example.org")
	t.Setenv("APP_CALDAV_USERNAME", "towncal")
	t.Setenv("APP_PUBLISH_UID_HOST", "towncal.example.org")
	t.Setenv("APP_PUBLISH_BATCH_SIZE", "10")
	t.Setenv("APP_TRUSTED_PROXIES", "10.0.0.1, 10.0.0.2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://dav.example.org", cfg.CalDAV.ServerURL)
	assert.Equal(t, "towncal", cfg.CalDAV.Username)
	assert.Equal(t, "towncal.example.org", cfg.Publish.UIDHost)
	assert.Equal(t, 10, cfg.Publish.BatchSize)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.TrustedProxies)
}
