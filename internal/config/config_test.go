package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_TIMEZONE", "")
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("SCHEDULER_LOCK_TTL_SECONDS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.Equal(t, time.Minute, cfg.Scheduler.LockTTL())
	assert.Equal(t, 30, cfg.Scheduler.DefaultCategoryMinutes)
	assert.Empty(t, cfg.Postgres.DSN)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("APP_TIMEZONE", "Europe/Amsterdam")
	t.Setenv("SCHEDULER_LOCK_TTL_SECONDS", "15")
	t.Setenv("POSTGRES_RUN_MIGRATIONS", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, 15*time.Second, cfg.Scheduler.LockTTL())
	assert.False(t, cfg.Postgres.RunMigrations)
	loc, err := cfg.App.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Amsterdam", loc.String())
}

func TestLoad_RejectsUnknownTimezone(t *testing.T) {
	t.Setenv("APP_TIMEZONE", "Mars/Olympus")
	_, err := Load()
	assert.Error(t, err)
}

func TestGetEnvAsInt_FallsBackOnGarbage(t *testing.T) {
	t.Setenv("SOME_INT", "abc")
	assert.Equal(t, 7, getEnvAsInt("SOME_INT", 7))
}
