package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.Backends.VitalsBaseURL)
	assert.Equal(t, "http://localhost:8001", cfg.Backends.AlertsBaseURL)
	assert.Equal(t, "http://localhost:8002", cfg.Backends.SummarizerBaseURL)
	assert.Equal(t, "http://localhost:8003", cfg.Backends.AuthBaseURL)
	assert.Equal(t, 10, cfg.Backends.RequestTimeout)
	assert.Equal(t, 120, cfg.Backends.SummarizerTimeout)

	assert.Equal(t, 10, cfg.Monitor.AlertPollInterval)
	assert.Equal(t, 30, cfg.Monitor.RosterPollInterval)
	assert.Equal(t, 20, cfg.Monitor.WindowSize)
	assert.Equal(t, 5, cfg.Monitor.SummaryAlertLimit)

	assert.False(t, cfg.Cache.Enabled)
	assert.False(t, cfg.History.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("VITALS_BASE_URL", "http://vitals:9000")
	t.Setenv("SUMMARIZER_TIMEOUT", "60")
	t.Setenv("ALERT_POLL_INTERVAL", "5")
	t.Setenv("SNAPSHOT_CACHE_ENABLED", "true")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("WATCH_PATIENTS", "P001, P003,P007")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://vitals:9000", cfg.Backends.VitalsBaseURL)
	assert.Equal(t, 60, cfg.Backends.SummarizerTimeout)
	assert.Equal(t, 5, cfg.Monitor.AlertPollInterval)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "redis:6379", cfg.Cache.Redis.Addr)
	assert.Equal(t, []string{"P001", "P003", "P007"}, cfg.WatchPatients)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("VITALS_WINDOW_SIZE", "0")

	_, err := Load()
	require.Error(t, err)
}

func TestDatabaseConfig_GetDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "secret",
		Database: "vitalwatch",
		SSLMode:  "disable",
	}
	assert.Equal(t,
		"host=localhost port=5432 user=postgres password=secret dbname=vitalwatch sslmode=disable",
		cfg.GetDSN(),
	)
}
