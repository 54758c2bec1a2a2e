package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	for _, key := range []string{
		"PORT", "MASTER_KEY", "METRICS_ENABLED", "STORAGE_TYPE", "SQLITE_PATH",
		"POSTGRES_URL", "POSTGRES_MAX_CONNS", "REDIS_URL",
		"TTS_PROVIDER", "TTS_BASE_URL", "TTS_API_KEY",
		"CACHE_HOT_FRESHNESS", "CACHE_CLEANUP_INTERVAL",
	} {
		os.Unsetenv(key)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.True(t, cfg.Server.MetricsEnabled)
	assert.Empty(t, cfg.Server.MasterKey)
	assert.Equal(t, "sqlite", cfg.Storage.Type)
	assert.Equal(t, "data/wakeaudio.db", cfg.Storage.SQLitePath)
	assert.Equal(t, 10, cfg.Storage.PostgresConns)
	assert.Empty(t, cfg.Redis.URL)
	assert.Equal(t, "stub", cfg.TTS.Provider)
	assert.Equal(t, time.Hour, cfg.Cache.HotFreshness)
	assert.Equal(t, time.Hour, cfg.Cache.CleanupInterval)
}

func TestLoadFromEnvironment(t *testing.T) {
	viper.Reset()

	env := map[string]string{
		"PORT":                   "9090",
		"MASTER_KEY":             "sk-secret",
		"METRICS_ENABLED":        "false",
		"STORAGE_TYPE":           "postgresql",
		"POSTGRES_URL":           "postgres://wake:pw@localhost/wakeaudio",
		"POSTGRES_MAX_CONNS":     "25",
		"REDIS_URL":              "redis://localhost:6379/0",
		"TTS_PROVIDER":           "http",
		"TTS_BASE_URL":           "https://tts.example.com",
		"TTS_API_KEY":            "sk-tts",
		"CACHE_HOT_FRESHNESS":    "30m",
		"CACHE_CLEANUP_INTERVAL": "15m",
	}
	for key, value := range env {
		os.Setenv(key, value)
	}
	t.Cleanup(func() {
		for key := range env {
			os.Unsetenv(key)
		}
	})

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "sk-secret", cfg.Server.MasterKey)
	assert.False(t, cfg.Server.MetricsEnabled)
	assert.Equal(t, "postgresql", cfg.Storage.Type)
	assert.Equal(t, "postgres://wake:pw@localhost/wakeaudio", cfg.Storage.PostgresURL)
	assert.Equal(t, 25, cfg.Storage.PostgresConns)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.Equal(t, "http", cfg.TTS.Provider)
	assert.Equal(t, "https://tts.example.com", cfg.TTS.BaseURL)
	assert.Equal(t, "sk-tts", cfg.TTS.APIKey)
	assert.Equal(t, 30*time.Minute, cfg.Cache.HotFreshness)
	assert.Equal(t, 15*time.Minute, cfg.Cache.CleanupInterval)
}
