// Package config provides configuration management for the application.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Redis   RedisConfig
	TTS     TTSConfig
	Cache   CacheConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           string
	MasterKey      string
	MetricsEnabled bool
}

// StorageConfig selects and configures the durable tier backend
type StorageConfig struct {
	// Type is "sqlite" or "postgresql"
	Type          string
	SQLitePath    string
	PostgresURL   string
	PostgresConns int
}

// RedisConfig configures the optional Redis hot tier. An empty URL keeps the
// hot tier in process memory.
type RedisConfig struct {
	URL string
}

// TTSConfig configures the speech synthesis provider
type TTSConfig struct {
	// Provider is "http" or "stub"
	Provider string
	BaseURL  string
	APIKey   string
}

// CacheConfig holds segment cache tuning
type CacheConfig struct {
	// HotFreshness bounds how long a durable hit stays in the hot tier
	HotFreshness time.Duration
	// CleanupInterval is how often expired entries are swept
	CleanupInterval time.Duration
}

// Load reads configuration from the environment (and an optional .env file)
func Load() (*Config, error) {
	// Load .env file using Viper (optional, won't fail if not found)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig() // Ignore error if .env file doesn't exist

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("METRICS_ENABLED", true)
	viper.SetDefault("STORAGE_TYPE", "sqlite")
	viper.SetDefault("SQLITE_PATH", "data/wakeaudio.db")
	viper.SetDefault("POSTGRES_MAX_CONNS", 10)
	viper.SetDefault("TTS_PROVIDER", "stub")
	viper.SetDefault("CACHE_HOT_FRESHNESS", "1h")
	viper.SetDefault("CACHE_CLEANUP_INTERVAL", "1h")

	// Enable automatic environment variable reading
	viper.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Port:           viper.GetString("PORT"),
			MasterKey:      viper.GetString("MASTER_KEY"),
			MetricsEnabled: viper.GetBool("METRICS_ENABLED"),
		},
		Storage: StorageConfig{
			Type:          viper.GetString("STORAGE_TYPE"),
			SQLitePath:    viper.GetString("SQLITE_PATH"),
			PostgresURL:   viper.GetString("POSTGRES_URL"),
			PostgresConns: viper.GetInt("POSTGRES_MAX_CONNS"),
		},
		Redis: RedisConfig{
			URL: viper.GetString("REDIS_URL"),
		},
		TTS: TTSConfig{
			Provider: viper.GetString("TTS_PROVIDER"),
			BaseURL:  viper.GetString("TTS_BASE_URL"),
			APIKey:   viper.GetString("TTS_API_KEY"),
		},
		Cache: CacheConfig{
			HotFreshness:    viper.GetDuration("CACHE_HOT_FRESHNESS"),
			CleanupInterval: viper.GetDuration("CACHE_CLEANUP_INTERVAL"),
		},
	}

	return cfg, nil
}
