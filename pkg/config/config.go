package config

import (
	"os"
	"strconv"
	"time"
)

// Config is the root configuration for the astro-reason services.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Jobs     JobsConfig
	Blob     BlobConfig
	Traits   TraitsConfig
	Embed    EmbedConfig
}

// AppConfig holds service-level settings.
type AppConfig struct {
	Name     string
	Env      string
	LogLevel string
	HTTPPort int
}

// Load reads the full configuration from the environment.
func Load() *Config {
	return &Config{
		App: AppConfig{
			Name:     getEnv("APP_NAME", "astro-reason"),
			Env:      getEnv("APP_ENV", "dev"),
			LogLevel: getEnv("LOG_LEVEL", "info"),
			HTTPPort: getEnvInt("HTTP_PORT", 8000),
		},
		Database: loadDatabaseConfig(),
		Redis:    loadRedisConfig(),
		Jobs:     loadJobsConfig(),
		Blob:     loadBlobConfig(),
		Traits:   loadTraitsConfig(),
		Embed:    loadEmbedConfig(),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
