package config

import "fmt"

// RedisConfig configures the Redis connection backing the job broker.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func loadRedisConfig() RedisConfig {
	return RedisConfig{
		Host:     getEnv("REDIS_HOST", "localhost"),
		Port:     getEnvInt("REDIS_PORT", 6379),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}
}

// Address returns host:port for the Redis client.
func (c RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
