package config

import (
	"strings"
	"time"
)

// JobsConfig configures the background job queue and worker runtime.
type JobsConfig struct {
	DefaultTopic    string
	TraitsTopic     string
	EmbeddingsTopic string
	ConsumerGroup   string
	DequeueTimeout  time.Duration
	IdleBackoffMin  time.Duration
	IdleBackoffMax  time.Duration
	ShutdownTimeout time.Duration
}

// SplitTopics parses a comma-separated topic list, returning fallback when
// the value holds no usable entries.
func SplitTopics(v string, fallback []string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func loadJobsConfig() JobsConfig {
	return JobsConfig{
		DefaultTopic:    getEnv("JOBS_DEFAULT_TOPIC", "default"),
		TraitsTopic:     getEnv("JOBS_TRAITS_TOPIC", "traits"),
		EmbeddingsTopic: getEnv("JOBS_EMBEDDINGS_TOPIC", "embeddings"),
		ConsumerGroup:   getEnv("JOBS_CONSUMER_GROUP", "astro-workers"),
		DequeueTimeout:  getEnvDuration("JOBS_DEQUEUE_TIMEOUT", time.Second),
		IdleBackoffMin:  getEnvDuration("JOBS_IDLE_BACKOFF_MIN", 100*time.Millisecond),
		IdleBackoffMax:  getEnvDuration("JOBS_IDLE_BACKOFF_MAX", 2*time.Second),
		ShutdownTimeout: getEnvDuration("JOBS_SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}
