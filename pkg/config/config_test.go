package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Jobs.DefaultTopic != "default" {
		t.Errorf("DefaultTopic = %s", cfg.Jobs.DefaultTopic)
	}
	if cfg.Jobs.IdleBackoffMin != 100*time.Millisecond {
		t.Errorf("IdleBackoffMin = %v", cfg.Jobs.IdleBackoffMin)
	}
	if cfg.Jobs.IdleBackoffMax != 2*time.Second {
		t.Errorf("IdleBackoffMax = %v", cfg.Jobs.IdleBackoffMax)
	}
	if cfg.Traits.AttemptTimeout != 10*time.Minute {
		t.Errorf("AttemptTimeout = %v", cfg.Traits.AttemptTimeout)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("JOBS_DEQUEUE_TIMEOUT", "250ms")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("S3_USE_SSL", "true")

	cfg := Load()
	if cfg.Jobs.DequeueTimeout != 250*time.Millisecond {
		t.Errorf("DequeueTimeout = %v", cfg.Jobs.DequeueTimeout)
	}
	if cfg.Database.Port != 6543 {
		t.Errorf("Port = %d", cfg.Database.Port)
	}
	if !cfg.Blob.UseSSL {
		t.Error("UseSSL not overridden")
	}
}

func TestDatabaseDSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	want := "host=db port=5432 user=u password=p dbname=n sslmode=disable"
	if got := c.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}

func TestSplitTopics(t *testing.T) {
	got := SplitTopics(" default, traits ,,embeddings ", nil)
	want := []string{"default", "traits", "embeddings"}
	if len(got) != len(want) {
		t.Fatalf("SplitTopics = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("SplitTopics[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	fallback := []string{"default"}
	if got := SplitTopics(" , ", fallback); len(got) != 1 || got[0] != "default" {
		t.Errorf("SplitTopics fallback = %v", got)
	}
}
