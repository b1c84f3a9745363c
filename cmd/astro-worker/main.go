// astro-worker runs the background job loop: it subscribes to the configured
// topics as one consumer-group member and dispatches deliveries to the
// registered job handlers.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/tracefield/astro-reason/pkg/blobx"
	"github.com/tracefield/astro-reason/pkg/config"
	"github.com/tracefield/astro-reason/pkg/embedx"
	"github.com/tracefield/astro-reason/pkg/ingest"
	"github.com/tracefield/astro-reason/pkg/jobx"
	"github.com/tracefield/astro-reason/pkg/jobx/jobxpg"
	"github.com/tracefield/astro-reason/pkg/jobx/jobxstream"
	"github.com/tracefield/astro-reason/pkg/logx"
	"github.com/tracefield/astro-reason/pkg/provenance"
	"github.com/tracefield/astro-reason/pkg/traits"
)

func main() {
	cfg := config.Load()
	logx.SetLevel(logx.ParseLevel(cfg.App.LogLevel))

	logx.Info("Starting astro-worker...")

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logx.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logx.Fatalf("Failed to connect to Redis: %v", err)
	}

	blobStore, err := blobx.NewS3Store(context.Background(), cfg.Blob)
	if err != nil {
		logx.Fatalf("Failed to configure object store: %v", err)
	}

	topics := workerTopics(cfg)
	consumer := workerConsumerName()

	broker := jobxstream.NewBroker(rdb, cfg.Jobs.ConsumerGroup, consumer, topics...)
	if err := broker.EnsureGroups(context.Background()); err != nil {
		logx.Fatalf("Failed to create consumer groups: %v", err)
	}

	queue := jobx.NewQueue(broker, jobxpg.NewStatusStore(db))
	events := provenance.NewPostgresRecorder(db)

	registry := jobx.NewRegistry()
	register(registry, ingest.FunctionName, ingest.NewHandler(
		blobStore,
		ingest.NewRepo(db),
		queue,
		events,
		ingest.HandlerConfig{
			TraitsTopic:     cfg.Jobs.TraitsTopic,
			EmbeddingsTopic: cfg.Jobs.EmbeddingsTopic,
			EmbedModel:      cfg.Embed.Model,
		},
	))
	register(registry, traits.FunctionName, traits.NewHandler(
		traits.NewRepo(db),
		traits.NewClient(cfg.Traits),
		events,
		cfg.Traits.Model,
	))
	register(registry, embedx.FunctionName, embedx.NewHandler(
		embedx.NewRepo(db),
		events,
		cfg.Embed,
	))

	worker := jobx.NewWorker(queue, registry,
		jobx.WithDequeueTimeout(cfg.Jobs.DequeueTimeout),
		jobx.WithIdleBackoff(cfg.Jobs.IdleBackoffMin, cfg.Jobs.IdleBackoffMax),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logx.Infof("Consuming topics %v as %s in group %s", topics, consumer, cfg.Jobs.ConsumerGroup)
	if err := worker.Start(ctx); err != nil {
		logx.Fatalf("Worker failed: %v", err)
	}
	logx.Info("astro-worker stopped")
}

func register(registry *jobx.Registry, name string, handler jobx.Handler) {
	if err := registry.Register(name, handler); err != nil {
		logx.Fatalf("Failed to register handler %s: %v", name, err)
	}
}

// workerTopics returns the topics this process consumes. WORKER_TOPICS
// overrides the default of all three.
func workerTopics(cfg *config.Config) []string {
	defaults := []string{cfg.Jobs.DefaultTopic, cfg.Jobs.TraitsTopic, cfg.Jobs.EmbeddingsTopic}
	if v := os.Getenv("WORKER_TOPICS"); v != "" {
		return config.SplitTopics(v, defaults)
	}
	return defaults
}

// workerConsumerName returns a stable-enough consumer identity. Hostname
// keeps redeployments reclaiming their own pending entries; the suffix
// separates multiple workers on one host.
func workerConsumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return host + "-" + uuid.New().String()[:8]
}
