// Composition root for the API server. Owns infrastructure (DB, Redis,
// object store) and wires the job queue producer side.
package main

import (
	"context"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/tracefield/astro-reason/pkg/blobx"
	"github.com/tracefield/astro-reason/pkg/config"
	"github.com/tracefield/astro-reason/pkg/jobx"
	"github.com/tracefield/astro-reason/pkg/jobx/jobxpg"
	"github.com/tracefield/astro-reason/pkg/jobx/jobxstream"
	"github.com/tracefield/astro-reason/pkg/logx"
)

// Container holds the API server's shared infrastructure.
type Container struct {
	Config *config.Config

	DB    *sqlx.DB
	Redis *redis.Client
	Blob  blobx.Store
	Queue *jobx.Queue
}

func NewContainer(cfg *config.Config) *Container {
	logx.Info("Initializing API container...")

	c := &Container{Config: cfg}

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logx.Fatalf("Failed to connect to database: %v", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	c.DB = db
	logx.Info("  Database connected")

	c.Redis = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if _, err := c.Redis.Ping(context.Background()).Result(); err != nil {
		logx.Fatalf("Failed to connect to Redis: %v", err)
	}
	logx.Info("  Redis connected")

	store, err := blobx.NewS3Store(context.Background(), cfg.Blob)
	if err != nil {
		logx.Fatalf("Failed to configure object store: %v", err)
	}
	c.Blob = store
	logx.Infof("  Object store configured (bucket: %s)", cfg.Blob.Bucket)

	// The API only produces jobs, so the broker subscribes to no topics.
	broker := jobxstream.NewBroker(c.Redis, cfg.Jobs.ConsumerGroup, "api")
	c.Queue = jobx.NewQueue(broker, jobxpg.NewStatusStore(c.DB))
	logx.Info("  Job queue wired")

	logx.Info("API container initialized")
	return c
}

func (c *Container) Cleanup() {
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logx.WithError(err).Warn("Failed to close Redis client")
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logx.WithError(err).Warn("Failed to close database")
		}
	}
}
