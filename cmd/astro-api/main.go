package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/tracefield/astro-reason/pkg/config"
	"github.com/tracefield/astro-reason/pkg/logx"
)

const appVersion = "1.0.0"

func main() {
	cfg := config.Load()

	logx.SetLevel(logx.ParseLevel(cfg.App.LogLevel))

	logx.Info("Starting astro-api server...")

	container := NewContainer(cfg)
	defer container.Cleanup()

	app := fiber.New(fiber.Config{
		AppName:               "astro-api",
		DisableStartupMessage: true,
		ErrorHandler:          globalErrorHandler,
		BodyLimit:             64 * 1024 * 1024, // dataset XML uploads
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} | ${status} | ${latency} | ${method} ${path}\n",
	}))

	app.Get("/healthz", healthHandler(container))
	app.Get("/version", versionHandler)

	api := app.Group("/api/v1")
	api.Post("/ingest/astrodatabank", uploadDatasetHandler(container))
	api.Get("/jobs/:id", getJobHandler(container))

	go func() {
		addr := fmt.Sprintf(":%d", cfg.App.HTTPPort)
		logx.Infof("Listening on %s", addr)
		if err := app.Listen(addr); err != nil {
			logx.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logx.Info("Shutting down astro-api...")
	if err := app.Shutdown(); err != nil {
		logx.WithError(err).Error("Graceful shutdown failed")
	}
	logx.Info("astro-api stopped")
}
