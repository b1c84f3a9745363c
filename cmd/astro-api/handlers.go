package main

import (
	"fmt"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/tracefield/astro-reason/pkg/errx"
	"github.com/tracefield/astro-reason/pkg/ingest"
	"github.com/tracefield/astro-reason/pkg/jobx"
)

// jobResponse is the status-read shape returned for one job.
type jobResponse struct {
	ID         string  `json:"id"`
	Function   string  `json:"function"`
	Status     string  `json:"status"`
	EnqueuedAt int64   `json:"enqueued_at"`
	StartedAt  *int64  `json:"started_at"`
	EndedAt    *int64  `json:"ended_at"`
	Result     *string `json:"result"`
	Error      *string `json:"error"`
}

func toJobResponse(rec *jobx.Record) jobResponse {
	resp := jobResponse{
		ID:         rec.ID,
		Function:   rec.Function,
		Status:     string(rec.Status),
		EnqueuedAt: rec.EnqueuedAt.UnixMilli(),
		Result:     rec.Result,
		Error:      rec.Error,
	}
	if rec.StartedAt != nil {
		ms := rec.StartedAt.UnixMilli()
		resp.StartedAt = &ms
	}
	if rec.EndedAt != nil {
		ms := rec.EndedAt.UnixMilli()
		resp.EndedAt = &ms
	}
	return resp
}

// uploadDatasetHandler accepts a multipart XML upload, stores it in the
// object store and enqueues the parse job.
func uploadDatasetHandler(c *Container) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		fileHeader, err := ctx.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "multipart field 'file' is required")
		}

		file, err := fileHeader.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "cannot open uploaded file")
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "cannot read uploaded file")
		}

		source := ctx.FormValue("source", "astrodb-upload")
		key := fmt.Sprintf("uploads/%s/%s-%s",
			time.Now().UTC().Format("2006/01/02"), uuid.New().String(), fileHeader.Filename)

		uri, err := c.Blob.PutBytes(ctx.Context(), key, data, "application/xml")
		if err != nil {
			return err
		}

		rec, err := c.Queue.Enqueue(ctx.Context(), c.Config.Jobs.DefaultTopic,
			ingest.FunctionName, []string{uri}, map[string]string{"source": source})
		if err != nil {
			return err
		}

		return ctx.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"job_id":     rec.ID,
			"object_uri": uri,
			"status":     string(rec.Status),
		})
	}
}

// getJobHandler reads job status from the durable store.
func getJobHandler(c *Container) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		id := ctx.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "job id must be a UUID")
		}

		rec, err := c.Queue.Fetch(ctx.Context(), id)
		if err != nil {
			return err
		}
		return ctx.JSON(toJobResponse(rec))
	}
}

// healthHandler reports process and dependency health.
func healthHandler(c *Container) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		health := fiber.Map{
			"status":  "healthy",
			"service": c.Config.App.Name,
		}

		if err := c.DB.Ping(); err != nil {
			health["db"] = "unhealthy"
			health["status"] = "degraded"
		} else {
			health["db"] = "healthy"
		}

		if err := c.Redis.Ping(ctx.Context()).Err(); err != nil {
			health["redis"] = "unhealthy"
			health["status"] = "degraded"
		} else {
			health["redis"] = "healthy"
		}

		status := fiber.StatusOK
		if health["status"] == "degraded" {
			status = fiber.StatusServiceUnavailable
		}
		return ctx.Status(status).JSON(health)
	}
}

func versionHandler(ctx *fiber.Ctx) error {
	return ctx.JSON(fiber.Map{
		"service": "astro-api",
		"version": appVersion,
	})
}

// globalErrorHandler maps internal errors onto HTTP responses.
func globalErrorHandler(ctx *fiber.Ctx, err error) error {
	if e, ok := err.(*fiber.Error); ok {
		return ctx.Status(e.Code).JSON(fiber.Map{
			"error": e.Message,
			"code":  "HTTP_ERROR",
		})
	}

	var e *errx.Error
	if errx.As(err, &e) {
		response := fiber.Map{
			"error": e.Message,
			"code":  e.Code,
			"type":  string(e.Type),
		}
		if len(e.Details) > 0 {
			response["details"] = e.Details
		}
		return ctx.Status(e.HTTPStatus).JSON(response)
	}

	return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal server error",
		"code":  "INTERNAL",
	})
}
