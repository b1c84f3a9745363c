package ingest

import (
	"net/http"

	"github.com/tracefield/astro-reason/pkg/errx"
)

var ingestErrors = errx.NewRegistry("INGEST")

var (
	ErrMissingObjectURI = ingestErrors.Register(
		"MISSING_OBJECT_URI",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Parse job requires an object URI argument",
	)

	ErrDownloadFailed = ingestErrors.Register(
		"DOWNLOAD_FAILED",
		errx.TypeExternal,
		http.StatusBadGateway,
		"Failed to download dataset object",
	)

	ErrParseFailed = ingestErrors.Register(
		"PARSE_FAILED",
		errx.TypeValidation,
		http.StatusUnprocessableEntity,
		"Failed to parse dataset XML",
	)

	ErrUpsertFailed = ingestErrors.Register(
		"UPSERT_FAILED",
		errx.TypeInternal,
		http.StatusInternalServerError,
		"Failed to upsert parsed records",
	)

	ErrEnqueueFailed = ingestErrors.Register(
		"ENQUEUE_FAILED",
		errx.TypeInternal,
		http.StatusInternalServerError,
		"Failed to enqueue follow-up jobs",
	)
)
