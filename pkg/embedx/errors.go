package embedx

import (
	"net/http"

	"github.com/tracefield/astro-reason/pkg/errx"
)

var embedErrors = errx.NewRegistry("EMBED")

var (
	ErrNoPersonIDs = embedErrors.Register(
		"NO_PERSON_IDS",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Embedding job requires person_ids",
	)

	ErrQueryFailed = embedErrors.Register(
		"QUERY_FAILED",
		errx.TypeInternal,
		http.StatusInternalServerError,
		"Failed to query bios for embedding",
	)

	ErrEmbedFailed = embedErrors.Register(
		"EMBED_FAILED",
		errx.TypeExternal,
		http.StatusBadGateway,
		"Embedding endpoint call failed",
	)

	ErrUpsertFailed = embedErrors.Register(
		"UPSERT_FAILED",
		errx.TypeInternal,
		http.StatusInternalServerError,
		"Failed to upsert embedding",
	)
)
