package traits

import (
	"net/http"

	"github.com/tracefield/astro-reason/pkg/errx"
)

var traitErrors = errx.NewRegistry("TRAITS")

var (
	ErrEmptyBio = traitErrors.Register(
		"EMPTY_BIO",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Biography text is empty",
	)

	ErrChainExhausted = traitErrors.Register(
		"CHAIN_EXHAUSTED",
		errx.TypeExternal,
		http.StatusBadGateway,
		"Every scoring endpoint failed or returned a blank body",
	)

	ErrEmptyResponse = traitErrors.Register(
		"EMPTY_RESPONSE",
		errx.TypeExternal,
		http.StatusBadGateway,
		"Endpoint returned no choices",
	)

	ErrSchemaDecode = traitErrors.Register(
		"SCHEMA_DECODE",
		errx.TypeExternal,
		http.StatusBadGateway,
		"Scoring output did not decode into the expected schema",
	)

	ErrInvalidScores = traitErrors.Register(
		"INVALID_SCORES",
		errx.TypeValidation,
		http.StatusUnprocessableEntity,
		"Decoded scores violate the schema constraints",
	)

	ErrBioNotFound = traitErrors.Register(
		"BIO_NOT_FOUND",
		errx.TypeNotFound,
		http.StatusNotFound,
		"No biography stored for person",
	)

	ErrRepoQuery = traitErrors.Register(
		"REPO_QUERY_FAILED",
		errx.TypeInternal,
		http.StatusInternalServerError,
		"Trait repository query failed",
	)
)
