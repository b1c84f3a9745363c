package jobxpg

import "github.com/tracefield/astro-reason/pkg/errx"

var pgErrors = errx.NewRegistry("JOBS_PG")

var (
	ErrNotFound  = pgErrors.Register("JOB_NOT_FOUND", errx.TypeNotFound, 404, "Job not found")
	ErrInsert    = pgErrors.Register("INSERT_FAILED", errx.TypeExternal, 500, "Failed to insert job record")
	ErrQuery     = pgErrors.Register("QUERY_FAILED", errx.TypeExternal, 500, "Failed to query job record")
	ErrUpdate    = pgErrors.Register("UPDATE_FAILED", errx.TypeExternal, 500, "Failed to update job status")
	ErrMarshal   = pgErrors.Register("MARSHAL_FAILED", errx.TypeInternal, 500, "Failed to encode job arguments")
	ErrUnmarshal = pgErrors.Register("UNMARSHAL_FAILED", errx.TypeInternal, 500, "Failed to decode job arguments")
)
