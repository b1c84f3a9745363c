package jobxmem

import "github.com/tracefield/astro-reason/pkg/errx"

var memErrors = errx.NewRegistry("JOBS_MEM")

var (
	ErrNotFound    = memErrors.Register("NOT_FOUND", errx.TypeNotFound, 404, "Job not found")
	ErrDuplicateID = memErrors.Register("DUPLICATE_ID", errx.TypeConflict, 409, "Job id already exists")
)
