package jobx

import "github.com/tracefield/astro-reason/pkg/errx"

var jobErrors = errx.NewRegistry("JOBS")

var (
	ErrJobNotFound      = jobErrors.Register("JOB_NOT_FOUND", errx.TypeNotFound, 404, "Job not found")
	ErrPersistFailed    = jobErrors.Register("PERSIST_FAILED", errx.TypeExternal, 500, "Failed to persist job record")
	ErrPublishFailed    = jobErrors.Register("PUBLISH_FAILED", errx.TypeExternal, 500, "Failed to publish job to broker")
	ErrDequeueFailed    = jobErrors.Register("DEQUEUE_FAILED", errx.TypeExternal, 500, "Failed to dequeue job")
	ErrAckFailed        = jobErrors.Register("ACK_FAILED", errx.TypeExternal, 500, "Failed to acknowledge delivery")
	ErrDuplicateHandler = jobErrors.Register("DUPLICATE_HANDLER", errx.TypeConflict, 409, "Handler already registered for function")
	ErrAlreadyRunning   = jobErrors.Register("ALREADY_RUNNING", errx.TypeConflict, 409, "Worker is already running")
)

// IsNotFound reports whether err is a not-found error from any backend.
func IsNotFound(err error) bool {
	var e *errx.Error
	if errx.As(err, &e) {
		return e.Type == errx.TypeNotFound
	}
	return false
}
