package jobxstream

import "github.com/tracefield/astro-reason/pkg/errx"

var streamErrors = errx.NewRegistry("JOBS_STREAM")

var (
	ErrMarshal     = streamErrors.Register("MARSHAL_FAILED", errx.TypeInternal, 500, "Failed to encode job payload")
	ErrUnmarshal   = streamErrors.Register("UNMARSHAL_FAILED", errx.TypeInternal, 500, "Failed to decode job payload")
	ErrPublish     = streamErrors.Register("PUBLISH_FAILED", errx.TypeExternal, 500, "Failed to append job to stream")
	ErrRead        = streamErrors.Register("READ_FAILED", errx.TypeExternal, 500, "Failed to read from stream")
	ErrAck         = streamErrors.Register("ACK_FAILED", errx.TypeExternal, 500, "Failed to ack stream entry")
	ErrGroupCreate = streamErrors.Register("GROUP_CREATE_FAILED", errx.TypeExternal, 500, "Failed to create consumer group")
)
