package errx

// Type categorizes an error
type Type string

const (
	// TypeInternal represents unexpected internal failures
	TypeInternal Type = "INTERNAL"

	// TypeValidation represents rejected input
	TypeValidation Type = "VALIDATION"

	// TypeNotFound represents a missing resource
	TypeNotFound Type = "NOT_FOUND"

	// TypeConflict represents a state conflict
	TypeConflict Type = "CONFLICT"

	// TypeExternal represents errors from external services
	TypeExternal Type = "EXTERNAL"
)

// String returns the string representation of the error type
func (t Type) String() string {
	return string(t)
}

// typeToHTTPStatus maps error types to HTTP status codes
func typeToHTTPStatus(t Type) int {
	switch t {
	case TypeValidation:
		return 400
	case TypeNotFound:
		return 404
	case TypeConflict:
		return 409
	case TypeExternal:
		return 502
	default:
		return 500
	}
}
