package tool

import "errors"

var (
	// ErrNotFound is returned when no tool matches a name or alias.
	ErrNotFound = errors.New("tool not found")

	// ErrInactive is returned when the tool exists but is disabled.
	ErrInactive = errors.New("tool is disabled")

	// ErrPermissionDenied is returned when required capability tokens are
	// not granted at the caller's level.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrRateLimited is returned when the sliding window is exhausted.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrValidationFailed is returned when arguments violate the schema.
	ErrValidationFailed = errors.New("parameter validation failed")

	// ErrExecutionFailed is returned when the executor threw or reported
	// failure.
	ErrExecutionFailed = errors.New("tool execution failed")

	// ErrExecutionTimeout is returned when the coordinator deadline fires
	// before the executor returns.
	ErrExecutionTimeout = errors.New("tool execution timed out")

	// ErrQueueOverflow is reserved for collaborator backends that bound
	// their own admission queues.
	ErrQueueOverflow = errors.New("execution queue overflow")
)
