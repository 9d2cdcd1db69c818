package sandbox

import "errors"

var (
	// ErrInvalidRuntime is returned when the sandbox runtime is invalid
	ErrInvalidRuntime = errors.New("invalid sandbox runtime")

	// ErrInvalidCPULimit is returned when the CPU limit is invalid
	ErrInvalidCPULimit = errors.New("invalid CPU limit (must be 0-100)")

	// ErrInvalidMemoryLimit is returned when the memory limit is invalid
	ErrInvalidMemoryLimit = errors.New("invalid memory limit (must be >= 0)")

	// ErrInvalidProcessLimit is returned when the process limit is invalid
	ErrInvalidProcessLimit = errors.New("invalid process limit (must be >= 0)")

	// ErrInvalidTimeout is returned when the timeout is invalid
	ErrInvalidTimeout = errors.New("invalid timeout (must be >= 0)")

	// ErrExecutionTimeout is returned when execution times out
	ErrExecutionTimeout = errors.New("execution timed out")

	// ErrDockerImageRequired is returned when the docker runtime is enabled without an image
	ErrDockerImageRequired = errors.New("docker image is required for docker runtime")
)
