// Package sandbox provides the command execution runtimes behind the
// command-executor and code-executor tools. The host runtime runs
// commands directly through the shell; the docker runtime runs each
// command in an ephemeral container with resource limits.
package sandbox

import (
	"fmt"
	"time"

	"toolgate/pkg/coretools"
)

// Runtime selects the execution backend.
type Runtime string

const (
	// RuntimeHost executes commands directly on the host.
	RuntimeHost Runtime = "host"
	// RuntimeDocker executes each command in an ephemeral container.
	RuntimeDocker Runtime = "docker"
)

// ResourceLimits constrains sandboxed execution.
type ResourceLimits struct {
	// MaxCPU limits CPU usage (percentage, 0-100). Docker only.
	MaxCPU int `json:"max_cpu"`

	// MaxMemoryMB limits memory usage in megabytes. Docker only.
	MaxMemoryMB int `json:"max_memory_mb"`

	// MaxProcesses limits the number of processes. Docker only.
	MaxProcesses int `json:"max_processes"`

	// Timeout is the default execution deadline when the request
	// carries none.
	Timeout time.Duration `json:"timeout"`
}

// DockerConfig holds docker-runtime specific settings.
type DockerConfig struct {
	// Image is the container image commands run in.
	Image string `json:"image"`

	// User overrides the container user, e.g. "1000:1000".
	User string `json:"user"`

	// Network overrides the network mode. Empty selects "none", or
	// "bridge" when network access is allowed.
	Network string `json:"network"`
}

// Config defines a sandbox runtime configuration.
type Config struct {
	// Runtime selects host or docker execution.
	Runtime Runtime `json:"runtime"`

	// Workspace is the directory commands run in by default. The docker
	// runtime mounts it into the container.
	Workspace string `json:"workspace"`

	// AllowNetwork permits network access from sandboxed commands.
	// Docker only; host commands always share the host network.
	AllowNetwork bool `json:"allow_network"`

	// ResourceLimits constrains execution.
	ResourceLimits ResourceLimits `json:"resource_limits"`

	// Docker holds docker-runtime settings.
	Docker DockerConfig `json:"docker"`
}

// DefaultConfig returns a conservative sandbox configuration.
func DefaultConfig() Config {
	return Config{
		Runtime:      RuntimeHost,
		AllowNetwork: false,
		ResourceLimits: ResourceLimits{
			MaxCPU:       50,
			MaxMemoryMB:  512,
			MaxProcesses: 64,
			Timeout:      30 * time.Second,
		},
		Docker: DockerConfig{
			Image: "alpine:3.20",
		},
	}
}

// ValidateConfig validates a sandbox configuration.
func ValidateConfig(cfg Config) error {
	switch cfg.Runtime {
	case RuntimeHost, RuntimeDocker:
	default:
		return ErrInvalidRuntime
	}

	if cfg.ResourceLimits.MaxCPU < 0 || cfg.ResourceLimits.MaxCPU > 100 {
		return ErrInvalidCPULimit
	}
	if cfg.ResourceLimits.MaxMemoryMB < 0 {
		return ErrInvalidMemoryLimit
	}
	if cfg.ResourceLimits.MaxProcesses < 0 {
		return ErrInvalidProcessLimit
	}
	if cfg.ResourceLimits.Timeout < 0 {
		return ErrInvalidTimeout
	}

	if cfg.Runtime == RuntimeDocker && cfg.Docker.Image == "" {
		return ErrDockerImageRequired
	}

	return nil
}

// New builds the command runner for the configured runtime.
func New(cfg Config) (coretools.CommandRunner, error) {
	switch cfg.Runtime {
	case RuntimeHost, "":
		return NewHostRunner(cfg)
	case RuntimeDocker:
		return NewDockerRunner(cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidRuntime, cfg.Runtime)
	}
}
