package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"toolgate/pkg/coretools"
)

// CheckDocker verifies that the Docker daemon is available and responsive.
func CheckDocker() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "docker", "ps", "-q")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("docker is not available or not running: %w", err)
	}
	return nil
}

// DockerRunner executes each command in an ephemeral Docker container.
// The workspace directory is mounted into the container so filesystem
// tools and shell commands see the same files.
type DockerRunner struct {
	config Config
}

// NewDockerRunner creates a Docker-based command runner.
func NewDockerRunner(cfg Config) (*DockerRunner, error) {
	cfg.Runtime = RuntimeDocker
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &DockerRunner{config: cfg}, nil
}

// Run executes one command via `docker run --rm`.
func (d *DockerRunner) Run(ctx context.Context, req coretools.RunRequest) (coretools.RunResult, error) {
	if strings.TrimSpace(req.Command) == "" {
		return coretools.RunResult{}, fmt.Errorf("command is required")
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = d.config.ResourceLimits.Timeout
	}
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := d.buildRunArgs(req)
	cmd := exec.CommandContext(execCtx, "docker", args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if req.Stdin != "" {
		cmd.Stdin = strings.NewReader(req.Stdin)
	}

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	if execCtx.Err() == context.DeadlineExceeded {
		return coretools.RunResult{}, fmt.Errorf("%w after %v", ErrExecutionTimeout, timeout)
	}

	exitCode := 0
	if err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			return coretools.RunResult{}, err
		}
		exitCode = exitErr.ExitCode()
	}

	log.Debug().
		Str("runtime", string(RuntimeDocker)).
		Str("image", d.config.Docker.Image).
		Str("command", req.Command).
		Int("exit_code", exitCode).
		Dur("duration", duration).
		Msg("Command executed")

	return coretools.RunResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
	}, nil
}

// buildRunArgs assembles the docker run invocation for one request.
func (d *DockerRunner) buildRunArgs(req coretools.RunRequest) []string {
	cfg := d.config

	args := []string{"run", "--rm", "--init"}

	networkMode := strings.TrimSpace(cfg.Docker.Network)
	if networkMode == "" {
		if cfg.AllowNetwork {
			networkMode = "bridge"
		} else {
			networkMode = "none"
		}
	}
	args = append(args, "--network", networkMode)

	if cfg.ResourceLimits.MaxCPU > 0 {
		cpus := float64(cfg.ResourceLimits.MaxCPU) / 100.0
		args = append(args, "--cpus", strconv.FormatFloat(cpus, 'f', 2, 64))
	}
	if cfg.ResourceLimits.MaxMemoryMB > 0 {
		args = append(args, "--memory", fmt.Sprintf("%dm", cfg.ResourceLimits.MaxMemoryMB))
	}
	if cfg.ResourceLimits.MaxProcesses > 0 {
		args = append(args, "--pids-limit", strconv.Itoa(cfg.ResourceLimits.MaxProcesses))
	}

	if user := strings.TrimSpace(cfg.Docker.User); user != "" {
		args = append(args, "--user", user)
	}

	workDir := strings.TrimSpace(req.WorkingDir)
	if workDir == "" {
		workDir = cfg.Workspace
	}
	if workDir != "" {
		workDir = filepath.Clean(workDir)
		args = append(args, "-v", fmt.Sprintf("%s:%s:rw", workDir, workDir))
		args = append(args, "-w", workDir)
	}

	envKeys := make([]string, 0, len(req.Env))
	for key := range req.Env {
		envKeys = append(envKeys, key)
	}
	sort.Strings(envKeys)
	for _, key := range envKeys {
		args = append(args, "-e", fmt.Sprintf("%s=%s", key, req.Env[key]))
	}

	if req.Stdin != "" {
		args = append(args, "-i")
	}

	args = append(args, cfg.Docker.Image, "sh", "-c", req.Command)
	return args
}
