package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"toolgate/pkg/coretools"
)

// HostRunner executes commands directly on the host through the shell.
// Resource limits other than the timeout are not enforced here; use the
// docker runtime when isolation matters.
type HostRunner struct {
	config Config
}

// NewHostRunner creates a host-based command runner.
func NewHostRunner(cfg Config) (*HostRunner, error) {
	cfg.Runtime = RuntimeHost
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &HostRunner{config: cfg}, nil
}

// Run executes one command through `sh -c`.
func (h *HostRunner) Run(ctx context.Context, req coretools.RunRequest) (coretools.RunResult, error) {
	if strings.TrimSpace(req.Command) == "" {
		return coretools.RunResult{}, fmt.Errorf("command is required")
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = h.config.ResourceLimits.Timeout
	}
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, "sh", "-c", req.Command)
	cmd.Dir = req.WorkingDir
	if cmd.Dir == "" {
		cmd.Dir = h.config.Workspace
	}
	cmd.Env = os.Environ()
	for k, v := range req.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	if req.Stdin != "" {
		cmd.Stdin = strings.NewReader(req.Stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

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
		Str("runtime", string(RuntimeHost)).
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
