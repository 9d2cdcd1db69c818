package sandbox

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolgate/pkg/coretools"
)

func newTestDockerRunner(t *testing.T, mutate func(*Config)) *DockerRunner {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Runtime = RuntimeDocker
	cfg.Workspace = "/work/space"
	if mutate != nil {
		mutate(&cfg)
	}
	runner, err := NewDockerRunner(cfg)
	require.NoError(t, err)
	return runner
}

func TestDockerRunArgs(t *testing.T) {
	runner := newTestDockerRunner(t, nil)

	args := runner.buildRunArgs(coretools.RunRequest{Command: "ls -la"})

	joined := fmt.Sprint(args)
	assert.Contains(t, joined, "--network none")
	assert.Contains(t, joined, "--cpus 0.50")
	assert.Contains(t, joined, "--memory 512m")
	assert.Contains(t, joined, "--pids-limit 64")
	assert.Contains(t, joined, "-v /work/space:/work/space:rw")
	assert.Contains(t, joined, "-w /work/space")

	// The image and shell invocation close the argument list.
	require.GreaterOrEqual(t, len(args), 4)
	assert.Equal(t, []string{"alpine:3.20", "sh", "-c", "ls -la"}, args[len(args)-4:])
}

func TestDockerRunArgsNetwork(t *testing.T) {
	t.Run("allow network", func(t *testing.T) {
		runner := newTestDockerRunner(t, func(c *Config) { c.AllowNetwork = true })
		args := runner.buildRunArgs(coretools.RunRequest{Command: "true"})
		assert.Contains(t, fmt.Sprint(args), "--network bridge")
	})

	t.Run("explicit network mode wins", func(t *testing.T) {
		runner := newTestDockerRunner(t, func(c *Config) { c.Docker.Network = "host" })
		args := runner.buildRunArgs(coretools.RunRequest{Command: "true"})
		assert.Contains(t, fmt.Sprint(args), "--network host")
	})
}

func TestDockerRunArgsRequestOverrides(t *testing.T) {
	runner := newTestDockerRunner(t, func(c *Config) { c.Docker.User = "1000:1000" })

	args := runner.buildRunArgs(coretools.RunRequest{
		Command:    "env",
		WorkingDir: "/tmp/override",
		Env:        map[string]string{"B": "2", "A": "1"},
		Stdin:      "input",
	})

	joined := fmt.Sprint(args)
	assert.Contains(t, joined, "--user 1000:1000")
	assert.Contains(t, joined, "-w /tmp/override")
	assert.NotContains(t, joined, "/work/space")
	// Env vars are emitted in sorted key order.
	assert.Contains(t, joined, "-e A=1 -e B=2")
	assert.Contains(t, joined, " -i ")
}
