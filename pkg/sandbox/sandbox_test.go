package sandbox

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"defaults are valid", func(c *Config) {}, nil},
		{"unknown runtime", func(c *Config) { c.Runtime = "firecracker" }, ErrInvalidRuntime},
		{"cpu over 100", func(c *Config) { c.ResourceLimits.MaxCPU = 150 }, ErrInvalidCPULimit},
		{"negative memory", func(c *Config) { c.ResourceLimits.MaxMemoryMB = -1 }, ErrInvalidMemoryLimit},
		{"negative processes", func(c *Config) { c.ResourceLimits.MaxProcesses = -1 }, ErrInvalidProcessLimit},
		{"negative timeout", func(c *Config) { c.ResourceLimits.Timeout = -time.Second }, ErrInvalidTimeout},
		{"docker without image", func(c *Config) { c.Runtime = RuntimeDocker; c.Docker.Image = "" }, ErrDockerImageRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := ValidateConfig(cfg)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestNewSelectsRuntime(t *testing.T) {
	t.Run("host", func(t *testing.T) {
		cfg := DefaultConfig()
		runner, err := New(cfg)
		require.NoError(t, err)
		assert.IsType(t, &HostRunner{}, runner)
	})

	t.Run("empty runtime defaults to host", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Runtime = ""
		runner, err := New(cfg)
		require.NoError(t, err)
		assert.IsType(t, &HostRunner{}, runner)
	})

	t.Run("docker", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Runtime = RuntimeDocker
		runner, err := New(cfg)
		require.NoError(t, err)
		assert.IsType(t, &DockerRunner{}, runner)
	})

	t.Run("docker without image", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Runtime = RuntimeDocker
		cfg.Docker.Image = ""
		_, err := New(cfg)
		assert.ErrorIs(t, err, ErrDockerImageRequired)
	})
}
