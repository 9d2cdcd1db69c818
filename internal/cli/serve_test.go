package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeCommand(t *testing.T) {
	t.Run("help text", func(t *testing.T) {
		cmd := GetRootCmd()
		cmd.SetArgs([]string{"serve", "--help"})

		output := &bytes.Buffer{}
		cmd.SetOut(output)

		err := cmd.Execute()
		require.NoError(t, err)

		helpText := output.String()
		assert.Contains(t, helpText, "foreground")
		assert.Contains(t, helpText, "SIGTERM")
	})
}

func TestWritePIDFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "toolgate.pid")

	err := writePIDFile(path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestIsRunning(t *testing.T) {
	t.Run("missing PID file", func(t *testing.T) {
		assert.False(t, isRunning(filepath.Join(t.TempDir(), "nope.pid")))
	})

	t.Run("garbage PID file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "toolgate.pid")
		require.NoError(t, os.WriteFile(path, []byte("not a pid"), 0o644))
		assert.False(t, isRunning(path))
	})

	t.Run("own PID", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "toolgate.pid")
		require.NoError(t, writePIDFile(path))
		assert.True(t, isRunning(path))
	})
}
