package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("console only", func(t *testing.T) {
		logger, err := New(Config{Level: "info", Console: true})
		require.NoError(t, err)
		require.NotNil(t, logger)
		assert.NoError(t, logger.Close())
	})

	t.Run("file sink", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "toolgate.log")

		logger, err := New(Config{Level: "debug", File: logFile})
		require.NoError(t, err)

		zl := logger.Zerolog()
		zl.Info().Msg("test message")
		require.NoError(t, logger.Close())

		data, err := os.ReadFile(logFile)
		require.NoError(t, err)
		assert.Contains(t, string(data), "test message")
	})

	t.Run("invalid level falls back to info", func(t *testing.T) {
		logger, err := New(Config{Level: "extremely-verbose"})
		require.NoError(t, err)
		defer logger.Close()

		assert.Equal(t, zerolog.InfoLevel, logger.Zerolog().GetLevel())
	})

	t.Run("redaction scrubs secrets in file sink", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "toolgate.log")

		logger, err := New(Config{Level: "debug", File: logFile, Redaction: true})
		require.NoError(t, err)

		zl := logger.Zerolog()
		zl.Info().
			Str("args", `{"token": "sk-abcdefghijklmnopqrstuvwxyz123456"}`).
			Msg("tool call")
		require.NoError(t, logger.Close())

		data, err := os.ReadFile(logFile)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "sk-abcdefghijklmnop")
		assert.Contains(t, string(data), "[REDACTED]")
	})
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.True(t, cfg.Console)
	assert.True(t, cfg.Pretty)
	assert.True(t, cfg.Redaction)
	assert.Equal(t, 100, cfg.MaxSizeMB)
	assert.Equal(t, 7, cfg.MaxAge)
	assert.True(t, cfg.Compress)
}
