package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8790, cfg.Server.Port)
	assert.Equal(t, 1000, cfg.History.MaxEntries)
	assert.Equal(t, 24*60, cfg.History.MaxAgeMinutes)
	assert.Equal(t, 300, cfg.History.SweepSeconds)
	assert.Equal(t, 10, cfg.History.StaleGraceMin)
	assert.Equal(t, 60000, cfg.Dispatch.DefaultTimeoutMs)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Redaction)
	assert.False(t, cfg.Archive.Enabled)
}

func TestDurationAccessors(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 24*time.Hour, cfg.HistoryMaxAge())
	assert.Equal(t, 5*time.Minute, cfg.HistorySweepInterval())
	assert.Equal(t, 10*time.Minute, cfg.HistoryStaleGrace())
	assert.Equal(t, time.Minute, cfg.DefaultTimeout())
}

func TestLoggerConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Level = "debug"
	cfg.Logging.File = "/tmp/toolgate.log"

	lc := cfg.LoggerConfig(true)

	assert.Equal(t, "debug", lc.Level)
	assert.Equal(t, "/tmp/toolgate.log", lc.File)
	assert.True(t, lc.Console)
	assert.True(t, lc.Pretty)
	assert.True(t, lc.Redaction)
	assert.Equal(t, 100, lc.MaxSizeMB)
}
