// Package config loads and validates the daemon configuration.
package config

import (
	"time"

	"toolgate/internal/logger"
	"toolgate/pkg/sandbox"
)

// Config is the main toolgate configuration.
type Config struct {
	// Server holds the HTTP API listener settings.
	Server ServerConfig `json:"server" mapstructure:"server"`

	// History bounds the in-memory invocation history.
	History HistoryConfig `json:"history" mapstructure:"history"`

	// Dispatch tunes the invocation pipeline.
	Dispatch DispatchConfig `json:"dispatch" mapstructure:"dispatch"`

	// Manifest points at the optional tool override file.
	Manifest ManifestConfig `json:"manifest" mapstructure:"manifest"`

	// Archive configures the durable call archive.
	Archive ArchiveConfig `json:"archive" mapstructure:"archive"`

	// Workspace is the root directory the filesystem tools operate in.
	Workspace WorkspaceConfig `json:"workspace" mapstructure:"workspace"`

	// Sandbox selects the command execution runtime.
	Sandbox SandboxConfig `json:"sandbox" mapstructure:"sandbox"`

	// Webhook configures the optional terminal call notifier.
	Webhook WebhookConfig `json:"webhook" mapstructure:"webhook"`

	// Logging configuration
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Data directory
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
}

// ServerConfig holds the daemon listener configuration.
type ServerConfig struct {
	Host string `json:"host" mapstructure:"host"`
	Port int    `json:"port" mapstructure:"port"`
}

// HistoryConfig bounds the invocation history store.
type HistoryConfig struct {
	MaxEntries    int `json:"max_entries" mapstructure:"max_entries"`
	MaxAgeMinutes int `json:"max_age_minutes" mapstructure:"max_age_minutes"`
	SweepSeconds  int `json:"sweep_seconds" mapstructure:"sweep_seconds"`
	StaleGraceMin int `json:"stale_grace_minutes" mapstructure:"stale_grace_minutes"`
}

// DispatchConfig tunes the invocation pipeline.
type DispatchConfig struct {
	DefaultTimeoutMs int `json:"default_timeout_ms" mapstructure:"default_timeout_ms"`
}

// ManifestConfig points at the tool override manifest.
type ManifestConfig struct {
	Path  string `json:"path" mapstructure:"path"`
	Watch bool   `json:"watch" mapstructure:"watch"`
}

// ArchiveConfig configures the SQLite call archive.
type ArchiveConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" mapstructure:"path"`
}

// WorkspaceConfig holds the filesystem tool root.
type WorkspaceConfig struct {
	Root string `json:"root" mapstructure:"root"`
}

// SandboxConfig selects and tunes the command execution runtime.
type SandboxConfig struct {
	Runtime        string `json:"runtime" mapstructure:"runtime"`
	DockerImage    string `json:"docker_image" mapstructure:"docker_image"`
	AllowNetwork   bool   `json:"allow_network" mapstructure:"allow_network"`
	MaxCPU         int    `json:"max_cpu" mapstructure:"max_cpu"`
	MaxMemoryMB    int    `json:"max_memory_mb" mapstructure:"max_memory_mb"`
	MaxProcesses   int    `json:"max_processes" mapstructure:"max_processes"`
	TimeoutSeconds int    `json:"timeout_seconds" mapstructure:"timeout_seconds"`
}

// WebhookConfig configures terminal call notifications. An empty URL
// disables them.
type WebhookConfig struct {
	URL    string `json:"url" mapstructure:"url"`
	Secret string `json:"secret" mapstructure:"secret"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	MaxSize   int    `json:"max_size" mapstructure:"max_size"` // MB
	MaxAge    int    `json:"max_age" mapstructure:"max_age"`   // days
	Compress  bool   `json:"compress" mapstructure:"compress"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8790,
		},
		History: HistoryConfig{
			MaxEntries:    1000,
			MaxAgeMinutes: 24 * 60,
			SweepSeconds:  300,
			StaleGraceMin: 10,
		},
		Dispatch: DispatchConfig{
			DefaultTimeoutMs: 60000,
		},
		Sandbox: SandboxConfig{
			Runtime:        string(sandbox.RuntimeHost),
			DockerImage:    "alpine:3.20",
			MaxCPU:         50,
			MaxMemoryMB:    512,
			MaxProcesses:   64,
			TimeoutSeconds: 30,
		},
		Logging: LoggingConfig{
			Level:     "info",
			MaxSize:   100,
			MaxAge:    7,
			Compress:  true,
			Redaction: true,
		},
	}
}

// HistoryMaxAge returns the configured entry age cap.
func (c *Config) HistoryMaxAge() time.Duration {
	return time.Duration(c.History.MaxAgeMinutes) * time.Minute
}

// HistorySweepInterval returns the configured sweep cadence.
func (c *Config) HistorySweepInterval() time.Duration {
	return time.Duration(c.History.SweepSeconds) * time.Second
}

// HistoryStaleGrace returns the running-state reconciliation grace.
func (c *Config) HistoryStaleGrace() time.Duration {
	return time.Duration(c.History.StaleGraceMin) * time.Minute
}

// DefaultTimeout returns the pipeline default execution deadline.
func (c *Config) DefaultTimeout() time.Duration {
	return time.Duration(c.Dispatch.DefaultTimeoutMs) * time.Millisecond
}

// SandboxRuntimeConfig maps the sandbox section onto the sandbox package
// config. The workspace root doubles as the default working directory.
func (c *Config) SandboxRuntimeConfig() sandbox.Config {
	return sandbox.Config{
		Runtime:      sandbox.Runtime(c.Sandbox.Runtime),
		Workspace:    c.Workspace.Root,
		AllowNetwork: c.Sandbox.AllowNetwork,
		ResourceLimits: sandbox.ResourceLimits{
			MaxCPU:       c.Sandbox.MaxCPU,
			MaxMemoryMB:  c.Sandbox.MaxMemoryMB,
			MaxProcesses: c.Sandbox.MaxProcesses,
			Timeout:      time.Duration(c.Sandbox.TimeoutSeconds) * time.Second,
		},
		Docker: sandbox.DockerConfig{
			Image: c.Sandbox.DockerImage,
		},
	}
}

// LoggerConfig maps the logging section onto the logger package config.
func (c *Config) LoggerConfig(console bool) logger.Config {
	return logger.Config{
		Level:     c.Logging.Level,
		File:      c.Logging.File,
		Console:   console,
		Pretty:    console,
		Redaction: c.Logging.Redaction,
		MaxSizeMB: c.Logging.MaxSize,
		MaxAge:    c.Logging.MaxAge,
		Compress:  c.Logging.Compress,
	}
}
