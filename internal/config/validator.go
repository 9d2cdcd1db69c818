package config

import (
	"fmt"
	"strings"

	"toolgate/pkg/sandbox"
)

// Validator validates configuration values.
type Validator struct{}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateLogLevel validates the log level.
func (v *Validator) ValidateLogLevel(level string) error {
	validLevels := []string{"debug", "info", "warn", "error"}
	for _, valid := range validLevels {
		if level == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid log level: %s (must be one of: %s)", level, strings.Join(validLevels, ", "))
}

// ValidatePort validates a TCP listener port.
func (v *Validator) ValidatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return nil
}

// ValidateConfig performs comprehensive validation.
func (v *Validator) ValidateConfig(cfg *Config) []error {
	var errors []error

	if err := v.ValidatePort(cfg.Server.Port); err != nil {
		errors = append(errors, err)
	}

	if cfg.History.MaxEntries <= 0 {
		errors = append(errors, fmt.Errorf("history.max_entries must be > 0"))
	}
	if cfg.History.MaxAgeMinutes <= 0 {
		errors = append(errors, fmt.Errorf("history.max_age_minutes must be > 0"))
	}
	if cfg.History.SweepSeconds <= 0 {
		errors = append(errors, fmt.Errorf("history.sweep_seconds must be > 0"))
	}
	if cfg.History.StaleGraceMin < 0 {
		errors = append(errors, fmt.Errorf("history.stale_grace_minutes must be >= 0"))
	}

	if cfg.Dispatch.DefaultTimeoutMs <= 0 {
		errors = append(errors, fmt.Errorf("dispatch.default_timeout_ms must be > 0"))
	}

	if err := sandbox.ValidateConfig(cfg.SandboxRuntimeConfig()); err != nil {
		errors = append(errors, fmt.Errorf("sandbox: %w", err))
	}

	if cfg.Archive.Enabled && strings.TrimSpace(cfg.Archive.Path) == "" {
		errors = append(errors, fmt.Errorf("archive.path is required when the archive is enabled"))
	}

	if err := v.ValidateLogLevel(cfg.Logging.Level); err != nil {
		errors = append(errors, err)
	}

	return errors
}
