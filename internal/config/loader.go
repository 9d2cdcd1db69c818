package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"toolgate/pkg/sandbox"
)

// Loader handles configuration loading.
type Loader struct {
	configPath string
}

// NewLoader creates a config loader. An empty path means the default
// location under the user's home directory.
func NewLoader(configPath string) *Loader {
	return &Loader{configPath: configPath}
}

// Load reads the configuration file, falling back to defaults when it
// does not exist. TOOLGATE_* environment variables override file values.
func (l *Loader) Load() (*Config, error) {
	configPath := l.GetConfigPath()
	if configPath == "" {
		return nil, fmt.Errorf("failed to determine config path")
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		ApplyDerivedDefaults(cfg)
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("json")
	v.SetEnvPrefix("TOOLGATE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDerivedDefaults(cfg)
	return cfg, nil
}

// Save writes the configuration to file, creating it when missing.
func (l *Loader) Save(cfg *Config) error {
	configPath := l.GetConfigPath()
	if configPath == "" {
		return fmt.Errorf("failed to determine config path")
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("json")

	v.Set("server", cfg.Server)
	v.Set("history", cfg.History)
	v.Set("dispatch", cfg.Dispatch)
	v.Set("manifest", cfg.Manifest)
	v.Set("archive", cfg.Archive)
	v.Set("workspace", cfg.Workspace)
	v.Set("sandbox", cfg.Sandbox)
	v.Set("webhook", cfg.Webhook)
	v.Set("logging", cfg.Logging)
	v.Set("data_dir", cfg.DataDir)

	if err := v.WriteConfig(); err != nil {
		if os.IsNotExist(err) {
			if err := v.SafeWriteConfig(); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}
		} else {
			return fmt.Errorf("failed to write config file: %w", err)
		}
	}
	return nil
}

// GetConfigPath returns the resolved config file path.
func (l *Loader) GetConfigPath() string {
	if l.configPath != "" {
		return l.configPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".toolgate", "toolgate.json")
}

// ApplyDerivedDefaults fills paths that depend on the data directory.
// The loader applies it after every load; callers constructing a Config
// by hand should apply it before validation.
func ApplyDerivedDefaults(cfg *Config) {
	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return
		}
		cfg.DataDir = filepath.Join(home, ".toolgate")
	}
	if cfg.Logging.File == "" {
		cfg.Logging.File = filepath.Join(cfg.DataDir, "toolgate.log")
	}
	if cfg.Archive.Enabled && cfg.Archive.Path == "" {
		cfg.Archive.Path = filepath.Join(cfg.DataDir, "calls.db")
	}
	if cfg.Workspace.Root == "" {
		cfg.Workspace.Root = filepath.Join(cfg.DataDir, "workspace")
	}
	if cfg.Sandbox.Runtime == "" {
		cfg.Sandbox.Runtime = string(sandbox.RuntimeHost)
	}
}

// Load is a convenience function that creates a loader and loads the config.
func Load(configPath string) (*Config, error) {
	return NewLoader(configPath).Load()
}
