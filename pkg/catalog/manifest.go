package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"toolgate/internal/version"
	"toolgate/pkg/ratelimit"
)

// Manifest is a per-deployment overlay over the built-in catalog: it can
// deactivate tools and override their rate-limit policies without a rebuild.
type Manifest struct {
	// Requires is an optional semver constraint on the toolgate version,
	// e.g. ">= 0.1.0". Incompatible manifests are rejected at load time.
	Requires string `json:"requires,omitempty" yaml:"requires,omitempty"`

	Tools map[string]ManifestOverride `json:"tools" yaml:"tools"`
}

// ManifestOverride adjusts a single tool.
type ManifestOverride struct {
	Active    *bool         `json:"active,omitempty" yaml:"active,omitempty"`
	RateLimit *ManifestRate `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"`
}

// ManifestRate mirrors ratelimit.Policy with a millisecond window for the
// JSON surface.
type ManifestRate struct {
	MaxRequests int   `json:"max_requests" yaml:"max_requests"`
	WindowMs    int64 `json:"window_ms" yaml:"window_ms"`
}

// LoadManifest reads and parses a manifest file. The format follows the
// file extension: .yaml and .yml are parsed as YAML, everything else as
// JSON. A manifest whose Requires constraint the running version does not
// satisfy is rejected.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to parse manifest: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to parse manifest: %w", err)
		}
	}

	if err := m.checkRequires(); err != nil {
		return nil, err
	}
	return &m, nil
}

// checkRequires validates the Requires constraint against the running
// version.
func (m *Manifest) checkRequires() error {
	if m.Requires == "" {
		return nil
	}

	v, err := semver.NewVersion(version.Version)
	if err != nil {
		return fmt.Errorf("invalid toolgate version %s: %w", version.Version, err)
	}

	c, err := semver.NewConstraint(m.Requires)
	if err != nil {
		return fmt.Errorf("invalid manifest version constraint %q: %w", m.Requires, err)
	}

	if !c.Check(v) {
		return fmt.Errorf("toolgate %s does not satisfy manifest constraint %q", version.Version, m.Requires)
	}
	return nil
}

// ApplyManifest applies the overrides to the catalog and limiter. Unknown
// tool ids are logged and skipped.
func (c *Catalog) ApplyManifest(m *Manifest, limiter *ratelimit.Limiter) {
	if m == nil {
		return
	}

	for id, override := range m.Tools {
		if _, ok := c.Get(id); !ok {
			log.Warn().Str("tool", id).Msg("Manifest references unknown tool")
			continue
		}
		if override.Active != nil {
			c.SetActive(id, *override.Active)
		}
		if override.RateLimit != nil && limiter != nil {
			if override.RateLimit.MaxRequests <= 0 || override.RateLimit.WindowMs <= 0 {
				log.Warn().Str("tool", id).Msg("Manifest rate limit is invalid, ignored")
				continue
			}
			limiter.SetPolicy(id, ratelimit.Policy{
				MaxRequests: override.RateLimit.MaxRequests,
				Window:      time.Duration(override.RateLimit.WindowMs) * time.Millisecond,
			})
		}
	}

	log.Info().Int("overrides", len(m.Tools)).Msg("Catalog manifest applied")
}
