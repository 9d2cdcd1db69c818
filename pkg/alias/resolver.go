// Package alias maps caller-supplied tool names onto canonical tool
// identifiers. Several aliases may target one canonical id; canonical ids
// always resolve to themselves.
package alias

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Resolver owns the alias and display-name tables.
type Resolver struct {
	mu        sync.RWMutex
	aliases   map[string]string // alias -> canonical id
	display   map[string]string // canonical id -> display name
	canonical map[string]bool
}

// NewResolver creates an empty resolver.
func NewResolver() *Resolver {
	return &Resolver{
		aliases:   make(map[string]string),
		display:   make(map[string]string),
		canonical: make(map[string]bool),
	}
}

// Register binds a canonical id, its display name and its aliases. An alias
// already claimed by another tool is rebound with a warning; the table stays
// surjective, never ambiguous.
func (r *Resolver) Register(canonicalID, displayName string, aliases []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.canonical[canonicalID] = true
	if displayName != "" {
		r.display[canonicalID] = displayName
	}

	for _, a := range aliases {
		if prev, ok := r.aliases[a]; ok && prev != canonicalID {
			log.Warn().
				Str("alias", a).
				Str("previous", prev).
				Str("canonical", canonicalID).
				Msg("Alias rebound to a different tool")
		}
		r.aliases[a] = canonicalID
	}
}

// Unregister removes a canonical id and every alias pointing at it.
func (r *Resolver) Unregister(canonicalID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.canonical, canonicalID)
	delete(r.display, canonicalID)
	for a, c := range r.aliases {
		if c == canonicalID {
			delete(r.aliases, a)
		}
	}
}

// Resolve maps any known name (alias or canonical) to the canonical id.
func (r *Resolver) Resolve(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if c, ok := r.aliases[name]; ok {
		return c, true
	}
	if r.canonical[name] {
		return name, true
	}
	return "", false
}

// DisplayName returns the human-readable name for any known name, falling
// back to the input when unmapped.
func (r *Resolver) DisplayName(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c := name
	if mapped, ok := r.aliases[name]; ok {
		c = mapped
	}
	if d, ok := r.display[c]; ok {
		return d
	}
	return name
}

// Aliases returns every alias currently bound to a canonical id.
func (r *Resolver) Aliases(canonicalID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string
	for a, c := range r.aliases {
		if c == canonicalID {
			out = append(out, a)
		}
	}
	return out
}
