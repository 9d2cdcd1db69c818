// Package catalog holds the tool definitions and answers every lookup the
// dispatch pipeline needs: by canonical id, by alias, by category, and by
// what a permission level may access.
package catalog

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"toolgate/pkg/alias"
	"toolgate/pkg/permission"
	"toolgate/pkg/schema"
	"toolgate/pkg/tool"
)

// Catalog owns the tool definitions and their compiled parameter schemas.
type Catalog struct {
	mu         sync.RWMutex
	tools      map[string]*tool.Definition
	validators map[string]*schema.Validator
	resolver   *alias.Resolver
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{
		tools:      make(map[string]*tool.Definition),
		validators: make(map[string]*schema.Validator),
		resolver:   alias.NewResolver(),
	}
}

// Resolver exposes the identity resolver backing this catalog.
func (c *Catalog) Resolver() *alias.Resolver {
	return c.resolver
}

// Register upserts a definition by canonical id. Overwriting an existing
// tool replaces the definition wholesale and logs a non-fatal warning.
func (c *Catalog) Register(def tool.Definition) error {
	if err := validateDefinition(def); err != nil {
		return fmt.Errorf("invalid tool definition: %w", err)
	}
	if def.Category == "" {
		def.Category = tool.CategoryGeneral
	}

	validator, err := schema.Compile(def.Parameters)
	if err != nil {
		return fmt.Errorf("failed to compile schema for %s: %w", def.Name, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.tools[def.Name]; exists {
		log.Warn().Str("tool", def.Name).Msg("Overwriting existing tool")
	}

	c.tools[def.Name] = &def
	c.validators[def.Name] = validator
	c.resolver.Register(def.Name, def.DisplayName, def.Aliases)

	log.Info().
		Str("tool", def.Name).
		Str("category", string(def.Category)).
		Strs("capabilities", def.Capabilities).
		Msg("Tool registered")

	return nil
}

// Unregister removes the catalog entry and its aliases only. History and
// statistics are immutable snapshots and survive the tool.
func (c *Catalog) Unregister(canonicalID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.tools[canonicalID]; !ok {
		return false
	}
	delete(c.tools, canonicalID)
	delete(c.validators, canonicalID)
	c.resolver.Unregister(canonicalID)

	log.Info().Str("tool", canonicalID).Msg("Tool unregistered")
	return true
}

// Get returns the definition for a canonical id.
func (c *Catalog) Get(canonicalID string) (tool.Definition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	def, ok := c.tools[canonicalID]
	if !ok {
		return tool.Definition{}, false
	}
	return *def, true
}

// GetByName resolves any name or alias and returns the definition.
func (c *Catalog) GetByName(nameOrAlias string) (tool.Definition, bool) {
	canonical, ok := c.resolver.Resolve(nameOrAlias)
	if !ok {
		return tool.Definition{}, false
	}
	return c.Get(canonical)
}

// Validator returns the compiled parameter validator for a canonical id.
func (c *Catalog) Validator(canonicalID string) *schema.Validator {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.validators[canonicalID]
}

// List returns every registered definition.
func (c *Catalog) List() []tool.Definition {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]tool.Definition, 0, len(c.tools))
	for _, def := range c.tools {
		out = append(out, *def)
	}
	return out
}

// ListByCategory returns the definitions in one category.
func (c *Catalog) ListByCategory(category tool.Category) []tool.Definition {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := []tool.Definition{}
	for _, def := range c.tools {
		if def.Category == category {
			out = append(out, *def)
		}
	}
	return out
}

// Accessible returns the active tools whose required capabilities are all
// granted at the given level.
func (c *Catalog) Accessible(level permission.Level, eval *permission.Evaluator) []tool.Definition {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := []tool.Definition{}
	for _, def := range c.tools {
		if !def.Active {
			continue
		}
		if d := eval.Check(def.Name, def.Capabilities, level); d.Allowed {
			out = append(out, *def)
		}
	}
	return out
}

// SetActive flips the active flag of one tool.
func (c *Catalog) SetActive(canonicalID string, active bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	def, ok := c.tools[canonicalID]
	if !ok {
		return false
	}
	def.Active = active
	log.Info().Str("tool", canonicalID).Bool("active", active).Msg("Tool active flag changed")
	return true
}

// Len reports the number of registered tools.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tools)
}

func validateDefinition(def tool.Definition) error {
	if def.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if def.Description == "" {
		return fmt.Errorf("tool description cannot be empty")
	}
	if def.Executor == nil {
		return fmt.Errorf("tool executor cannot be nil")
	}
	if def.Category != "" && !tool.IsValidCategory(string(def.Category)) {
		return fmt.Errorf("invalid category %s for %s", def.Category, def.Name)
	}
	if def.RateLimit != nil {
		if def.RateLimit.MaxRequests <= 0 || def.RateLimit.Window <= 0 {
			return fmt.Errorf("invalid rate limit policy for %s", def.Name)
		}
	}
	for _, p := range def.Parameters {
		if p.Name == "" {
			return fmt.Errorf("parameter name cannot be empty for %s", def.Name)
		}
		if !schema.ValidType(p.Type) {
			return fmt.Errorf("invalid parameter type %s for %s.%s", p.Type, def.Name, p.Name)
		}
	}
	return nil
}
