// Package permission implements the three-tier capability grant hierarchy
// used to authorize tool invocations.
//
// Invariants:
// - grant(basic) ⊆ grant(standard) ⊆ grant(admin).
// - A call is admissible only when every required capability token is
//   granted; overlap is not enough.
package permission

import (
	"fmt"
	"sort"
	"strings"
)

// Level is one of the fixed permission tiers.
type Level string

const (
	LevelBasic    Level = "basic"
	LevelStandard Level = "standard"
	LevelAdmin    Level = "admin"
)

// Capability tokens. Each names one discrete permission.
const (
	CapFileRead        = "file:read"
	CapFileWrite       = "file:write"
	CapWebSearch       = "web:search"
	CapWebFetch        = "web:fetch"
	CapContentGenerate = "content:generate"
	CapSystemExecute   = "system:execute"
	CapCodeExecute     = "code:execute"
)

// ParseLevel converts a string into a Level. Unknown values are rejected so
// authorization stays fail-closed.
func ParseLevel(s string) (Level, error) {
	switch Level(strings.ToLower(s)) {
	case LevelBasic:
		return LevelBasic, nil
	case LevelStandard:
		return LevelStandard, nil
	case LevelAdmin:
		return LevelAdmin, nil
	default:
		return "", fmt.Errorf("unknown permission level: %q", s)
	}
}

// basicGrants is the floor; each higher tier extends the one below it.
var (
	basicGrants   = []string{CapFileRead, CapWebSearch}
	standardExtra = []string{CapFileWrite, CapWebFetch, CapContentGenerate}
	adminExtra    = []string{CapSystemExecute, CapCodeExecute}
)

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  string
	Missing []string
}

// Evaluator decides admissibility of tool calls against the grant hierarchy.
type Evaluator struct {
	grants map[Level]map[string]bool
}

// NewEvaluator builds an evaluator with the default grant sets.
func NewEvaluator() *Evaluator {
	e := &Evaluator{grants: make(map[Level]map[string]bool)}

	basic := make(map[string]bool)
	for _, c := range basicGrants {
		basic[c] = true
	}
	standard := make(map[string]bool)
	for c := range basic {
		standard[c] = true
	}
	for _, c := range standardExtra {
		standard[c] = true
	}
	admin := make(map[string]bool)
	for c := range standard {
		admin[c] = true
	}
	for _, c := range adminExtra {
		admin[c] = true
	}

	e.grants[LevelBasic] = basic
	e.grants[LevelStandard] = standard
	e.grants[LevelAdmin] = admin
	return e
}

// Grants returns the capability tokens granted at a level, sorted for
// stable output. Unknown levels grant nothing.
func (e *Evaluator) Grants(level Level) []string {
	set := e.grants[level]
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Check verifies that every required capability is granted at the level.
// Denial reasons are deliberately verbose: they name the missing tokens and
// what the level actually grants, since none of this is sensitive.
func (e *Evaluator) Check(toolName string, required []string, level Level) Decision {
	granted, ok := e.grants[level]
	if !ok {
		return Decision{
			Allowed: false,
			Reason:  fmt.Sprintf("permission denied for %s: unknown permission level %q", toolName, level),
			Missing: append([]string(nil), required...),
		}
	}

	var missing []string
	for _, token := range required {
		if !granted[token] {
			missing = append(missing, token)
		}
	}
	if len(missing) > 0 {
		return Decision{
			Allowed: false,
			Reason: fmt.Sprintf("permission denied for %s: level %s is missing capability %s (level grants: %s)",
				toolName, level, strings.Join(missing, ", "), strings.Join(e.Grants(level), ", ")),
			Missing: missing,
		}
	}

	return Decision{Allowed: true}
}
