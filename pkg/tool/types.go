package tool

import (
	"context"
	"fmt"
	"strings"
	"time"

	"toolgate/pkg/permission"
	"toolgate/pkg/ratelimit"
	"toolgate/pkg/schema"
)

// Category groups tools by what they touch.
type Category string

const (
	CategoryFilesystem Category = "filesystem"
	CategorySearch     Category = "search"
	CategoryShell      Category = "shell"
	CategoryCode       Category = "code"
	CategoryWeb        Category = "web"
	CategoryGeneration Category = "generation"
	CategoryGeneral    Category = "general"
)

// AllCategories returns every valid category.
func AllCategories() []Category {
	return []Category{
		CategoryFilesystem,
		CategorySearch,
		CategoryShell,
		CategoryCode,
		CategoryWeb,
		CategoryGeneration,
		CategoryGeneral,
	}
}

// IsValidCategory checks if a category is valid.
func IsValidCategory(category string) bool {
	c := Category(strings.ToLower(category))
	for _, valid := range AllCategories() {
		if c == valid {
			return true
		}
	}
	return false
}

// CostEstimator predicts the cost of one invocation from its arguments.
type CostEstimator func(params map[string]interface{}) float64

// Executor runs one tool. Implementations must return a Result with
// Success=false for expected business failures and reserve errors for truly
// unexpected faults; the dispatcher converts either into a failed Call.
type Executor interface {
	Execute(ctx context.Context, params map[string]interface{}, callCtx *CallContext) (*Result, error)
}

// ExecutorFunc adapts a plain function to the Executor interface.
type ExecutorFunc func(ctx context.Context, params map[string]interface{}, callCtx *CallContext) (*Result, error)

// Execute implements Executor.
func (f ExecutorFunc) Execute(ctx context.Context, params map[string]interface{}, callCtx *CallContext) (*Result, error) {
	return f(ctx, params, callCtx)
}

// Definition describes one registered tool.
type Definition struct {
	Name         string             `json:"name"` // canonical id
	DisplayName  string             `json:"display_name"`
	Description  string             `json:"description"`
	Aliases      []string           `json:"aliases,omitempty"`
	Category     Category           `json:"category"`
	Capabilities []string           `json:"capabilities,omitempty"` // required capability tokens
	Parameters   []schema.ParamSpec `json:"parameters"`
	RateLimit    *ratelimit.Policy  `json:"rate_limit,omitempty"`
	Active       bool               `json:"active"`
	EstimateCost CostEstimator      `json:"-"`
	Executor     Executor           `json:"-"`
}

// CallContext carries caller identity and runtime settings into every
// executor invocation.
type CallContext struct {
	SessionID  string                 `json:"session_id"`
	UserID     string                 `json:"user_id"`
	Level      permission.Level       `json:"permission_level"`
	WorkingDir string                 `json:"working_dir,omitempty"`
	SandboxID  string                 `json:"sandbox_id,omitempty"`
	AgentName  string                 `json:"agent_name,omitempty"`
	Timeout    time.Duration          `json:"-"` // per-call deadline override
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// ResultMetadata is attached to every normalized result.
type ResultMetadata struct {
	ExecutionTime time.Duration `json:"execution_time"`
	Cost          float64       `json:"cost,omitempty"`
	TokensUsed    int           `json:"tokens_used,omitempty"`
}

// Artifact is a named output produced by a tool run.
type Artifact struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type,omitempty"`
	Path        string `json:"path,omitempty"`
	Content     []byte `json:"content,omitempty"`
}

// Result is the normalized outcome of one invocation.
type Result struct {
	Success   bool                   `json:"success"`
	Output    string                 `json:"output,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Artifacts []Artifact             `json:"artifacts,omitempty"`
	Metadata  ResultMetadata         `json:"metadata"`
}

// Fail builds a business-failure result.
func Fail(format string, args ...interface{}) *Result {
	return &Result{Success: false, Error: fmt.Sprintf(format, args...)}
}

// Ok builds a success result with plain text output.
func Ok(output string) *Result {
	return &Result{Success: true, Output: output}
}
