package dispatch

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"toolgate/internal/metrics"
	"toolgate/pkg/catalog"
	"toolgate/pkg/history"
	"toolgate/pkg/permission"
	"toolgate/pkg/ratelimit"
	"toolgate/pkg/stats"
	"toolgate/pkg/tool"
)

// DefaultTimeout bounds executor invocations that carry no per-call
// deadline.
const DefaultTimeout = 60 * time.Second

// Listener receives every call that reaches a terminal state.
type Listener func(e history.Entry)

// Config configures a Registry.
type Config struct {
	History history.Config
	// DefaultTimeout is the coordinator-level deadline raced against every
	// executor invocation. Zero means DefaultTimeout.
	DefaultTimeout time.Duration
	// Metrics is optional; when nil no Prometheus metrics are recorded.
	Metrics *metrics.Metrics
}

// Registry is the explicitly constructed tool invocation registry. It owns
// the background history sweep: Start launches it, Close tears it down.
type Registry struct {
	catalog        *catalog.Catalog
	limiter        *ratelimit.Limiter
	eval           *permission.Evaluator
	history        *history.Store
	stats          *stats.Aggregator
	metrics        *metrics.Metrics
	defaultTimeout time.Duration

	mu        sync.Mutex
	listeners []Listener
}

// New creates a registry. Nothing runs in the background until Start.
func New(cfg Config) *Registry {
	timeout := cfg.DefaultTimeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Registry{
		catalog:        catalog.New(),
		limiter:        ratelimit.New(),
		eval:           permission.NewEvaluator(),
		history:        history.NewStore(cfg.History),
		stats:          stats.NewAggregator(),
		metrics:        cfg.Metrics,
		defaultTimeout: timeout,
	}
}

// Start launches the history sweep.
func (r *Registry) Start() {
	r.history.Start()
	log.Info().Int("tools", r.catalog.Len()).Msg("Tool registry started")
}

// Close stops the history sweep and clears the history store.
func (r *Registry) Close() {
	r.history.Stop()
	log.Info().Msg("Tool registry closed")
}

// Register adds or replaces a tool and idempotently seeds its usage-stats
// row and, when a policy is present, its rate window.
func (r *Registry) Register(def tool.Definition) error {
	if err := r.catalog.Register(def); err != nil {
		return err
	}
	r.stats.Ensure(def.Name)
	if def.RateLimit != nil {
		r.limiter.SetPolicy(def.Name, *def.RateLimit)
	}
	return nil
}

// Unregister removes the catalog entry only; history and statistics keep
// their records.
func (r *Registry) Unregister(canonicalID string) bool {
	return r.catalog.Unregister(canonicalID)
}

// Catalog exposes the underlying catalog.
func (r *Registry) Catalog() *catalog.Catalog {
	return r.catalog
}

// Limiter exposes the underlying rate limiter.
func (r *Registry) Limiter() *ratelimit.Limiter {
	return r.limiter
}

// GetTool resolves any name or alias to its definition.
func (r *Registry) GetTool(nameOrAlias string) (tool.Definition, bool) {
	return r.catalog.GetByName(nameOrAlias)
}

// HasPermission reports whether a level may call a tool, with a verbose
// reason on denial.
func (r *Registry) HasPermission(nameOrAlias string, level permission.Level) permission.Decision {
	canonical, ok := r.catalog.Resolver().Resolve(nameOrAlias)
	if !ok {
		return permission.Decision{
			Allowed: false,
			Reason:  fmt.Sprintf("tool not found: %s", nameOrAlias),
		}
	}
	def, ok := r.catalog.Get(canonical)
	if !ok {
		return permission.Decision{
			Allowed: false,
			Reason:  fmt.Sprintf("tool not found: %s", nameOrAlias),
		}
	}
	if !def.Active {
		return permission.Decision{
			Allowed: false,
			Reason:  fmt.Sprintf("tool %s is disabled", canonical),
		}
	}
	return r.eval.Check(canonical, def.Capabilities, level)
}

// AccessibleTools returns the active tools fully granted at a level.
func (r *Registry) AccessibleTools(level permission.Level) []tool.Definition {
	return r.catalog.Accessible(level, r.eval)
}

// History queries the execution history.
func (r *Registry) History(f history.Filter) []history.Entry {
	return r.history.Query(f)
}

// HistoryLen reports the current history size.
func (r *Registry) HistoryLen() int {
	return r.history.Len()
}

// UsageStats returns the counters for one tool.
func (r *Registry) UsageStats(canonicalID string) (stats.UsageStats, bool) {
	return r.stats.Get(canonicalID)
}

// AllUsageStats returns the counters for every tool.
func (r *Registry) AllUsageStats() map[string]stats.UsageStats {
	return r.stats.Snapshot()
}

// ClearStats resets every usage counter.
func (r *Registry) ClearStats() {
	r.stats.Clear()
}

// OnTerminal registers a listener invoked after every terminal transition.
// Listeners run on the dispatching goroutine and should return quickly.
func (r *Registry) OnTerminal(fn Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

func (r *Registry) notifyTerminal(e history.Entry) {
	r.mu.Lock()
	listeners := append([]Listener(nil), r.listeners...)
	r.mu.Unlock()

	for _, fn := range listeners {
		fn(e)
	}
}
