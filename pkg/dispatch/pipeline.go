package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"toolgate/pkg/history"
	"toolgate/pkg/permission"
	"toolgate/pkg/tool"
)

// ExecuteTool runs the fixed dispatch pipeline for one invocation attempt.
// It always returns a Call; failures of any stage are folded into the
// Call's status and error, never raised to the caller.
func (r *Registry) ExecuteTool(ctx context.Context, nameOrAlias string, params map[string]interface{}, callCtx *tool.CallContext) *tool.Call {
	if ctx == nil {
		ctx = context.Background()
	}
	if callCtx == nil {
		callCtx = &tool.CallContext{Level: permission.LevelBasic}
	}

	call := &tool.Call{
		ID:            uuid.NewString(),
		RequestedName: nameOrAlias,
		Arguments:     params,
		Status:        tool.StatusPending,
		StartedAt:     time.Now(),
	}

	// The entry is written before resolution so even unresolvable names
	// leave an audit trail.
	r.history.Append(call.Clone(), callCtx)
	r.gaugeHistory()

	canonical, ok := r.catalog.Resolver().Resolve(nameOrAlias)
	if !ok {
		return r.reject(call, callCtx, fmt.Sprintf("tool not found: %s", nameOrAlias), nil)
	}
	call.CanonicalName = canonical

	def, ok := r.catalog.Get(canonical)
	if !ok {
		// Alias table and catalog disagree; treat as unknown.
		call.CanonicalName = ""
		return r.reject(call, callCtx, fmt.Sprintf("tool not found: %s", nameOrAlias), nil)
	}
	if !def.Active {
		return r.reject(call, callCtx, fmt.Sprintf("tool %s is disabled", canonical), nil)
	}

	if d := r.eval.Check(canonical, def.Capabilities, callCtx.Level); !d.Allowed {
		if r.metrics != nil {
			r.metrics.PermissionDeniedTotal.WithLabelValues(canonical).Inc()
		}
		return r.reject(call, callCtx, d.Reason, nil)
	}

	if rd := r.limiter.Check(canonical, callCtx.UserID); !rd.Allowed {
		if r.metrics != nil {
			r.metrics.RateLimitedTotal.WithLabelValues(canonical).Inc()
		}
		retryMs := rd.RetryAfter.Milliseconds()
		return r.reject(call, callCtx,
			fmt.Sprintf("rate limit exceeded for %s: retry after %dms", canonical, retryMs),
			map[string]interface{}{"retry_after_ms": retryMs})
	}

	if v := r.catalog.Validator(canonical); v != nil {
		if res := v.Validate(params); !res.Valid {
			if r.metrics != nil {
				r.metrics.ValidationFailedTotal.WithLabelValues(canonical).Inc()
			}
			return r.reject(call, callCtx,
				"parameter validation failed: "+strings.Join(res.Errors, "; "), nil)
		}
	}

	// Every pre-invocation stage passed: the call may now run.
	call.Status = tool.StatusRunning
	r.syncHistory(call)
	if r.metrics != nil {
		r.metrics.ActiveCalls.Inc()
	}

	log.Debug().
		Str("call_id", call.ID).
		Str("tool", canonical).
		Str("user", callCtx.UserID).
		Msg("Invoking tool")

	res, err := r.invoke(ctx, def, params, callCtx)
	if r.metrics != nil {
		r.metrics.ActiveCalls.Dec()
	}

	completedAt := time.Now()
	elapsed := completedAt.Sub(call.StartedAt)

	var cost float64
	if def.EstimateCost != nil {
		cost = def.EstimateCost(params)
	}

	switch {
	case err != nil:
		call.Status = tool.StatusFailed
		call.Error = err.Error()
		call.Result = &tool.Result{
			Success:  false,
			Error:    err.Error(),
			Metadata: tool.ResultMetadata{ExecutionTime: elapsed, Cost: cost},
		}
	default:
		if res == nil {
			res = &tool.Result{Success: true}
		}
		res.Metadata.ExecutionTime = elapsed
		if res.Metadata.Cost == 0 {
			res.Metadata.Cost = cost
		}
		call.Result = res
		if res.Success {
			call.Status = tool.StatusCompleted
		} else {
			call.Status = tool.StatusFailed
			call.Error = res.Error
		}
	}
	call.CompletedAt = completedAt

	r.syncHistory(call)
	r.stats.Record(canonical, call.Status == tool.StatusCompleted, cost, elapsed)
	r.recordInvocation(canonical, call.Status, elapsed)
	r.emitTerminal(call, callCtx)

	log.Info().
		Str("call_id", call.ID).
		Str("tool", canonical).
		Str("status", string(call.Status)).
		Dur("duration", elapsed).
		Msg("Tool invocation finished")

	return call
}

// invoke races the executor against the coordinator deadline. The executor
// runs on its own goroutine; if it ignores cancellation the call is still
// finalized once the deadline fires, and the goroutine is abandoned to
// finish on its own.
func (r *Registry) invoke(ctx context.Context, def tool.Definition, params map[string]interface{}, callCtx *tool.CallContext) (*tool.Result, error) {
	timeout := callCtx.Timeout
	if timeout <= 0 {
		timeout = r.defaultTimeout
	}

	invokeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resultCh := make(chan *tool.Result, 1)
	errCh := make(chan error, 1)

	go func() {
		defer func() {
			if p := recover(); p != nil {
				errCh <- fmt.Errorf("executor panic: %v", p)
			}
		}()
		res, err := def.Executor.Execute(invokeCtx, params, callCtx)
		if err != nil {
			errCh <- err
			return
		}
		resultCh <- res
	}()

	select {
	case res := <-resultCh:
		return res, nil
	case err := <-errCh:
		return nil, err
	case <-invokeCtx.Done():
		if errors.Is(invokeCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %v", tool.ErrExecutionTimeout, timeout)
		}
		return nil, fmt.Errorf("tool execution cancelled: %w", invokeCtx.Err())
	}
}

// reject finalizes a call that never entered running. Statistics are
// updated only when the call resolved to a catalog-known tool.
func (r *Registry) reject(call *tool.Call, callCtx *tool.CallContext, reason string, data map[string]interface{}) *tool.Call {
	now := time.Now()
	elapsed := now.Sub(call.StartedAt)

	call.Status = tool.StatusFailed
	call.Error = reason
	call.CompletedAt = now
	call.Result = &tool.Result{
		Success:  false,
		Error:    reason,
		Data:     data,
		Metadata: tool.ResultMetadata{ExecutionTime: elapsed},
	}

	r.syncHistory(call)
	if call.CanonicalName != "" {
		r.stats.Record(call.CanonicalName, false, 0, elapsed)
	}
	r.recordInvocation(call.CanonicalName, call.Status, elapsed)
	r.emitTerminal(call, callCtx)

	log.Warn().
		Str("call_id", call.ID).
		Str("requested", call.RequestedName).
		Str("reason", reason).
		Msg("Tool call rejected")

	return call
}

// syncHistory mirrors the pipeline's working copy into the stored entry.
func (r *Registry) syncHistory(call *tool.Call) {
	snap := call.Clone()
	r.history.Update(call.ID, func(c *tool.Call) {
		*c = *snap
	})
}

func (r *Registry) recordInvocation(canonical string, status tool.CallStatus, elapsed time.Duration) {
	if r.metrics == nil {
		return
	}
	label := canonical
	if label == "" {
		label = "unknown"
	}
	r.metrics.InvocationsTotal.WithLabelValues(label, string(status)).Inc()
	r.metrics.InvocationDuration.WithLabelValues(label).Observe(elapsed.Seconds())
	r.gaugeHistory()
}

func (r *Registry) gaugeHistory() {
	if r.metrics != nil {
		r.metrics.HistoryEntries.Set(float64(r.history.Len()))
	}
}

// emitTerminal hands the finished call to every listener. The entry is
// rebuilt locally if history trimming already evicted it.
func (r *Registry) emitTerminal(call *tool.Call, callCtx *tool.CallContext) {
	e, ok := r.history.Get(call.ID)
	if !ok {
		e = history.Entry{
			Call:       call.Clone(),
			UserID:     callCtx.UserID,
			SessionID:  callCtx.SessionID,
			AgentName:  callCtx.AgentName,
			InsertedAt: call.StartedAt,
		}
	}
	r.notifyTerminal(e)
}
