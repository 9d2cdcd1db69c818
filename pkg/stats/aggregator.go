// Package stats keeps running usage counters per canonical tool id.
package stats

import (
	"sync"
	"time"
)

// UsageStats holds the running counters for one tool. Counts only ever
// increase; the execution-time average is a streaming mean, so no running
// sum is stored.
type UsageStats struct {
	Total                int64         `json:"total"`
	Successful           int64         `json:"successful"`
	Failed               int64         `json:"failed"`
	TotalCost            float64       `json:"total_cost"`
	AverageExecutionTime time.Duration `json:"average_execution_time"`
}

// Aggregator aggregates terminal call outcomes per canonical tool id.
type Aggregator struct {
	mu     sync.RWMutex
	byTool map[string]*UsageStats
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{byTool: make(map[string]*UsageStats)}
}

// Ensure creates a zeroed row for a tool if none exists. Registration calls
// this so re-registering a tool preserves its existing counters.
func (a *Aggregator) Ensure(toolID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.byTool[toolID]; !ok {
		a.byTool[toolID] = &UsageStats{}
	}
}

// Record folds one terminal outcome into the tool's counters using the
// recurrence avg' = (avg*(n-1) + latest) / n with the post-increment total.
func (a *Aggregator) Record(toolID string, success bool, cost float64, elapsed time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, ok := a.byTool[toolID]
	if !ok {
		s = &UsageStats{}
		a.byTool[toolID] = s
	}

	s.Total++
	if success {
		s.Successful++
	} else {
		s.Failed++
	}
	s.TotalCost += cost

	n := s.Total
	s.AverageExecutionTime = time.Duration(
		(int64(s.AverageExecutionTime)*(n-1) + int64(elapsed)) / n,
	)
}

// Get returns a copy of one tool's counters.
func (a *Aggregator) Get(toolID string) (UsageStats, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	s, ok := a.byTool[toolID]
	if !ok {
		return UsageStats{}, false
	}
	return *s, true
}

// Snapshot returns a copy of every tool's counters.
func (a *Aggregator) Snapshot() map[string]UsageStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make(map[string]UsageStats, len(a.byTool))
	for id, s := range a.byTool {
		out[id] = *s
	}
	return out
}

// Clear resets every counter. This is the only way stats are ever reset.
func (a *Aggregator) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.byTool = make(map[string]*UsageStats)
}
