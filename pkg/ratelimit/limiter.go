package ratelimit

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Policy defines the admission budget for one tool.
type Policy struct {
	MaxRequests int           `json:"max_requests"`
	Window      time.Duration `json:"window"`
}

// Decision is the outcome of an admission check.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

type window struct {
	admitted []time.Time
}

// Limiter is a sliding-window rate limiter. Each tool carries one policy;
// admitted-request timestamps are tracked per user once a user id is seen,
// with a shared tool-level window for anonymous callers.
type Limiter struct {
	mu       sync.Mutex
	policies map[string]Policy
	shared   map[string]*window            // tool id -> anonymous window
	users    map[string]map[string]*window // tool id -> user id -> window
	now      func() time.Time
}

// New creates an empty limiter.
func New() *Limiter {
	return &Limiter{
		policies: make(map[string]Policy),
		shared:   make(map[string]*window),
		users:    make(map[string]map[string]*window),
		now:      time.Now,
	}
}

// SetPolicy installs or replaces the policy for a tool and idempotently
// initializes its shared window.
func (l *Limiter) SetPolicy(toolID string, p Policy) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.policies[toolID] = p
	if _, ok := l.shared[toolID]; !ok {
		l.shared[toolID] = &window{}
	}
	if _, ok := l.users[toolID]; !ok {
		l.users[toolID] = make(map[string]*window)
	}
}

// HasPolicy reports whether a tool is rate limited at all.
func (l *Limiter) HasPolicy(toolID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.policies[toolID]
	return ok
}

// Check admits or rejects a request. On admission the current timestamp is
// appended to the window in the same critical section, so two concurrent
// callers can never both pass on the last remaining slot.
func (l *Limiter) Check(toolID, userID string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	policy, ok := l.policies[toolID]
	if !ok {
		// Tools without a policy are unlimited.
		return Decision{Allowed: true, Remaining: -1}
	}

	now := l.now()
	w := l.bucketLocked(toolID, userID)
	w.prune(now, policy.Window)

	if len(w.admitted) >= policy.MaxRequests {
		oldest := w.admitted[0]
		retry := oldest.Add(policy.Window).Sub(now)
		if retry < 0 {
			retry = 0
		}
		log.Warn().
			Str("tool", toolID).
			Str("user", userID).
			Int("in_window", len(w.admitted)).
			Dur("retry_after", retry).
			Msg("Rate limit exceeded")
		return Decision{Allowed: false, RetryAfter: retry}
	}

	w.admitted = append(w.admitted, now)
	return Decision{Allowed: true, Remaining: policy.MaxRequests - len(w.admitted)}
}

// Remaining reports how many requests the caller could still make in the
// current window without recording anything.
func (l *Limiter) Remaining(toolID, userID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	policy, ok := l.policies[toolID]
	if !ok {
		return -1
	}

	w := l.bucketLocked(toolID, userID)
	w.prune(l.now(), policy.Window)

	remaining := policy.MaxRequests - len(w.admitted)
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// Reset clears the window for one (tool, user) pair.
func (l *Limiter) Reset(toolID, userID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if userID == "" {
		if w, ok := l.shared[toolID]; ok {
			w.admitted = nil
		}
		return
	}
	if byUser, ok := l.users[toolID]; ok {
		if w, ok := byUser[userID]; ok {
			w.admitted = nil
		}
	}
}

// ResetAll clears every window while keeping the policies.
func (l *Limiter) ResetAll() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, w := range l.shared {
		w.admitted = nil
	}
	for _, byUser := range l.users {
		for _, w := range byUser {
			w.admitted = nil
		}
	}
	log.Info().Msg("All rate limit windows reset")
}

// bucketLocked returns the window for a caller, promoting to a user-specific
// window the first time a non-empty user id is seen for the tool. Callers
// must hold l.mu.
func (l *Limiter) bucketLocked(toolID, userID string) *window {
	if userID == "" {
		w, ok := l.shared[toolID]
		if !ok {
			w = &window{}
			l.shared[toolID] = w
		}
		return w
	}

	byUser, ok := l.users[toolID]
	if !ok {
		byUser = make(map[string]*window)
		l.users[toolID] = byUser
	}
	w, ok := byUser[userID]
	if !ok {
		w = &window{}
		byUser[userID] = w
	}
	return w
}

func (w *window) prune(now time.Time, span time.Duration) {
	cutoff := now.Add(-span)
	keep := w.admitted[:0]
	for _, ts := range w.admitted {
		if ts.After(cutoff) {
			keep = append(keep, ts)
		}
	}
	w.admitted = keep
}
