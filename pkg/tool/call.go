package tool

import "time"

// CallStatus is the lifecycle state of one invocation attempt.
type CallStatus string

const (
	StatusPending   CallStatus = "pending"
	StatusRunning   CallStatus = "running"
	StatusCompleted CallStatus = "completed"
	StatusFailed    CallStatus = "failed"
)

// Terminal reports whether a status is final.
func (s CallStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Call is one invocation attempt and its full lifecycle record. It is
// created pending before name resolution, so the requested name and the
// resolved canonical name are kept separately for audit.
type Call struct {
	ID            string                 `json:"id"`
	RequestedName string                 `json:"requested_name"`
	CanonicalName string                 `json:"canonical_name,omitempty"`
	Arguments     map[string]interface{} `json:"arguments,omitempty"`
	Status        CallStatus             `json:"status"`
	Result        *Result                `json:"result,omitempty"`
	Error         string                 `json:"error,omitempty"`
	StartedAt     time.Time              `json:"started_at"`
	CompletedAt   time.Time              `json:"completed_at,omitempty"`
}

// Duration is the elapsed wall-clock time of a finished call.
func (c *Call) Duration() time.Duration {
	if c.CompletedAt.IsZero() {
		return 0
	}
	return c.CompletedAt.Sub(c.StartedAt)
}

// Clone returns a deep-enough copy for handing out of the history store:
// the argument map is shared read-only, the mutable fields are copied.
func (c *Call) Clone() *Call {
	out := *c
	if c.Result != nil {
		res := *c.Result
		out.Result = &res
	}
	return &out
}
