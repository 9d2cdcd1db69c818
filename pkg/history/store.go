package history

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"toolgate/pkg/tool"
)

const (
	DefaultMaxEntries    = 1000
	DefaultMaxAge        = 24 * time.Hour
	DefaultSweepInterval = 5 * time.Minute
	DefaultStaleGrace    = 10 * time.Minute
)

// Entry is a Call plus caller context and its insertion timestamp. The
// embedded Call is the only mutable part and is updated by id as the
// dispatcher advances it.
type Entry struct {
	Call       *tool.Call `json:"call"`
	UserID     string     `json:"user_id,omitempty"`
	SessionID  string     `json:"session_id,omitempty"`
	AgentName  string     `json:"agent_name,omitempty"`
	InsertedAt time.Time  `json:"inserted_at"`
}

// Filter selects history entries; all set fields must match.
type Filter struct {
	Tool      string
	UserID    string
	SessionID string
	Status    tool.CallStatus
	Since     time.Time
	Limit     int
}

// Config bounds the store.
type Config struct {
	MaxEntries    int
	MaxAge        time.Duration
	SweepInterval time.Duration
	// StaleGrace is how long a call may sit in running before reads report
	// it as failed (the process that owned it is assumed gone).
	StaleGrace time.Duration
	// Archiver, when set, receives every terminal entry.
	Archiver *Archiver
}

// Store is the bounded history store.
type Store struct {
	mu       sync.RWMutex
	cfg      Config
	entries  []*Entry // insertion order, oldest first
	byID     map[string]*Entry
	stopCh   chan struct{}
	stopOnce sync.Once
	started  bool
	now      func() time.Time
}

// NewStore creates a store; Start launches the age sweep.
func NewStore(cfg Config) *Store {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultMaxAge
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}
	if cfg.StaleGrace <= 0 {
		cfg.StaleGrace = DefaultStaleGrace
	}
	return &Store{
		cfg:    cfg,
		byID:   make(map[string]*Entry),
		stopCh: make(chan struct{}),
		now:    time.Now,
	}
}

// Start launches the periodic age sweep.
func (s *Store) Start() {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	go s.run()
	log.Info().
		Dur("sweep_interval", s.cfg.SweepInterval).
		Dur("max_age", s.cfg.MaxAge).
		Int("max_entries", s.cfg.MaxEntries).
		Msg("History sweep started")
}

// Stop halts the sweep and clears all entries. Mandatory teardown: the
// sweep is a recurring background task tied to the owning registry.
func (s *Store) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})

	s.mu.Lock()
	s.entries = nil
	s.byID = make(map[string]*Entry)
	s.mu.Unlock()

	log.Info().Msg("History store stopped")
}

// Append records a new call, trimming the oldest entries past the count cap.
func (s *Store) Append(call *tool.Call, callCtx *tool.CallContext) {
	e := &Entry{
		Call:       call,
		InsertedAt: s.now(),
	}
	if callCtx != nil {
		e.UserID = callCtx.UserID
		e.SessionID = callCtx.SessionID
		e.AgentName = callCtx.AgentName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, e)
	s.byID[call.ID] = e

	if over := len(s.entries) - s.cfg.MaxEntries; over > 0 {
		for _, old := range s.entries[:over] {
			delete(s.byID, old.Call.ID)
		}
		s.entries = append([]*Entry(nil), s.entries[over:]...)
	}
}

// Update mutates the embedded Call of one entry under the store lock. When
// the mutation reaches a terminal state the entry is handed to the archiver.
func (s *Store) Update(id string, mutate func(c *tool.Call)) bool {
	s.mu.Lock()
	e, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	mutate(e.Call)
	var archived *Entry
	if s.cfg.Archiver != nil && e.Call.Status.Terminal() {
		snapshot := *e
		snapshot.Call = e.Call.Clone()
		archived = &snapshot
	}
	s.mu.Unlock()

	if archived != nil {
		if err := s.cfg.Archiver.Record(*archived); err != nil {
			log.Warn().Err(err).Str("call_id", id).Msg("Failed to archive call")
		}
	}
	return true
}

// Get returns a copy of one entry by call id.
func (s *Store) Get(id string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.byID[id]
	if !ok {
		return Entry{}, false
	}
	return s.snapshotLocked(e), true
}

// Len reports the current entry count.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Query returns copies of the entries matching the filter, newest first.
func (s *Store) Query(f Filter) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Entry{}
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if f.Tool != "" && e.Call.CanonicalName != f.Tool {
			continue
		}
		if f.UserID != "" && e.UserID != f.UserID {
			continue
		}
		if f.SessionID != "" && e.SessionID != f.SessionID {
			continue
		}
		snap := s.snapshotLocked(e)
		if f.Status != "" && snap.Call.Status != f.Status {
			continue
		}
		if !f.Since.IsZero() && e.InsertedAt.Before(f.Since) {
			continue
		}
		out = append(out, snap)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out
}

// snapshotLocked copies an entry for callers, reconciling calls stuck in
// running longer than the stale grace period as failed.
func (s *Store) snapshotLocked(e *Entry) Entry {
	snap := *e
	snap.Call = e.Call.Clone()
	if snap.Call.Status == tool.StatusRunning &&
		s.now().Sub(snap.Call.StartedAt) > s.cfg.StaleGrace {
		snap.Call.Status = tool.StatusFailed
		snap.Call.Error = "call abandoned in running state"
	}
	return snap
}

func (s *Store) run() {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

// sweep removes entries older than MaxAge.
func (s *Store) sweep() {
	cutoff := s.now().Add(-s.cfg.MaxAge)

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.entries[:0]
	removed := 0
	for _, e := range s.entries {
		if e.InsertedAt.Before(cutoff) {
			delete(s.byID, e.Call.ID)
			removed++
			continue
		}
		kept = append(kept, e)
	}
	s.entries = kept

	if removed > 0 {
		log.Debug().Int("removed", removed).Msg("History sweep removed aged entries")
	}
}
