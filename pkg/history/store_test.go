package history

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolgate/pkg/tool"
)

func newCall(id, requested, canonical string, status tool.CallStatus) *tool.Call {
	return &tool.Call{
		ID:            id,
		RequestedName: requested,
		CanonicalName: canonical,
		Status:        status,
		StartedAt:     time.Now(),
	}
}

func TestStore_AppendAndGet(t *testing.T) {
	s := NewStore(Config{})
	defer s.Stop()

	s.Append(newCall("c1", "Read", "file-reader", tool.StatusPending), &tool.CallContext{
		UserID:    "u1",
		SessionID: "sess1",
		AgentName: "planner",
	})

	e, ok := s.Get("c1")
	require.True(t, ok)
	assert.Equal(t, "u1", e.UserID)
	assert.Equal(t, "sess1", e.SessionID)
	assert.Equal(t, "planner", e.AgentName)
	assert.Equal(t, tool.StatusPending, e.Call.Status)
	assert.False(t, e.InsertedAt.IsZero())
}

func TestStore_CountCap(t *testing.T) {
	s := NewStore(Config{MaxEntries: 5})
	defer s.Stop()

	for i := 0; i < 12; i++ {
		s.Append(newCall(fmt.Sprintf("c%d", i), "Read", "file-reader", tool.StatusPending), nil)
	}

	assert.Equal(t, 5, s.Len())

	// The survivors are the most recently inserted ones.
	for i := 7; i < 12; i++ {
		_, ok := s.Get(fmt.Sprintf("c%d", i))
		assert.True(t, ok, i)
	}
	_, ok := s.Get("c0")
	assert.False(t, ok)
}

func TestStore_UpdateByID(t *testing.T) {
	s := NewStore(Config{})
	defer s.Stop()

	s.Append(newCall("c1", "Read", "file-reader", tool.StatusPending), nil)

	ok := s.Update("c1", func(c *tool.Call) {
		c.Status = tool.StatusCompleted
		c.CompletedAt = time.Now()
		c.Result = tool.Ok("done")
	})
	require.True(t, ok)

	e, _ := s.Get("c1")
	assert.Equal(t, tool.StatusCompleted, e.Call.Status)
	require.NotNil(t, e.Call.Result)
	assert.Equal(t, "done", e.Call.Result.Output)

	assert.False(t, s.Update("missing", func(c *tool.Call) {}))
}

func TestStore_QueryFiltersCompose(t *testing.T) {
	s := NewStore(Config{})
	defer s.Stop()

	s.Append(newCall("c1", "Read", "file-reader", tool.StatusCompleted), &tool.CallContext{UserID: "u1", SessionID: "s1"})
	s.Append(newCall("c2", "Bash", "command-executor", tool.StatusFailed), &tool.CallContext{UserID: "u1", SessionID: "s2"})
	s.Append(newCall("c3", "Read", "file-reader", tool.StatusFailed), &tool.CallContext{UserID: "u2", SessionID: "s1"})

	assert.Len(t, s.Query(Filter{Tool: "file-reader"}), 2)
	assert.Len(t, s.Query(Filter{UserID: "u1"}), 2)
	assert.Len(t, s.Query(Filter{Status: tool.StatusFailed}), 2)
	assert.Len(t, s.Query(Filter{Tool: "file-reader", UserID: "u1"}), 1)
	assert.Len(t, s.Query(Filter{Tool: "file-reader", UserID: "u1", Status: tool.StatusFailed}), 0)
	assert.Len(t, s.Query(Filter{SessionID: "s1", Status: tool.StatusFailed}), 1)
}

func TestStore_QueryNewestFirstWithLimit(t *testing.T) {
	s := NewStore(Config{})
	defer s.Stop()

	for i := 0; i < 4; i++ {
		s.Append(newCall(fmt.Sprintf("c%d", i), "Read", "file-reader", tool.StatusCompleted), nil)
	}

	got := s.Query(Filter{Limit: 2})
	require.Len(t, got, 2)
	assert.Equal(t, "c3", got[0].Call.ID)
	assert.Equal(t, "c2", got[1].Call.ID)
}

func TestStore_SweepRemovesAgedEntries(t *testing.T) {
	s := NewStore(Config{MaxAge: time.Hour})
	defer s.Stop()

	old := time.Now().Add(-2 * time.Hour)
	s.now = func() time.Time { return old }
	s.Append(newCall("old", "Read", "file-reader", tool.StatusCompleted), nil)

	s.now = time.Now
	s.Append(newCall("fresh", "Read", "file-reader", tool.StatusCompleted), nil)

	s.sweep()

	assert.Equal(t, 1, s.Len())
	_, ok := s.Get("old")
	assert.False(t, ok)
	_, ok = s.Get("fresh")
	assert.True(t, ok)
}

func TestStore_StaleRunningReportedFailed(t *testing.T) {
	s := NewStore(Config{StaleGrace: time.Minute})
	defer s.Stop()

	c := newCall("stuck", "Bash", "command-executor", tool.StatusRunning)
	c.StartedAt = time.Now().Add(-5 * time.Minute)
	s.Append(c, nil)

	e, ok := s.Get("stuck")
	require.True(t, ok)
	assert.Equal(t, tool.StatusFailed, e.Call.Status)
	assert.Contains(t, e.Call.Error, "abandoned")

	// The reconciliation is read-side only; the stored call is untouched.
	s.mu.RLock()
	assert.Equal(t, tool.StatusRunning, s.byID["stuck"].Call.Status)
	s.mu.RUnlock()
}

func TestStore_StopClearsEntries(t *testing.T) {
	s := NewStore(Config{})
	s.Start()

	s.Append(newCall("c1", "Read", "file-reader", tool.StatusCompleted), nil)
	s.Stop()

	assert.Equal(t, 0, s.Len())
	// Stop is idempotent.
	s.Stop()
}

func TestArchiver_RecordsTerminalCalls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.db")
	arch, err := OpenArchiver(path)
	require.NoError(t, err)
	defer arch.Close()

	s := NewStore(Config{Archiver: arch})
	defer s.Stop()

	s.Append(newCall("c1", "Read", "file-reader", tool.StatusPending), &tool.CallContext{UserID: "u1"})

	// Non-terminal updates are not archived.
	s.Update("c1", func(c *tool.Call) { c.Status = tool.StatusRunning })
	n, err := arch.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	s.Update("c1", func(c *tool.Call) {
		c.Status = tool.StatusCompleted
		c.CompletedAt = time.Now()
	})
	n, err = arch.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
