package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

// Archiver appends terminal calls to a sqlite audit table. The in-memory
// store stays the query surface; the archive is write-behind and survives
// history trimming.
type Archiver struct {
	mu sync.Mutex
	db *sql.DB
}

const archiveSchema = `
CREATE TABLE IF NOT EXISTS call_archive (
	id             TEXT PRIMARY KEY,
	requested_name TEXT NOT NULL,
	canonical_name TEXT,
	status         TEXT NOT NULL,
	error          TEXT,
	arguments      TEXT,
	user_id        TEXT,
	session_id     TEXT,
	agent_name     TEXT,
	started_at     INTEGER NOT NULL,
	completed_at   INTEGER,
	duration_ms    INTEGER
);
CREATE INDEX IF NOT EXISTS idx_call_archive_tool ON call_archive(canonical_name);
CREATE INDEX IF NOT EXISTS idx_call_archive_user ON call_archive(user_id);
`

// OpenArchiver opens (or creates) the sqlite archive at path.
func OpenArchiver(path string) (*Archiver, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open call archive: %w", err)
	}
	if _, err := db.Exec(archiveSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize call archive schema: %w", err)
	}

	log.Info().Str("path", path).Msg("Call archive opened")
	return &Archiver{db: db}, nil
}

// Record inserts one terminal entry. Replays of the same call id overwrite
// the previous row.
func (a *Archiver) Record(e Entry) error {
	args, err := json.Marshal(e.Call.Arguments)
	if err != nil {
		args = []byte("{}")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	_, err = a.db.Exec(`
		INSERT OR REPLACE INTO call_archive
		(id, requested_name, canonical_name, status, error, arguments,
		 user_id, session_id, agent_name, started_at, completed_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Call.ID,
		e.Call.RequestedName,
		e.Call.CanonicalName,
		string(e.Call.Status),
		e.Call.Error,
		string(args),
		e.UserID,
		e.SessionID,
		e.AgentName,
		e.Call.StartedAt.UnixMilli(),
		e.Call.CompletedAt.UnixMilli(),
		e.Call.Duration().Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to archive call %s: %w", e.Call.ID, err)
	}
	return nil
}

// Count returns the number of archived calls.
func (a *Archiver) Count() (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var n int
	if err := a.db.QueryRow(`SELECT COUNT(*) FROM call_archive`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count archived calls: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (a *Archiver) Close() error {
	return a.db.Close()
}
