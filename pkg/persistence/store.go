// Package persistence provides SQLite-backed storage for clarification
// sessions, so a session suspended at its answer-collection point survives
// process exit and can be resumed by a later invocation.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure-Go SQLite driver, no CGO

	"oos/pkg/clarify"
	"oos/pkg/logx"
)

// ErrSessionNotFound is returned when no stored session matches the id.
var ErrSessionNotFound = errors.New("session not found")

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	state      TEXT NOT NULL,
	snapshot   TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_state ON sessions(state);
`

// SessionInfo summarizes a stored session for listings.
type SessionInfo struct {
	ID        string        `json:"id"`
	State     clarify.State `json:"state"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Store persists session snapshots in a SQLite database.
type Store struct {
	db     *sql.DB
	logger *logx.Logger
}

// Open creates or opens the session database at dbPath. The parent
// directory is created if missing.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", fmt.Sprintf(
		"file:%s?_journal_mode=WAL&_busy_timeout=5000", dbPath,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &Store{
		db:     db,
		logger: logx.NewLogger("persistence"),
	}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// SaveSession upserts a session snapshot keyed by session id.
func (s *Store) SaveSession(snap clarify.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal session snapshot: %w", err)
	}

	now := time.Now().UTC()
	_, err = s.db.Exec(`
		INSERT INTO sessions (id, state, snapshot, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			state = excluded.state,
			snapshot = excluded.snapshot,
			updated_at = excluded.updated_at
	`, snap.ID, string(snap.State), string(data), now, now)
	if err != nil {
		return fmt.Errorf("failed to save session %s: %w", snap.ID, err)
	}

	s.logger.Debug("Saved session %s in state %s", snap.ID, snap.State)
	return nil
}

// LoadSession retrieves a snapshot by session id.
func (s *Store) LoadSession(id string) (clarify.Snapshot, error) {
	var data string
	err := s.db.QueryRow(`SELECT snapshot FROM sessions WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return clarify.Snapshot{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return clarify.Snapshot{}, fmt.Errorf("failed to load session %s: %w", id, err)
	}

	var snap clarify.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return clarify.Snapshot{}, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	return snap, nil
}

// ListSessions returns stored sessions, most recently updated first.
func (s *Store) ListSessions() ([]SessionInfo, error) {
	rows, err := s.db.Query(`SELECT id, state, updated_at FROM sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []SessionInfo
	for rows.Next() {
		var info SessionInfo
		var state string
		if err := rows.Scan(&info.ID, &state, &info.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		info.State = clarify.State(state)
		sessions = append(sessions, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return sessions, nil
}

// DeleteSession removes a stored session. Deleting a missing session is
// not an error.
func (s *Store) DeleteSession(id string) error {
	if _, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	return nil
}

// PruneTerminal removes READY and ABANDONED sessions, returning how many
// were deleted.
func (s *Store) PruneTerminal() (int, error) {
	result, err := s.db.Exec(`DELETE FROM sessions WHERE state IN (?, ?)`,
		string(clarify.StateReady), string(clarify.StateAbandoned))
	if err != nil {
		return 0, fmt.Errorf("failed to prune sessions: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned sessions: %w", err)
	}
	return int(count), nil
}
