// Package history keeps a local record of editing sessions so the frontend
// can offer "recently edited" shortcuts.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const timeFormat = "2006-01-02 15:04:05"

// Entry is one recorded editing session.
type Entry struct {
	ID          string     `json:"id"`
	StructureID string     `json:"structure_id"`
	SitePath    string     `json:"site_path"`
	IsNew       bool       `json:"is_new"`
	OpenedAt    time.Time  `json:"opened_at"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
}

// Store wraps the SQLite session log.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.RWMutex
}

// Open opens or creates the session database in the given directory.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	dbPath := filepath.Join(dir, "pagedoor.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable foreign keys and WAL mode for better concurrency
	if _, err := db.Exec(`
		PRAGMA foreign_keys = ON;
		PRAGMA journal_mode = WAL;
		PRAGMA busy_timeout = 5000;
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure database: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS editor_sessions (
			id           TEXT PRIMARY KEY,
			structure_id TEXT DEFAULT '',
			site_path    TEXT DEFAULT '',
			is_new       INTEGER DEFAULT 0,
			opened_at    TEXT NOT NULL,
			closed_at    TEXT
		);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sessions table: %w", err)
	}

	return &Store{db: db, path: dbPath}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// RecordOpen logs the start of an editing session and returns its id.
func (s *Store) RecordOpen(structureID, sitePath string, isNew bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	_, err := s.db.Exec(`
		INSERT INTO editor_sessions (id, structure_id, site_path, is_new, opened_at)
		VALUES (?, ?, ?, ?, ?)
	`, id, structureID, sitePath, boolToInt(isNew), time.Now().UTC().Format(timeFormat))
	if err != nil {
		return "", fmt.Errorf("record open: %w", err)
	}
	return id, nil
}

// RecordClose marks a session as finished. A non-empty sitePath also updates
// the stored path, which covers resources whose path only became known while
// editing.
func (s *Store) RecordClose(id, sitePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(timeFormat)
	var err error
	if sitePath != "" {
		_, err = s.db.Exec(`UPDATE editor_sessions SET closed_at = ?, site_path = ? WHERE id = ?`, now, sitePath, id)
	} else {
		_, err = s.db.Exec(`UPDATE editor_sessions SET closed_at = ? WHERE id = ?`, now, id)
	}
	if err != nil {
		return fmt.Errorf("record close: %w", err)
	}
	return nil
}

// Discard deletes a session row outright. Used when an open request never
// produced a dialog, so the row would otherwise linger as forever-open.
func (s *Store) Discard(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM editor_sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("discard session: %w", err)
	}
	return nil
}

// Recent returns the most recently opened sessions, newest first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, structure_id, site_path, is_new, opened_at, closed_at
		FROM editor_sessions
		ORDER BY opened_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e        Entry
			isNew    int
			openedAt string
			closedAt sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.StructureID, &e.SitePath, &isNew, &openedAt, &closedAt); err != nil {
			return nil, err
		}
		e.IsNew = isNew != 0
		if t, err := time.Parse(timeFormat, openedAt); err == nil {
			e.OpenedAt = t
		}
		if closedAt.Valid {
			if t, err := time.Parse(timeFormat, closedAt.String); err == nil {
				e.ClosedAt = &t
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune deletes all but the newest keep sessions.
func (s *Store) Prune(keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if keep <= 0 {
		keep = 100
	}
	_, err := s.db.Exec(`
		DELETE FROM editor_sessions
		WHERE id NOT IN (
			SELECT id FROM editor_sessions ORDER BY opened_at DESC, rowid DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return fmt.Errorf("prune sessions: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
