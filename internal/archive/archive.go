// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package archive

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrClosed        = errors.New("archive is closed")
	ErrDatabaseError = errors.New("database error")
)

// =============================================================================
// EXCHANGE ARCHIVE
// =============================================================================

// Exchange is one archived question/answer pair.
type Exchange struct {
	ID        string
	SessionID string
	Seq       int
	Question  string
	Answer    string
	CreatedAt time.Time
}

// Archive stores exchanges in a SQLite database, one session row per
// program run. All methods are safe to call on a nil Archive, which
// makes the archive-disabled path a plain no-op at call sites.
type Archive struct {
	db        *sql.DB
	sessionID string
	seq       int
}

// DefaultPath returns the archive database path under the sollama
// config directory.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".sollama", "archive.db"), nil
}

// Open opens (creating if needed) the archive database at path and
// registers a new session row for the given model.
func Open(path, model string) (*Archive, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive database: %w", err)
	}

	// SQLite supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
	}

	a := &Archive{db: db, sessionID: uuid.NewString()}
	if err := a.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	if err := a.beginSession(model); err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

func (a *Archive) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id         TEXT PRIMARY KEY,
		model      TEXT NOT NULL,
		started_at TIMESTAMP NOT NULL
	);
	CREATE TABLE IF NOT EXISTS exchanges (
		id         TEXT PRIMARY KEY,
		session_id TEXT NOT NULL REFERENCES sessions(id),
		seq        INTEGER NOT NULL,
		question   TEXT NOT NULL,
		answer     TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_exchanges_session ON exchanges(session_id);
	CREATE INDEX IF NOT EXISTS idx_exchanges_created ON exchanges(created_at);
	`
	if _, err := a.db.Exec(schema); err != nil {
		return fmt.Errorf("%w: failed to create schema: %v", ErrDatabaseError, err)
	}
	return nil
}

func (a *Archive) beginSession(model string) error {
	_, err := a.db.Exec(
		"INSERT INTO sessions (id, model, started_at) VALUES (?, ?, ?)",
		a.sessionID, model, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("%w: failed to register session: %v", ErrDatabaseError, err)
	}
	return nil
}

// SessionID returns the identifier of the current session row.
func (a *Archive) SessionID() string {
	if a == nil {
		return ""
	}
	return a.sessionID
}

// Close closes the underlying database.
func (a *Archive) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

// Record stores one completed exchange for the current session.
func (a *Archive) Record(question, answer string) error {
	if a == nil {
		return nil
	}
	if a.db == nil {
		return ErrClosed
	}

	a.seq++
	_, err := a.db.Exec(
		"INSERT INTO exchanges (id, session_id, seq, question, answer, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		uuid.NewString(), a.sessionID, a.seq, question, answer, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("%w: failed to record exchange: %v", ErrDatabaseError, err)
	}
	return nil
}

// Search returns up to limit exchanges whose question or answer
// contains term, newest first. Matching is case-insensitive.
func (a *Archive) Search(term string, limit int) ([]Exchange, error) {
	if a == nil {
		return nil, nil
	}
	if a.db == nil {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = 10
	}

	pattern := "%" + term + "%"
	rows, err := a.db.Query(`
		SELECT id, session_id, seq, question, answer, created_at
		FROM exchanges
		WHERE question LIKE ? OR answer LIKE ?
		ORDER BY created_at DESC, seq DESC
		LIMIT ?`,
		pattern, pattern, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: search failed: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	return scanExchanges(rows)
}

// Recent returns the n most recently archived exchanges, newest first.
func (a *Archive) Recent(n int) ([]Exchange, error) {
	if a == nil {
		return nil, nil
	}
	if a.db == nil {
		return nil, ErrClosed
	}
	if n <= 0 {
		n = 10
	}

	rows, err := a.db.Query(`
		SELECT id, session_id, seq, question, answer, created_at
		FROM exchanges
		ORDER BY created_at DESC, seq DESC
		LIMIT ?`,
		n,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: query failed: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	return scanExchanges(rows)
}

func scanExchanges(rows *sql.Rows) ([]Exchange, error) {
	var results []Exchange
	for rows.Next() {
		var e Exchange
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Seq, &e.Question, &e.Answer, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan failed: %v", ErrDatabaseError, err)
		}
		results = append(results, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return results, nil
}
