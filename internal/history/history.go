// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// DefaultMaxEntries bounds history when no limit is configured.
const DefaultMaxEntries = 1000

// =============================================================================
// HISTORY
// =============================================================================

// History is an ordered, bounded list of input lines. It is safe for
// concurrent use.
type History struct {
	mu        sync.RWMutex
	entries   []string
	max       int
	db        *sql.DB // nil for in-memory history
	sessionID string
}

// NewMemory creates a history that lives only as long as the process.
func NewMemory(maxEntries int) *History {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &History{max: maxEntries}
}

// Open opens (or creates) a SQLite-backed history at path and loads the
// newest maxEntries lines. New lines are tagged with sessionID.
func Open(path string, maxEntries int, sessionID string) (*History, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=2000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	h := &History{max: maxEntries, db: db, sessionID: sessionID}
	if err := h.load(); err != nil {
		db.Close()
		return nil, err
	}
	return h, nil
}

func (h *History) load() error {
	rows, err := h.db.Query(
		`SELECT line FROM (SELECT id, line FROM history ORDER BY id DESC LIMIT ?) ORDER BY id ASC`,
		h.max,
	)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return fmt.Errorf("failed to load history: %w", err)
		}
		h.entries = append(h.entries, line)
	}
	return rows.Err()
}

// Append records line. The in-memory list is always updated; a store
// failure is returned so the caller can report it.
func (h *History) Append(line string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries, line)
	if over := len(h.entries) - h.max; over > 0 {
		h.entries = append([]string(nil), h.entries[over:]...)
	}

	if h.db == nil {
		return nil
	}
	if _, err := h.db.Exec(
		`INSERT INTO history (session_id, line, created_at) VALUES (?, ?, ?)`,
		h.sessionID, line, time.Now().Unix(),
	); err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	if _, err := h.db.Exec(
		`DELETE FROM history WHERE id NOT IN (SELECT id FROM history ORDER BY id DESC LIMIT ?)`,
		h.max,
	); err != nil {
		return fmt.Errorf("failed to trim history: %w", err)
	}
	return nil
}

// All returns a copy of every entry, oldest first.
func (h *History) All() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]string(nil), h.entries...)
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// Get returns the entry at 1-based position n. Negative n counts back from
// the newest entry (-1 is the last line).
func (h *History) Get(n int) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if n < 0 {
		n = len(h.entries) + n + 1
	}
	if n < 1 || n > len(h.entries) {
		return "", false
	}
	return h.entries[n-1], true
}

// Last returns up to n of the newest entries, oldest first.
func (h *History) Last(n int) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if n <= 0 || n > len(h.entries) {
		n = len(h.entries)
	}
	return append([]string(nil), h.entries[len(h.entries)-n:]...)
}

// Clear removes every entry.
func (h *History) Clear() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = nil
	if h.db == nil {
		return nil
	}
	if _, err := h.db.Exec(`DELETE FROM history`); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// Persistent reports whether entries are stored on disk.
func (h *History) Persistent() bool {
	return h.db != nil
}

// Close releases the underlying store.
func (h *History) Close() error {
	if h.db == nil {
		return nil
	}
	return h.db.Close()
}
