// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// SESSION MANAGER
// =============================================================================

// Manager tracks session identity and activity.
type Manager struct {
	mu sync.Mutex

	// Session tracking
	sessionID    string
	startTime    time.Time
	lastActivity time.Time
	lastInput    string
	replMode     bool

	// Counters
	commands int
	failures int
	scripts  int
}

// NewManager creates a session manager. replMode is true when the session
// reads from an interactive prompt rather than a single command or script.
func NewManager(replMode bool) *Manager {
	now := time.Now()
	return &Manager{
		sessionID:    generateSessionID(),
		startTime:    now,
		lastActivity: now,
		replMode:     replMode,
	}
}

// =============================================================================
// SESSION STATE
// =============================================================================

// State is the snapshot the session loop consults each iteration.
type State struct {
	HistoryLen int
	LastInput  string
	REPLMode   bool
}

// State returns the current snapshot. History is owned elsewhere, so its
// length is supplied by the caller.
func (m *Manager) State(historyLen int) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return State{
		HistoryLen: historyLen,
		LastInput:  m.lastInput,
		REPLMode:   m.replMode,
	}
}

// SessionID returns the current session ID.
func (m *Manager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// StartTime returns when the session started.
func (m *Manager) StartTime() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startTime
}

// Duration returns how long the session has been active.
func (m *Manager) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return time.Since(m.startTime)
}

// IdleTime returns how long since last activity.
func (m *Manager) IdleTime() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return time.Since(m.lastActivity)
}

// SetREPLMode switches between interactive and one-shot operation.
func (m *Manager) SetREPLMode(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replMode = on
}

// =============================================================================
// ACTIVITY TRACKING
// =============================================================================

// RecordInput stores the raw line just read and marks activity.
func (m *Manager) RecordInput(raw string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastInput = raw
	m.lastActivity = time.Now()
}

// RecordCommand counts one dispatched command and whether it failed.
func (m *Manager) RecordCommand(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands++
	if err != nil {
		m.failures++
	}
	m.lastActivity = time.Now()
}

// RecordScript counts one script run.
func (m *Manager) RecordScript() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts++
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateSessionID creates a unique session ID.
func generateSessionID() string {
	return "sess_" + uuid.NewString()
}

// =============================================================================
// SESSION STATUS
// =============================================================================

// Status represents the current session status.
type Status struct {
	SessionID string
	StartTime time.Time
	Duration  time.Duration
	IdleTime  time.Duration
	LastInput string
	REPLMode  bool
	Commands  int
	Failures  int
	Scripts   int
}

// GetStatus returns the current session status.
func (m *Manager) GetStatus() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	return Status{
		SessionID: m.sessionID,
		StartTime: m.startTime,
		Duration:  now.Sub(m.startTime),
		IdleTime:  now.Sub(m.lastActivity),
		LastInput: m.lastInput,
		REPLMode:  m.replMode,
		Commands:  m.commands,
		Failures:  m.failures,
		Scripts:   m.scripts,
	}
}

// FormatDuration returns a human-readable duration string.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d >= time.Hour {
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	}
	mins := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	if secs == 0 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%dm %ds", mins, secs)
}
