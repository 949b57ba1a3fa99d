// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session tracks the lifetime of one rigsh session.
//
// A Manager is created when the shell starts. It assigns a session ID
// (tagging persisted history rows), remembers the last raw input line, and
// counts dispatched commands, failures and scripts for the "about" command.
//
// State returns the per-iteration snapshot the session loop works with:
//
//	st := mgr.State(hist.Len())
//	if st.REPLMode { ... }
package session
