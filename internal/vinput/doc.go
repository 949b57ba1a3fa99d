// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package vinput replays scripted lines to a command that expects to read
// from an interactive terminal.
//
// An Actor owns its lines on a dedicated goroutine and answers read and
// write requests over channels. Commands receive it as a
// commands.LineSource (or io.Reader) and cannot tell it from a keyboard,
// except that it reports io.EOF as soon as the scripted lines run out
// instead of blocking.
package vinput
