// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"strings"
)

// =============================================================================
// INPUT
// =============================================================================

// Input is what the shell evaluates: either a raw terminal line or an
// already-split argument vector.
type Input interface {
	isInput()
}

// FromTerminal is a raw line typed at the prompt or read from a script.
type FromTerminal string

// FromArgv is a pre-split argument vector (e.g., process arguments).
type FromArgv []string

func (FromTerminal) isInput() {}
func (FromArgv) isInput()     {}

// =============================================================================
// INVOCATION
// =============================================================================

// Invocation is a parsed, not yet resolved, command call.
type Invocation struct {
	// Name is the first token as typed
	Name string

	// Args are the remaining tokens
	Args []string

	// Raw is the original input line (argv is joined with spaces)
	Raw string
}

// Empty reports whether the input carried no command at all.
func (inv Invocation) Empty() bool {
	return inv.Name == ""
}

// Parse converts an Input into an Invocation. Terminal lines are trimmed
// and tokenized; argv is used as-is.
func Parse(in Input) Invocation {
	var tokens []string
	var raw string

	switch v := in.(type) {
	case FromTerminal:
		raw = strings.TrimSpace(string(v))
		tokens = Tokenize(raw)
	case FromArgv:
		tokens = []string(v)
		raw = strings.Join(tokens, " ")
	}

	inv := Invocation{Raw: raw}
	if len(tokens) == 0 {
		return inv
	}
	inv.Name = tokens[0]
	inv.Args = tokens[1:]
	return inv
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetPartialCommand returns the command name being typed, or "" once the
// cursor has moved on to arguments.
func GetPartialCommand(input string) string {
	input = strings.TrimLeft(input, " \t")
	if strings.ContainsAny(input, " \t") {
		return ""
	}
	return input
}
