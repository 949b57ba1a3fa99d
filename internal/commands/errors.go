// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error taxonomy for command resolution and dispatch.
//
// Resolution failures are values (MatchResult); these types exist so the
// shell can report them through the same error path as command failures.
package commands

import (
	"errors"
	"fmt"
)

// ErrNestedScript is returned when a script tries to start another script
// while a virtual input source is already installed.
var ErrNestedScript = errors.New("nested script execution is not supported")

// NotFoundError reports that no known command resembles the input.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("command not found: %s", e.Name)
}

// AmbiguousError reports several plausible commands for the input.
// Its message is the numbered disambiguation list.
type AmbiguousError struct {
	Input      string
	Candidates []string
}

func (e *AmbiguousError) Error() string {
	return FormatSuggestions(e.Candidates)
}

// CommandError wraps a failure raised by a command handler.
type CommandError struct {
	Command string // Resolved command name
	Err     error  // Underlying failure
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// UsageError signals bad arguments; the shell prints the command's usage.
type UsageError struct {
	Usage   string
	Message string
}

func (e *UsageError) Error() string {
	if e.Message == "" {
		return "usage: " + e.Usage
	}
	return e.Message + " (usage: " + e.Usage + ")"
}
