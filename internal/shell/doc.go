// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package shell implements the rigsh read-evaluate-print loop.
//
// A Shell reads one line at a time from a commands.LineSource, resolves the
// command name (exactly, then fuzzily), runs the handler and prints its
// result through an Output. Failures are printed and the loop continues;
// only quit, exit or end-of-input stop it.
//
// Scripts run through the same path. Each heredoc directive gets its own
// vinput.Actor as stdin, so a command that prompts for input reads the
// heredoc lines instead of the keyboard and sees end-of-input once they are
// used up.
//
// # Line Sources
//
//   - Liner: interactive terminal with editing, history and tab completion
//   - Plain: any io.Reader (pipes, files, tests)
package shell
