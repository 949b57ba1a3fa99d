// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the command layer for the rigsh shell.
//
// This package turns raw input into dispatchable invocations: it tokenizes
// input lines, resolves partial or misspelled command names against the
// registry, and defines the handler contract commands are written against.
//
// # Key Types
//
//   - Registry: Command registry, unique names plus aliases
//   - Command / Handler: A registered command and its implementation
//   - Context: Per-execution state handed to a Handler (stdin, stdout)
//   - LineSource: Abstract input a handler reads prompts from
//   - Input: FromTerminal (raw line) or FromArgv (pre-split argv)
//   - MatchResult: Single, Multiple or NoMatch from the fuzzy resolver
//   - Completer: Tab completion for command names
//
// # Usage
//
// Tokenize and resolve a line:
//
//	tokens := commands.Tokenize(`ll.agent.engage --name="Ada L"`)
//	match := commands.Resolve(tokens[0], registry.Names())
//	switch match.Kind {
//	case commands.MatchSingle:
//	    cmd, _ := registry.Lookup(match.Name())
//	case commands.MatchMultiple:
//	    fmt.Println(commands.FormatSuggestions(match.Names))
//	}
package commands
