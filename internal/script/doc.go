// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package script parses rigsh script files into directives.
//
// A script is UTF-8 text with LF or CRLF line endings. Blank lines and lines
// starting with '#' are ignored. Every other line is one command, except a
// line of the form
//
//	greet <<EOF
//	Alice
//	EOF
//
// which attaches the enclosed lines as virtual stdin for that command.
// Parsing is all-or-nothing: an unclosed heredoc yields no directives.
package script
