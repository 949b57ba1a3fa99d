// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"regexp"
	"strings"
	"unicode"
)

// optionValue matches `--name="value"` / `-n="value"` after splitting.
var optionValue = regexp.MustCompile(`^(--?[^\s="]+=)"(.*)"$`)

// =============================================================================
// TOKENIZER
// =============================================================================

// Tokenize splits one raw input line into argument tokens.
//
// Whitespace outside double quotes separates tokens; inside quotes it is
// kept verbatim. A `--name="value"` token collapses to `--name=value`, and a
// token fully wrapped in double quotes loses the wrapping quotes.
//
// An unterminated quote never fails: the rest of the line joins the open
// token, leading quote included.
func Tokenize(line string) []string {
	if line == "" {
		return []string{}
	}

	// Dotted command lines without quotes are the common case.
	if strings.Contains(line, ".") && !strings.Contains(line, `"`) {
		return strings.Fields(line)
	}

	raw := splitQuoted(line)
	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		tokens = append(tokens, unquoteToken(tok))
	}
	return tokens
}

// splitQuoted splits on whitespace outside double quotes, keeping the quote
// characters in the tokens.
func splitQuoted(line string) []string {
	tokens := []string{}
	var current strings.Builder
	inQuote := false
	started := false

	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
			current.WriteRune(r)
			started = true

		case unicode.IsSpace(r) && !inQuote:
			if started {
				tokens = append(tokens, current.String())
				current.Reset()
				started = false
			}

		default:
			current.WriteRune(r)
			started = true
		}
	}

	if started {
		tokens = append(tokens, current.String())
	}
	return tokens
}

func unquoteToken(tok string) string {
	if m := optionValue.FindStringSubmatch(tok); m != nil {
		return m[1] + m[2]
	}
	if len(tok) >= 2 && strings.HasPrefix(tok, `"`) && strings.HasSuffix(tok, `"`) {
		return tok[1 : len(tok)-1]
	}
	return tok
}
