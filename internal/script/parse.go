// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package script

import (
	"fmt"
	"regexp"
	"strings"
)

// =============================================================================
// DIRECTIVES
// =============================================================================

// DirectiveKind distinguishes plain commands from heredoc commands.
type DirectiveKind int

const (
	// Command is a single line executed with no stdin.
	Command DirectiveKind = iota
	// CommandWithStdin carries heredoc lines as the command's input.
	CommandWithStdin
)

func (k DirectiveKind) String() string {
	switch k {
	case Command:
		return "command"
	case CommandWithStdin:
		return "command-with-stdin"
	default:
		return fmt.Sprintf("DirectiveKind(%d)", int(k))
	}
}

// Directive is one executable step of a script.
type Directive struct {
	Kind    DirectiveKind
	Command string   // Trimmed command text
	Marker  string   // Heredoc terminator (CommandWithStdin only)
	Lines   []string // Heredoc content, verbatim (CommandWithStdin only)
	Line    int      // 1-based line the directive starts on
}

// UnclosedHeredocError is returned when the input ends inside a heredoc.
type UnclosedHeredocError struct {
	Marker string
	Line   int // Line holding the "<<MARKER" opener
}

func (e *UnclosedHeredocError) Error() string {
	return fmt.Sprintf("unclosed heredoc %q starting at line %d", e.Marker, e.Line)
}

// =============================================================================
// PARSER
// =============================================================================

// heredocOpener matches "<command text> <<MARKER".
var heredocOpener = regexp.MustCompile(`^(\S.*?)\s*<<\s*(\w+)$`)

// Parse converts script text into directives in source order.
func Parse(text string) ([]Directive, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")

	directives := make([]Directive, 0, len(lines))
	var open *Directive

	for i, raw := range lines {
		lineNo := i + 1
		raw = strings.TrimSuffix(raw, "\r")
		trimmed := strings.TrimSpace(raw)

		if open != nil {
			if trimmed == open.Marker {
				directives = append(directives, *open)
				open = nil
				continue
			}
			open.Lines = append(open.Lines, raw)
			continue
		}

		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		if m := heredocOpener.FindStringSubmatch(trimmed); m != nil {
			open = &Directive{
				Kind:    CommandWithStdin,
				Command: m[1],
				Marker:  m[2],
				Lines:   []string{},
				Line:    lineNo,
			}
			continue
		}

		directives = append(directives, Directive{
			Kind:    Command,
			Command: trimmed,
			Line:    lineNo,
		})
	}

	if open != nil {
		return nil, &UnclosedHeredocError{Marker: open.Marker, Line: open.Line}
	}
	return directives, nil
}
