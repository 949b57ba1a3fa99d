// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package shell

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/jeranaias/rigsh/internal/commands"
	"github.com/jeranaias/rigsh/internal/config"
	"github.com/jeranaias/rigsh/internal/script"
)

type stringer struct{}

func (stringer) String() string { return "from Stringer" }

func TestRendererRender(t *testing.T) {
	r := NewRenderer(io.Discard, config.ColorNever, 0)

	tests := []struct {
		name   string
		result any
		want   string
	}{
		{"nil", nil, ""},
		{"string", "plain", "plain"},
		{"lines", []string{"a", "b"}, "a\nb"},
		{"error", errors.New("bad"), "bad"},
		{"stringer", stringer{}, "from Stringer"},
		{"map", map[string]string{"bb": "2", "a": "1"}, "a   1\nbb  2"},
		{"other", 42, "42"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := r.Render(tc.result); got != tc.want {
				t.Errorf("Render(%v) = %q, want %q", tc.result, got, tc.want)
			}
		})
	}
}

func TestRendererIsHelpShaped(t *testing.T) {
	r := NewRenderer(io.Discard, config.ColorNever, 0)

	tests := []struct {
		text string
		want bool
	}{
		{"USAGE: greet [name]", true},
		{"intro\nUSAGE:\n  x", true},
		{"usage: lower case", false},
		{"Hello", false},
	}
	for _, tc := range tests {
		if got := r.IsHelpShaped(tc.text); got != tc.want {
			t.Errorf("IsHelpShaped(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestRendererFormatError(t *testing.T) {
	r := NewRenderer(io.Discard, config.ColorNever, 0)

	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			"ambiguous",
			&commands.AmbiguousError{Input: "agent", Candidates: []string{"a.x", "a.y"}},
			"Did you mean:\n  1. a.x\n  2. a.y",
		},
		{
			"not found",
			&commands.NotFoundError{Name: "zap"},
			"Error: command not found: zap\nType 'help' for available commands",
		},
		{
			"usage",
			&commands.UsageError{Usage: "greet [name]", Message: "too many names"},
			"Error: too many names\nUsage: greet [name]",
		},
		{
			"file",
			&commands.CommandError{Command: "script", Err: &script.FileError{Path: "x.rsh", Err: errors.New("gone")}},
			"cannot read script x.rsh: gone",
		},
		{
			"heredoc",
			fmt.Errorf("load: %w", &script.UnclosedHeredocError{Marker: "EOF", Line: 4}),
			`Script aborted: unclosed heredoc "EOF" starting at line 4`,
		},
		{
			"command",
			&commands.CommandError{Command: "greet", Err: errors.New("no name given")},
			"Error: greet: no name given",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := r.FormatError(tc.err); got != tc.want {
				t.Errorf("FormatError() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRendererFormat(t *testing.T) {
	r := NewRenderer(io.Discard, config.ColorNever, 12)

	got := r.Format("one two three four")
	if got != "one two\nthree four" {
		t.Errorf("Format() = %q", got)
	}
	if echo := r.FormatEcho("script> ", "help"); echo != "script> help" {
		t.Errorf("FormatEcho() = %q", echo)
	}
}

func TestRendererAlwaysColors(t *testing.T) {
	r := NewRenderer(io.Discard, config.ColorAlways, 0)

	got := r.FormatError(errors.New("x"))
	if !strings.Contains(got, "\x1b[") {
		t.Errorf("FormatError() = %q, want ANSI escapes", got)
	}
}
