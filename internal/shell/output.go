// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package shell

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/rigsh/internal/commands"
	"github.com/jeranaias/rigsh/internal/config"
	"github.com/jeranaias/rigsh/internal/script"
	"github.com/jeranaias/rigsh/internal/util"
)

// HelpMarker marks text that must be printed without formatting.
const HelpMarker = "USAGE:"

// =============================================================================
// OUTPUT INTERFACE
// =============================================================================

// Output turns command results and errors into printable text.
type Output interface {
	// Render converts a handler result to text ("" prints nothing).
	Render(result any) string

	// IsHelpShaped reports whether text must bypass Format.
	IsHelpShaped(text string) bool

	// Format applies presentation (wrapping) to rendered text.
	Format(text string) string

	// FormatError renders a failure for the user.
	FormatError(err error) string

	// FormatEcho renders a replayed script line.
	FormatEcho(prefix, line string) string
}

// =============================================================================
// RENDERER
// =============================================================================

// Renderer is the default Output, styled with lipgloss.
type Renderer struct {
	wrap int

	errorStyle   lipgloss.Style
	hintStyle    lipgloss.Style
	suggestStyle lipgloss.Style
	echoStyle    lipgloss.Style
}

// NewRenderer creates a renderer writing to out. color is one of the
// config color modes; wrapWidth 0 disables wrapping.
func NewRenderer(out io.Writer, color string, wrapWidth int) *Renderer {
	lg := lipgloss.NewRenderer(out)
	switch color {
	case config.ColorNever:
		lg.SetColorProfile(termenv.Ascii)
	case config.ColorAlways:
		lg.SetColorProfile(termenv.ANSI256)
	default:
		// NO_COLOR wins over detection (https://no-color.org/)
		if os.Getenv("NO_COLOR") != "" {
			lg.SetColorProfile(termenv.Ascii)
		}
	}

	return &Renderer{
		wrap: wrapWidth,
		errorStyle: lg.NewStyle().
			Foreground(lipgloss.Color("196")). // Red
			Bold(true),
		hintStyle: lg.NewStyle().
			Foreground(lipgloss.Color("245")), // Light gray
		suggestStyle: lg.NewStyle().
			Foreground(lipgloss.Color("214")), // Amber
		echoStyle: lg.NewStyle().
			Foreground(lipgloss.Color("39")), // Cyan
	}
}

// Render converts a handler result to text.
func (r *Renderer) Render(result any) string {
	switch v := result.(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		return strings.Join(v, "\n")
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	case map[string]string:
		keys := make([]string, 0, len(v))
		width := 0
		for k := range v {
			keys = append(keys, k)
			width = max(width, util.StringWidth(k))
		}
		sort.Strings(keys)
		lines := make([]string, 0, len(keys))
		for _, k := range keys {
			lines = append(lines, util.PadRight(k, width)+"  "+v[k])
		}
		return strings.Join(lines, "\n")
	default:
		return fmt.Sprintf("%v", v)
	}
}

// IsHelpShaped reports whether text carries the help marker.
func (r *Renderer) IsHelpShaped(text string) bool {
	return strings.Contains(text, HelpMarker)
}

// Format wraps text at the configured width.
func (r *Renderer) Format(text string) string {
	return util.WrapText(text, r.wrap)
}

// FormatError renders err for display.
func (r *Renderer) FormatError(err error) string {
	var (
		ambiguous *commands.AmbiguousError
		notFound  *commands.NotFoundError
		usage     *commands.UsageError
		fileErr   *script.FileError
		heredoc   *script.UnclosedHeredocError
	)

	switch {
	case errors.As(err, &ambiguous):
		return renderLines(r.suggestStyle, ambiguous.Error())
	case errors.As(err, &notFound):
		return r.errorStyle.Render("Error:") + " " + notFound.Error() + "\n" +
			r.hintStyle.Render("Type 'help' for available commands")
	case errors.As(err, &usage):
		msg := usage.Message
		if msg == "" {
			msg = "invalid arguments"
		}
		return r.errorStyle.Render("Error:") + " " + msg + "\n" +
			r.hintStyle.Render("Usage: "+usage.Usage)
	case errors.As(err, &fileErr):
		return fileErr.Error()
	case errors.As(err, &heredoc):
		return r.errorStyle.Render("Script aborted:") + " " + heredoc.Error()
	default:
		return r.errorStyle.Render("Error:") + " " + err.Error()
	}
}

// renderLines styles each line on its own so lipgloss does not pad short
// lines to the width of the longest.
func renderLines(style lipgloss.Style, text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = style.Render(line)
	}
	return strings.Join(lines, "\n")
}

// FormatEcho renders a replayed script line.
func (r *Renderer) FormatEcho(prefix, line string) string {
	return r.echoStyle.Render(prefix) + line
}
