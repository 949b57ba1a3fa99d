// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// terminal.go - Line sources for the session loop and TTY detection.
package shell

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"
	"golang.org/x/term"

	"github.com/jeranaias/rigsh/internal/commands"
)

// ErrInterrupted is returned by a line source when the user pressed Ctrl+C
// at a prompt. The session loop discards the line and prompts again.
var ErrInterrupted = errors.New("interrupted")

// historyRecorder is implemented by line sources with their own recall
// buffer (up-arrow history).
type historyRecorder interface {
	AppendHistory(line string)
}

// =============================================================================
// TTY DETECTION
// =============================================================================

// IsInteractive returns true if both stdin and stdout are terminals.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

const (
	// DefaultTerminalWidth is the fallback width when detection fails
	DefaultTerminalWidth = 80

	// MinTerminalWidth is the minimum width we'll use for wrapping
	MinTerminalWidth = 40
)

// TerminalWidth returns the width of stdout, or DefaultTerminalWidth when
// it is not a terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return DefaultTerminalWidth
	}
	if width < MinTerminalWidth {
		return MinTerminalWidth
	}
	return width
}

// =============================================================================
// LINER (INTERACTIVE)
// =============================================================================

// Liner reads lines from the terminal with editing, recall and completion.
type Liner struct {
	state *liner.State
}

// NewLiner puts the terminal into line-editing mode. seed pre-fills the
// recall buffer (oldest first); completer may be nil.
func NewLiner(completer *commands.Completer, seed []string) *Liner {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	state.SetTabCompletionStyle(liner.TabPrints)
	if completer != nil {
		state.SetCompleter(completer.Complete)
	}
	for _, line := range seed {
		state.AppendHistory(line)
	}
	return &Liner{state: state}
}

// ReadLine prompts and returns the edited line with a trailing "\n".
func (l *Liner) ReadLine(prompt string) (string, error) {
	line, err := l.state.Prompt(prompt)
	if err != nil {
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", ErrInterrupted
		}
		return "", err
	}
	return line + "\n", nil
}

// AppendHistory adds line to the up-arrow recall buffer.
func (l *Liner) AppendHistory(line string) {
	l.state.AppendHistory(line)
}

// Close restores the terminal.
func (l *Liner) Close() error {
	return l.state.Close()
}

// =============================================================================
// PLAIN (PIPES AND FILES)
// =============================================================================

// Plain reads lines from any reader, writing prompts to out.
type Plain struct {
	r   *bufio.Reader
	out io.Writer
}

// NewPlain creates a line source over r. A nil out suppresses prompts.
func NewPlain(r io.Reader, out io.Writer) *Plain {
	if out == nil {
		out = io.Discard
	}
	return &Plain{r: bufio.NewReader(r), out: out}
}

// ReadLine writes prompt and returns the next line with a trailing "\n".
// A final line without a newline is still returned; io.EOF follows it.
func (p *Plain) ReadLine(prompt string) (string, error) {
	if prompt != "" {
		io.WriteString(p.out, prompt)
	}
	line, err := p.r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSuffix(line, "\r") + "\n", nil
		}
		return "", err
	}
	return strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r") + "\n", nil
}
