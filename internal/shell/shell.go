// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/jeranaias/rigsh/internal/commands"
	"github.com/jeranaias/rigsh/internal/config"
	"github.com/jeranaias/rigsh/internal/history"
	"github.com/jeranaias/rigsh/internal/session"
)

// historyDenylist holds verbs never recorded, so replaying history cannot
// re-trigger meta-commands.
var historyDenylist = map[string]bool{
	"history": true,
	"redo":    true,
	"flush":   true,
	"help":    true,
}

// =============================================================================
// SHELL
// =============================================================================

// Options configures a Shell. Zero values select defaults.
type Options struct {
	Config   *config.Config
	Registry *commands.Registry
	History  *history.History
	Session  *session.Manager
	Output   Output
	In       commands.LineSource
	Out      io.Writer
	Logger   *log.Logger
	Version  string

	// TerminalWidth is the detected width of the output terminal, or 0
	// when output is not a terminal. It sizes wrapping in auto mode.
	TerminalWidth int
}

// Shell is the session loop. It is not safe for concurrent use: one
// command runs to completion before the next line is read.
type Shell struct {
	cfg       *config.Config
	registry  *commands.Registry
	history   *history.History
	session   *session.Manager
	output    Output
	in        commands.LineSource
	out       io.Writer
	logger    *log.Logger
	resolver  commands.Resolver
	termWidth int
	version   string

	// stdin and stdout are what running commands see; a script swaps them
	// for a virtual input actor.
	stdin  commands.LineSource
	stdout io.Writer

	scripting bool
}

// New creates a shell and registers the builtin commands into the registry.
func New(opts Options) *Shell {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	in := opts.In
	if in == nil {
		in = NewPlain(os.Stdin, out)
	}
	registry := opts.Registry
	if registry == nil {
		registry = commands.NewRegistry()
	}
	hist := opts.History
	if hist == nil {
		hist = history.NewMemory(cfg.History.MaxEntries)
	}
	sess := opts.Session
	if sess == nil {
		sess = session.NewManager(false)
	}
	output := opts.Output
	if output == nil {
		output = NewRenderer(out, cfg.Output.Color, wrapWidth(cfg.Output.WrapWidth, opts.TerminalWidth))
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	version := opts.Version
	if version == "" {
		version = "dev"
	}

	s := &Shell{
		cfg:       cfg,
		registry:  registry,
		history:   hist,
		session:   sess,
		output:    output,
		in:        in,
		out:       out,
		logger:    logger,
		resolver:  commands.NewResolver(cfg.Resolve.ThresholdRatio, cfg.Resolve.MinScore),
		version:   version,
		termWidth: opts.TerminalWidth,
		stdin:     in,
		stdout:    out,
	}
	s.registerBuiltins()
	return s
}

// wrapWidth turns the configured wrap width into the renderer's: auto
// follows the terminal and disables wrapping off a terminal.
func wrapWidth(configured, terminal int) int {
	if configured == config.WrapAuto {
		return max(terminal, 0)
	}
	return configured
}

// Registry returns the registry commands are dispatched from.
func (s *Shell) Registry() *commands.Registry {
	return s.registry
}

// History returns the shell's input history.
func (s *Shell) History() *history.History {
	return s.history
}

// =============================================================================
// SESSION LOOP
// =============================================================================

// Run reads and evaluates lines until quit, end-of-input or ctx is done.
func (s *Shell) Run(ctx context.Context) error {
	s.session.SetREPLMode(true)
	defer s.session.SetREPLMode(false)

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		line, err := s.in.ReadLine(s.cfg.Shell.Prompt)
		if err != nil {
			if errors.Is(err, ErrInterrupted) {
				continue
			}
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(s.out)
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		if s.eval(ctx, commands.FromTerminal(line), true) {
			return nil
		}
	}
}

// Eval evaluates one input and reports whether the session should end.
// The input is recorded in history unless it is a session-only verb.
func (s *Shell) Eval(ctx context.Context, input commands.Input) (quit bool) {
	return s.eval(ctx, input, true)
}

func (s *Shell) eval(ctx context.Context, input commands.Input, record bool) bool {
	inv := commands.Parse(input)
	if inv.Empty() {
		return false
	}
	s.session.RecordInput(inv.Raw)

	// Session-only verbs
	switch inv.Name {
	case "quit", "exit":
		return true
	case "repl":
		return false
	}

	cmd, err := s.resolve(inv.Name)

	if record && !historyDenylist[inv.Name] && (cmd == nil || !historyDenylist[cmd.Name]) {
		s.recordHistory(inv.Raw)
	}

	if err != nil {
		s.session.RecordCommand(err)
		s.printError(err)
		return false
	}

	result, err := s.execute(ctx, cmd, inv.Args)
	s.session.RecordCommand(err)
	if err != nil {
		s.logger.Printf("COMMAND_FAILED | command=%s error=%v", cmd.Name, err)
		s.printError(err)
		return false
	}

	s.printResult(result)
	return false
}

// resolve maps a typed name to a command: exact name or alias first, then
// fuzzy resolution over visible command names.
func (s *Shell) resolve(name string) (*commands.Command, error) {
	if cmd, ok := s.registry.Lookup(name); ok {
		s.logger.Printf("DISPATCH | command=%s", cmd.Name)
		return cmd, nil
	}

	match := s.resolver.Resolve(name, s.registry.Names())
	switch match.Kind {
	case commands.MatchSingle:
		cmd, ok := s.registry.Lookup(match.Name())
		if !ok {
			return nil, &commands.NotFoundError{Name: name}
		}
		s.logger.Printf("RESOLVE | input=%s result=%s", name, cmd.Name)
		return cmd, nil

	case commands.MatchMultiple:
		s.logger.Printf("AMBIGUOUS | input=%s candidates=%s", name, strings.Join(match.Names, ","))
		return nil, &commands.AmbiguousError{Input: name, Candidates: match.Names}

	default:
		s.logger.Printf("NOT_FOUND | input=%s", name)
		return nil, &commands.NotFoundError{Name: name}
	}
}

// execute runs a handler, converting failures and panics to CommandError.
func (s *Shell) execute(ctx context.Context, cmd *commands.Command, args []string) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &commands.CommandError{Command: cmd.Name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	cctx := &commands.Context{
		Ctx:      ctx,
		Name:     cmd.Name,
		Stdin:    s.stdin,
		Stdout:   s.stdout,
		Registry: s.registry,
	}

	result, err = cmd.Handler(cctx, args)
	if err != nil {
		var usage *commands.UsageError
		var cmdErr *commands.CommandError
		if errors.As(err, &usage) || errors.As(err, &cmdErr) || errors.Is(err, commands.ErrNestedScript) {
			return nil, err
		}
		return nil, &commands.CommandError{Command: cmd.Name, Err: err}
	}
	return result, nil
}

func (s *Shell) recordHistory(line string) {
	if err := s.history.Append(line); err != nil {
		s.logger.Printf("HISTORY_ERROR | error=%v", err)
	}
	if rec, ok := s.in.(historyRecorder); ok {
		rec.AppendHistory(line)
	}
}

// =============================================================================
// PRINTING
// =============================================================================

func (s *Shell) printResult(result any) {
	text := s.output.Render(result)
	if text == "" {
		return
	}
	if !s.output.IsHelpShaped(text) {
		text = s.output.Format(text)
	}
	s.println(text)
}

func (s *Shell) printError(err error) {
	s.println(s.output.FormatError(err))
}

// Report prints err the way a failed command is reported.
func (s *Shell) Report(err error) {
	s.printError(err)
}

// Failures returns how many commands have failed in this session.
func (s *Shell) Failures() int {
	return s.session.GetStatus().Failures
}

func (s *Shell) println(text string) {
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	io.WriteString(s.stdout, text)
}
