// rigsh - An interactive command shell with fuzzy command resolution and
// heredoc scripting.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jeranaias/rigsh/internal/commands"
	"github.com/jeranaias/rigsh/internal/config"
	"github.com/jeranaias/rigsh/internal/history"
	"github.com/jeranaias/rigsh/internal/script"
	"github.com/jeranaias/rigsh/internal/session"
	"github.com/jeranaias/rigsh/internal/shell"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Exit codes
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
	exitConfig  = 3
)

// exitError carries a process exit code out of cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

type rootOptions struct {
	configPath string
	command    string
	scriptPath string
	watch      bool
	verbose    bool
	noHistory  bool
}

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// execute runs the root command and maps its error to an exit code.
func execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", ee.err)
		}
		return ee.code
	}

	// Flag parsing errors and the like
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return exitUsage
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "rigsh [command [args...]]",
		Short: "Interactive command shell with fuzzy resolution and heredoc scripts",
		Long: `rigsh is a line-oriented command shell.

Command names may be abbreviated or misspelled; the closest registered
command is run, and ambiguous input lists the candidates instead.

Scripts run one command per line. A line ending in "<<MARKER" feeds the
following lines, up to a line containing only MARKER, to the command as
its keyboard input.`,
		Example: `  rigsh                        Start an interactive session
  rigsh greet Alice            Run one command and exit
  rigsh -c 'echo "a b" c'      Run one line and exit
  rigsh --script setup.rsh     Run a script and exit
  rigsh --script setup.rsh --watch
                               Re-run the script whenever it changes`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate),
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd, opts, args)
		},
	}

	flags := cmd.Flags()
	// Everything after the first command word belongs to that command
	flags.SetInterspersed(false)
	flags.StringVar(&opts.configPath, "config", "", "config file (default ~/.rigsh/config.toml)")
	flags.StringVarP(&opts.command, "command", "c", "", "run one command line and exit")
	flags.StringVar(&opts.scriptPath, "script", "", "run a script file and exit")
	flags.BoolVar(&opts.watch, "watch", false, "with --script, re-run the script when it changes")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log dispatch events to stderr")
	flags.BoolVar(&opts.noHistory, "no-history", false, "do not read or write persistent history")

	return cmd
}

// =============================================================================
// ROOT COMMAND
// =============================================================================

func runRoot(cmd *cobra.Command, opts *rootOptions, args []string) error {
	if err := checkModes(opts, args); err != nil {
		return &exitError{code: exitUsage, err: err}
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return &exitError{code: exitConfig, err: err}
	}
	if opts.verbose {
		cfg.Shell.Verbose = true
	}
	if opts.noHistory {
		cfg.History.Enabled = false
	}

	logger := log.New(io.Discard, "", log.LstdFlags)
	if cfg.Shell.Verbose {
		logger.SetOutput(cmd.ErrOrStderr())
	}

	interactive := len(args) == 0 && opts.command == "" && opts.scriptPath == ""
	sess := session.NewManager(interactive)

	hist, err := openHistory(cfg, sess.SessionID(), logger)
	if err != nil {
		return &exitError{code: exitConfig, err: err}
	}
	defer hist.Close()

	registry := commands.NewRegistry()
	stdout := cmd.OutOrStdout()

	var (
		in        commands.LineSource
		termWidth int
	)
	if interactive && shell.IsInteractive() {
		liner := shell.NewLiner(commands.NewCompleter(registry), hist.All())
		defer liner.Close()
		in = liner
		termWidth = shell.TerminalWidth()
	} else {
		in = shell.NewPlain(cmd.InOrStdin(), stdout)
	}

	sh := shell.New(shell.Options{
		Config:        cfg,
		Registry:      registry,
		History:       hist,
		Session:       sess,
		In:            in,
		Out:           stdout,
		Logger:        logger,
		Version:       Version,
		TerminalWidth: termWidth,
	})

	ctx := cmd.Context()
	logger.Printf("SESSION_START | id=%s interactive=%t", sess.SessionID(), interactive)
	defer logger.Printf("SESSION_END | id=%s", sess.SessionID())

	switch {
	case opts.scriptPath != "" && opts.watch:
		return watchScript(ctx, sh, opts.scriptPath, logger)
	case opts.scriptPath != "":
		if err := sh.RunScript(ctx, opts.scriptPath); err != nil {
			sh.Report(err)
			return &exitError{code: exitFailure}
		}
		return nil
	case opts.command != "":
		return oneShot(ctx, sh, commands.FromTerminal(opts.command))
	case len(args) > 0:
		return oneShot(ctx, sh, commands.FromArgv(args))
	default:
		stop := absorbInterrupts(logger)
		defer stop()
		if err := sh.Run(ctx); err != nil {
			return &exitError{code: exitFailure, err: err}
		}
		return nil
	}
}

// checkModes rejects flag combinations that select more than one mode.
func checkModes(opts *rootOptions, args []string) error {
	modes := 0
	if opts.command != "" {
		modes++
	}
	if opts.scriptPath != "" {
		modes++
	}
	if len(args) > 0 {
		modes++
	}
	if modes > 1 {
		return errors.New("use only one of --command, --script or a command with arguments")
	}
	if opts.watch && opts.scriptPath == "" {
		return errors.New("--watch requires --script")
	}
	return nil
}

// openHistory opens the persistent history, falling back to memory when
// history is disabled or the database cannot be opened.
func openHistory(cfg *config.Config, sessionID string, logger *log.Logger) (*history.History, error) {
	if !cfg.History.Enabled {
		return history.NewMemory(cfg.History.MaxEntries), nil
	}

	path, err := cfg.HistoryPath()
	if err != nil {
		return nil, err
	}

	hist, err := history.Open(path, cfg.History.MaxEntries, sessionID)
	if err != nil {
		logger.Printf("HISTORY_ERROR | path=%s error=%v", path, err)
		return history.NewMemory(cfg.History.MaxEntries), nil
	}
	return hist, nil
}

// oneShot evaluates a single input; a failed command is a failed run.
func oneShot(ctx context.Context, sh *shell.Shell, input commands.Input) error {
	before := sh.Failures()
	sh.Eval(ctx, input)
	if sh.Failures() > before {
		return &exitError{code: exitFailure}
	}
	return nil
}

// absorbInterrupts keeps Ctrl+C from ending an interactive session. At the
// prompt liner handles it; while a command runs it is logged and dropped.
func absorbInterrupts(logger *log.Logger) (stop func()) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-sigs:
				logger.Printf("INTERRUPT | ignored")
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
	}
}

// watchScript runs the script, then again on every change until ctx ends or
// the process is interrupted.
func watchScript(ctx context.Context, sh *shell.Shell, path string, logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := script.NewWatcher(path, script.DefaultDebounce, logger)
	if err != nil {
		return &exitError{code: exitFailure, err: err}
	}
	defer w.Close()

	run := func() {
		if err := sh.RunScript(ctx, path); err != nil && ctx.Err() == nil {
			sh.Report(err)
		}
	}

	run()
	if err := w.Run(ctx, run); err != nil && !errors.Is(err, context.Canceled) {
		return &exitError{code: exitFailure, err: err}
	}
	return nil
}
