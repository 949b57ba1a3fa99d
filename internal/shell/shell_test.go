// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigsh/internal/commands"
	"github.com/jeranaias/rigsh/internal/config"
	"github.com/jeranaias/rigsh/internal/script"
)

// =============================================================================
// HELPERS
// =============================================================================

type testShell struct {
	*Shell
	out  *bytes.Buffer
	logs *bytes.Buffer
}

func newTestShell(t *testing.T, input string) *testShell {
	t.Helper()

	cfg := config.Default()
	cfg.Output.Color = config.ColorNever

	out := &bytes.Buffer{}
	logs := &bytes.Buffer{}
	s := New(Options{
		Config:  cfg,
		In:      NewPlain(strings.NewReader(input), out),
		Out:     out,
		Logger:  log.New(logs, "", 0),
		Version: "test",
	})
	return &testShell{Shell: s, out: out, logs: logs}
}

// counter registers a command that counts its invocations.
func (ts *testShell) counter(t *testing.T, name string) *int {
	t.Helper()
	n := new(int)
	require.NoError(t, ts.Registry().Register(&commands.Command{
		Name:  name,
		Usage: name,
		Handler: func(ctx *commands.Context, args []string) (any, error) {
			*n++
			return nil, nil
		},
	}))
	return n
}

func writeScript(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.rsh")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func (ts *testShell) eval(line string) bool {
	return ts.Eval(context.Background(), commands.FromTerminal(line))
}

// =============================================================================
// SESSION LOOP
// =============================================================================

func TestRunStopsAtQuit(t *testing.T) {
	ts := newTestShell(t, "echo hello\n\nquit\necho never\n")

	require.NoError(t, ts.Run(context.Background()))

	out := ts.out.String()
	assert.Contains(t, out, "rigsh> hello\n")
	assert.NotContains(t, out, "never")
}

func TestRunStopsAtEOF(t *testing.T) {
	ts := newTestShell(t, "echo first\r\necho last")

	require.NoError(t, ts.Run(context.Background()))

	out := ts.out.String()
	assert.Contains(t, out, "first\n")
	assert.Contains(t, out, "last\n")
	assert.Equal(t, []string{"echo first", "echo last"}, ts.History().All())
}

func TestRunStopsWhenContextDone(t *testing.T) {
	ts := newTestShell(t, "echo never\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, ts.Run(ctx))
	assert.NotContains(t, ts.out.String(), "never")
}

func TestFailuresDoNotEndSession(t *testing.T) {
	ts := newTestShell(t, "nonexistent\nboom\necho still here\n")
	require.NoError(t, ts.Registry().Register(&commands.Command{
		Name: "boom",
		Handler: func(ctx *commands.Context, args []string) (any, error) {
			panic("kaboom")
		},
	}))

	require.NoError(t, ts.Run(context.Background()))

	out := ts.out.String()
	assert.Contains(t, out, "command not found: nonexistent")
	assert.Contains(t, out, "boom: panic: kaboom")
	assert.Contains(t, out, "still here")
	assert.Contains(t, ts.logs.String(), "COMMAND_FAILED | command=boom")
}

func TestSessionVerbs(t *testing.T) {
	ts := newTestShell(t, "")

	assert.True(t, ts.eval("quit"))
	assert.True(t, ts.eval("  exit  "))
	assert.False(t, ts.eval("repl"))
	assert.False(t, ts.eval("   "))
	assert.Empty(t, ts.out.String())
	assert.Equal(t, 0, ts.History().Len())
}

func TestEvalFromArgv(t *testing.T) {
	ts := newTestShell(t, "")

	ts.Eval(context.Background(), commands.FromArgv{"echo", "a  b", `"c"`})
	assert.Equal(t, "a  b \"c\"\n", ts.out.String())
}

// =============================================================================
// RESOLUTION
// =============================================================================

func TestAmbiguousInputRunsNothing(t *testing.T) {
	ts := newTestShell(t, "")
	engage := ts.counter(t, "ll.agent.engage")
	create := ts.counter(t, "ll.agent.create")
	list := ts.counter(t, "ll.agent.list")

	ts.eval("agent")

	assert.Equal(t, 0, *engage+*create+*list)
	assert.Contains(t, ts.out.String(),
		"Did you mean:\n  1. ll.agent.create\n  2. ll.agent.engage\n  3. ll.agent.list")
	assert.Contains(t, ts.logs.String(), "AMBIGUOUS | input=agent")
}

func TestFuzzySingleDispatches(t *testing.T) {
	ts := newTestShell(t, "")
	engage := ts.counter(t, "ll.agent.engage")
	ts.counter(t, "ll.agent.create")
	conf := ts.counter(t, "ll.llm.config")

	ts.eval("engage")
	ts.eval("llm.conf")

	assert.Equal(t, 1, *engage)
	assert.Equal(t, 1, *conf)
	assert.Contains(t, ts.logs.String(), "RESOLVE | input=engage result=ll.agent.engage")
}

func TestAliasDispatchesExactly(t *testing.T) {
	ts := newTestShell(t, "")
	ts.eval("?")
	assert.Contains(t, ts.out.String(), HelpMarker)
}

// =============================================================================
// HISTORY
// =============================================================================

func TestHistoryDenylist(t *testing.T) {
	ts := newTestShell(t, "")

	ts.eval("echo a")
	ts.eval("help")
	ts.eval("history")
	ts.eval("?")
	ts.eval("nonexistent")
	assert.Equal(t, []string{"echo a", "nonexistent"}, ts.History().All())

	ts.out.Reset()
	ts.eval("redo 1")
	assert.Contains(t, ts.out.String(), "a\n")
	assert.Equal(t, []string{"echo a", "nonexistent", "echo a"}, ts.History().All())

	ts.eval("flush")
	assert.Equal(t, 0, ts.History().Len())
}

func TestHistoryCommand(t *testing.T) {
	ts := newTestShell(t, "")
	for _, line := range []string{"echo 1", "echo 2", "echo 3"} {
		ts.eval(line)
	}

	ts.out.Reset()
	ts.eval("history 2")
	assert.Equal(t, "2  echo 2\n3  echo 3\n", ts.out.String())

	ts.out.Reset()
	ts.eval("history x")
	assert.Contains(t, ts.out.String(), "Usage: history [n]")

	ts.out.Reset()
	ts.eval("redo 99")
	assert.Contains(t, ts.out.String(), "no history entry 99")
}

func TestRedoInScriptNotRecorded(t *testing.T) {
	ts := newTestShell(t, "")
	ts.eval("echo a")
	path := writeScript(t, "redo 1\n")

	ts.out.Reset()
	require.NoError(t, ts.RunScript(context.Background(), path))
	assert.Contains(t, ts.out.String(), "a\n")
	assert.Equal(t, []string{"echo a"}, ts.History().All())
}

// =============================================================================
// OUTPUT
// =============================================================================

func TestHelpBypassesFormatting(t *testing.T) {
	ts := newTestShell(t, "")
	r, ok := ts.output.(*Renderer)
	require.True(t, ok)
	r.wrap = 10

	ts.eval("echo aaaa bbbb cccc")
	assert.Equal(t, "aaaa bbbb\ncccc\n", ts.out.String())

	ts.out.Reset()
	ts.eval("help")
	assert.Contains(t, ts.out.String(), "Command names may be abbreviated or misspelled; close matches are resolved.")
}

func TestWrapWidthFollowsTerminal(t *testing.T) {
	tests := []struct {
		name       string
		configured int
		terminal   int
		want       int
	}{
		{"auto on terminal", config.WrapAuto, 20, 20},
		{"auto off terminal", config.WrapAuto, 0, 0},
		{"explicit width", 30, 20, 30},
		{"wrapping off", 0, 20, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Output.Color = config.ColorNever
			cfg.Output.WrapWidth = tc.configured

			s := New(Options{
				Config:        cfg,
				In:            NewPlain(strings.NewReader(""), io.Discard),
				Out:           io.Discard,
				TerminalWidth: tc.terminal,
			})
			r, ok := s.output.(*Renderer)
			require.True(t, ok)
			assert.Equal(t, tc.want, r.wrap)
		})
	}
}

func TestConfigSetWrapAutoUsesTerminal(t *testing.T) {
	ts := newTestShell(t, "")
	ts.termWidth = 50
	r, ok := ts.output.(*Renderer)
	require.True(t, ok)

	ts.eval("config.set output.wrap_width 12")
	assert.Equal(t, 12, r.wrap)

	ts.eval("config.set output.wrap_width -1")
	assert.Equal(t, 50, r.wrap)
}

func TestHelpForCommand(t *testing.T) {
	ts := newTestShell(t, "")

	ts.eval("help greet")
	out := ts.out.String()
	assert.True(t, strings.HasPrefix(out, "USAGE: greet [name]"))
	assert.Contains(t, out, "asking for a name")

	ts.out.Reset()
	ts.eval("help nonexistent")
	assert.Contains(t, ts.out.String(), "command not found: nonexistent")
}

func TestGreetPromptsOnTerminal(t *testing.T) {
	ts := newTestShell(t, "greet\nBob\ngreet\n")

	require.NoError(t, ts.Run(context.Background()))

	out := ts.out.String()
	assert.Contains(t, out, "What is your name? Hello, Bob!")
	assert.Contains(t, out, "Error: greet: no name given")
	// Answers to prompts are not history
	assert.Equal(t, []string{"greet", "greet"}, ts.History().All())
}

func TestConfigCommands(t *testing.T) {
	t.Setenv("RIGSH_CONFIG_DIR", t.TempDir())
	ts := newTestShell(t, "")

	ts.eval("config.set resolve.min_score 0.5")
	assert.Equal(t, 0.5, ts.cfg.Resolve.MinScore)
	assert.Equal(t, 0.5, ts.resolver.MinScore)

	ts.out.Reset()
	ts.eval("config.get resolve.min_score")
	assert.Equal(t, "resolve.min_score = 0.5\n", ts.out.String())

	ts.out.Reset()
	ts.eval("config.set output.color plaid")
	assert.Contains(t, ts.out.String(), "output.color")
	assert.Equal(t, config.ColorNever, ts.cfg.Output.Color)

	ts.out.Reset()
	ts.eval("config.save")
	assert.Contains(t, ts.out.String(), "Configuration saved to")
	_, err := os.Stat(ts.cfg.Source())
	assert.NoError(t, err)
}

func TestConfigGetListsKeys(t *testing.T) {
	ts := newTestShell(t, "")

	ts.eval("config.get")
	out := ts.out.String()
	for _, key := range config.GetAllKeys() {
		assert.Contains(t, out, key+" = ")
	}
	assert.Contains(t, out, "output.wrap_width = -1\n")

	ts.out.Reset()
	ts.eval("config.get shell.verbose resolve.min_score")
	assert.Contains(t, ts.out.String(), "Usage: config.get [key]")
}

func TestAbout(t *testing.T) {
	ts := newTestShell(t, "")
	ts.eval("echo x")
	ts.out.Reset()

	ts.eval("about")
	out := ts.out.String()
	assert.Contains(t, out, "Session   sess_")
	assert.Contains(t, out, "Version   test")
	// about itself is recorded before it runs
	assert.Contains(t, out, "History   2 entries (memory)")
}

// =============================================================================
// SCRIPTS
// =============================================================================

func TestScriptEndToEnd(t *testing.T) {
	ts := newTestShell(t, "")
	path := writeScript(t, "# note\nhelp\ngreet <<EOF\nAlice\nEOF\n")

	require.NoError(t, ts.RunScript(context.Background(), path))

	out := ts.out.String()
	steps := []string{
		"script> help\n",
		HelpMarker,
		"script> greet <<EOF\nAlice\nEOF\n",
		"What is your name? ",
		"Hello, Alice!\n",
	}
	pos := 0
	for _, step := range steps {
		i := strings.Index(out[pos:], step)
		require.GreaterOrEqual(t, i, 0, "missing %q after offset %d in:\n%s", step, pos, out)
		pos += i + len(step)
	}
	assert.NotContains(t, out, "Error")
	assert.NotContains(t, out, "# note")
	assert.Contains(t, ts.logs.String(), "SCRIPT_DONE")
}

func TestScriptHeredocFeedsStdinVerbatim(t *testing.T) {
	ts := newTestShell(t, "")
	var captured []byte
	require.NoError(t, ts.Registry().Register(&commands.Command{
		Name: "capture",
		Handler: func(ctx *commands.Context, args []string) (any, error) {
			data, err := io.ReadAll(ctx.Reader())
			captured = data
			return nil, err
		},
	}))
	path := writeScript(t, "capture <<END\r\nAlice\r\n  Bob  \r\n\r\nEND\r\ncapture\r\n")

	require.NoError(t, ts.RunScript(context.Background(), path))
	// The second, plain capture sees immediate end-of-input
	assert.Empty(t, captured)

	ts.out.Reset()
	path = writeScript(t, "capture <<END\nAlice\n  Bob  \n\nEND\n")
	require.NoError(t, ts.RunScript(context.Background(), path))
	assert.Equal(t, "Alice\n  Bob  \n\n", string(captured))
}

func TestScriptStdoutGoesThroughActor(t *testing.T) {
	ts := newTestShell(t, "")
	require.NoError(t, ts.Registry().Register(&commands.Command{
		Name: "direct",
		Handler: func(ctx *commands.Context, args []string) (any, error) {
			_, err := io.WriteString(ctx.Stdout, "written directly\n")
			return nil, err
		},
	}))

	require.NoError(t, ts.RunScript(context.Background(), writeScript(t, "direct\n")))
	assert.Contains(t, ts.out.String(), "script> direct\nwritten directly\n")
}

func TestScriptPlainCommandSeesEOF(t *testing.T) {
	ts := newTestShell(t, "should not be read\n")

	require.NoError(t, ts.RunScript(context.Background(), writeScript(t, "greet\n")))
	assert.Contains(t, ts.out.String(), "no name given")
}

func TestScriptUnusedLinesLogged(t *testing.T) {
	ts := newTestShell(t, "")
	path := writeScript(t, "greet <<EOF\nAlice\nBob\nEOF\ngreet\n")

	require.NoError(t, ts.RunScript(context.Background(), path))

	assert.Contains(t, ts.logs.String(), "VINPUT_UNUSED | line=1")
	// Bob never leaks into the next command
	assert.NotContains(t, ts.out.String(), "Hello, Bob!")
	assert.Contains(t, ts.out.String(), "no name given")
}

func TestScriptUnclosedHeredocRunsNothing(t *testing.T) {
	ts := newTestShell(t, "")
	n := ts.counter(t, "tick")
	path := writeScript(t, "tick\ntick <<EOF\nline1\n")

	err := ts.RunScript(context.Background(), path)
	var unclosed *script.UnclosedHeredocError
	require.True(t, errors.As(err, &unclosed))
	assert.Equal(t, "EOF", unclosed.Marker)
	assert.Equal(t, 2, unclosed.Line)
	assert.Equal(t, 0, *n)

	ts.eval("script " + path)
	assert.Contains(t, ts.out.String(), `Script aborted: unclosed heredoc "EOF" starting at line 2`)
	assert.Equal(t, 0, *n)
}

func TestScriptUnreadableIsPlainMessage(t *testing.T) {
	ts := newTestShell(t, "")
	missing := filepath.Join(t.TempDir(), "missing.rsh")

	err := ts.RunScript(context.Background(), missing)
	var fileErr *script.FileError
	require.True(t, errors.As(err, &fileErr))

	ts.eval("script " + missing)
	out := ts.out.String()
	assert.True(t, strings.HasPrefix(out, "cannot read script "+missing), out)
	assert.NotContains(t, out, "Error:")
}

func TestScriptFailuresContinue(t *testing.T) {
	ts := newTestShell(t, "")
	path := writeScript(t, "nonexistent\necho after\n")

	require.NoError(t, ts.RunScript(context.Background(), path))
	out := ts.out.String()
	assert.Contains(t, out, "command not found: nonexistent")
	assert.Contains(t, out, "script> echo after\nafter\n")
}

func TestScriptQuitEndsScriptOnly(t *testing.T) {
	ts := newTestShell(t, "")
	path := writeScript(t, "echo one\nquit\necho two\n")

	require.NoError(t, ts.RunScript(context.Background(), path))
	assert.Contains(t, ts.out.String(), "one\n")
	assert.NotContains(t, ts.out.String(), "two")
	assert.False(t, ts.eval("echo three"))
}

func TestNestedScriptRejected(t *testing.T) {
	ts := newTestShell(t, "")
	inner := writeScript(t, "echo inner\n")
	outer := writeScript(t, "script "+inner+"\necho outer\n")

	require.NoError(t, ts.RunScript(context.Background(), outer))

	out := ts.out.String()
	assert.Contains(t, out, commands.ErrNestedScript.Error())
	assert.NotContains(t, out, "script> echo inner")
	assert.Contains(t, out, "outer\n")
}

func TestScriptLinesNotRecorded(t *testing.T) {
	ts := newTestShell(t, "")
	path := writeScript(t, "echo a\necho b\n")

	ts.eval("script " + path)
	assert.Equal(t, []string{"script " + path}, ts.History().All())
}

func TestScriptStopsWhenContextDone(t *testing.T) {
	ts := newTestShell(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ts.RunScript(ctx, writeScript(t, "echo never\n"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotContains(t, ts.out.String(), "never")
}
