// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package shell

import (
	"context"
	"strings"

	"github.com/jeranaias/rigsh/internal/commands"
	"github.com/jeranaias/rigsh/internal/script"
	"github.com/jeranaias/rigsh/internal/vinput"
)

// =============================================================================
// SCRIPT EXECUTION
// =============================================================================

// RunScript loads the script at path and replays each directive through the
// session loop. Load and parse failures abort before anything runs; a
// failing command is printed and the script continues. A quit directive
// ends the script, not the shell.
func (s *Shell) RunScript(ctx context.Context, path string) error {
	if s.scripting {
		return commands.ErrNestedScript
	}

	directives, err := script.Load(path)
	if err != nil {
		s.logger.Printf("SCRIPT_ABORT | path=%s error=%v", path, err)
		return err
	}

	s.scripting = true
	defer func() { s.scripting = false }()

	s.session.RecordScript()
	s.logger.Printf("SCRIPT_START | path=%s directives=%d", path, len(directives))

	ran := 0
	for _, d := range directives {
		if err := ctx.Err(); err != nil {
			s.logger.Printf("SCRIPT_ABORT | path=%s line=%d error=%v", path, d.Line, err)
			return err
		}
		s.echo(d)
		ran++
		if s.runDirective(ctx, d) {
			break
		}
	}

	s.logger.Printf("SCRIPT_DONE | path=%s ran=%d", path, ran)
	return nil
}

// echo prints a directive the way it appears in the script.
func (s *Shell) echo(d script.Directive) {
	prefix := s.cfg.Shell.ScriptPrefix
	if d.Kind != script.CommandWithStdin {
		s.println(s.output.FormatEcho(prefix, d.Command))
		return
	}

	var b strings.Builder
	b.WriteString(s.output.FormatEcho(prefix, d.Command+" <<"+d.Marker))
	for _, line := range d.Lines {
		b.WriteString("\n")
		b.WriteString(line)
	}
	b.WriteString("\n")
	b.WriteString(d.Marker)
	s.println(b.String())
}

// runDirective evaluates one directive with a fresh virtual input actor
// installed as stdin. Plain commands get an empty actor, so an unexpected
// prompt sees end-of-input instead of blocking on the terminal.
func (s *Shell) runDirective(ctx context.Context, d script.Directive) (quit bool) {
	vinput.With(d.Lines, s.out, func(a *vinput.Actor) error {
		prevIn, prevOut := s.stdin, s.stdout
		s.stdin, s.stdout = a, a
		defer func() { s.stdin, s.stdout = prevIn, prevOut }()

		quit = s.eval(ctx, commands.FromTerminal(d.Command), false)

		if rest := a.Remaining(); len(rest) > 0 {
			s.logger.Printf("VINPUT_UNUSED | line=%d command=%q unused=%d", d.Line, d.Command, len(rest))
		}
		return nil
	})
	return quit
}
