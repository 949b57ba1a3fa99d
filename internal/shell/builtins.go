// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package shell

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/jeranaias/rigsh/internal/commands"
	"github.com/jeranaias/rigsh/internal/config"
	"github.com/jeranaias/rigsh/internal/script"
	"github.com/jeranaias/rigsh/internal/session"
	"github.com/jeranaias/rigsh/internal/util"
)

// =============================================================================
// BUILTIN COMMANDS
// =============================================================================

func (s *Shell) registerBuiltins() {
	builtins := []*commands.Command{
		{
			Name:        "help",
			Aliases:     []string{"?"},
			Description: "Show available commands or help for one command",
			Usage:       "help [command]",
			Category:    "Session",
			Handler:     s.cmdHelp,
		},
		{
			Name:        "history",
			Description: "Show input history",
			Usage:       "history [n]",
			Category:    "Session",
			Handler:     s.cmdHistory,
		},
		{
			Name:        "redo",
			Description: "Run a line from history again (default: the last one)",
			Usage:       "redo [n]",
			Category:    "Session",
			Handler:     s.cmdRedo,
		},
		{
			Name:        "flush",
			Description: "Clear input history",
			Usage:       "flush",
			Category:    "Session",
			Handler:     s.cmdFlush,
		},
		{
			Name:        "script",
			Aliases:     []string{"source"},
			Description: "Run commands from a script file",
			Usage:       "script <path>",
			Category:    "Session",
			Handler:     s.cmdScript,
		},
		{
			Name:        "about",
			Description: "Show session information",
			Usage:       "about",
			Category:    "Session",
			Handler:     s.cmdAbout,
		},
		{
			Name:        "echo",
			Description: "Print the arguments",
			Usage:       "echo [text...]",
			Handler:     cmdEcho,
		},
		{
			Name:        "greet",
			Description: "Greet someone, asking for a name if none is given",
			Usage:       "greet [name]",
			Handler:     cmdGreet,
		},
		{
			Name:        "config.show",
			Description: "Show the current configuration",
			Usage:       "config.show",
			Category:    "Config",
			Handler:     s.cmdConfigShow,
		},
		{
			Name:        "config.get",
			Description: "Show one configuration value, or list every key",
			Usage:       "config.get [key]",
			Category:    "Config",
			Handler:     s.cmdConfigGet,
		},
		{
			Name:        "config.set",
			Description: "Change a configuration value for this session",
			Usage:       "config.set <key> <value>",
			Category:    "Config",
			Handler:     s.cmdConfigSet,
		},
		{
			Name:        "config.save",
			Description: "Write the configuration to disk",
			Usage:       "config.save",
			Category:    "Config",
			Handler:     s.cmdConfigSave,
		},
	}

	for _, cmd := range builtins {
		s.registry.MustRegister(cmd)
	}
}

// =============================================================================
// HELP
// =============================================================================

func (s *Shell) cmdHelp(ctx *commands.Context, args []string) (any, error) {
	if len(args) == 0 {
		return s.helpOverview(), nil
	}

	cmd, err := s.resolve(args[0])
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString(HelpMarker + " " + cmd.Usage + "\n")
	if cmd.Description != "" {
		b.WriteString("\n  " + cmd.Description + "\n")
	}
	if len(cmd.Aliases) > 0 {
		b.WriteString("\nAliases: " + strings.Join(cmd.Aliases, ", ") + "\n")
	}
	return b.String(), nil
}

func (s *Shell) helpOverview() string {
	groups := s.registry.ByCategory()
	categories := make([]string, 0, len(groups))
	width := 0
	for category, cmds := range groups {
		categories = append(categories, category)
		for _, cmd := range cmds {
			width = max(width, util.StringWidth(cmd.Usage))
		}
	}
	sort.Strings(categories)

	var b strings.Builder
	b.WriteString(HelpMarker + "\n  <command> [arguments]\n")
	b.WriteString("  Command names may be abbreviated or misspelled; close matches are resolved.\n")
	for _, category := range categories {
		b.WriteString("\n" + strings.ToUpper(category) + ":\n")
		for _, cmd := range groups[category] {
			b.WriteString("  " + util.PadRight(cmd.Usage, width) + "  " + cmd.Description + "\n")
		}
	}
	b.WriteString("\n  quit, exit or Ctrl+D leaves the shell.\n")
	return b.String()
}

// =============================================================================
// HISTORY
// =============================================================================

func (s *Shell) cmdHistory(ctx *commands.Context, args []string) (any, error) {
	n := 0
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 1 {
			return nil, &commands.UsageError{Usage: "history [n]", Message: "n must be a positive number"}
		}
		n = v
	}

	lines := s.history.Last(n)
	if len(lines) == 0 {
		return "No history.", nil
	}

	first := s.history.Len() - len(lines) + 1
	width := len(strconv.Itoa(first + len(lines) - 1))
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = fmt.Sprintf("%*d  %s", width, first+i, line)
	}
	return out, nil
}

func (s *Shell) cmdRedo(ctx *commands.Context, args []string) (any, error) {
	n := -1
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v == 0 {
			return nil, &commands.UsageError{Usage: "redo [n]", Message: "n must be a history number"}
		}
		n = v
	}

	line, ok := s.history.Get(n)
	if !ok {
		return nil, fmt.Errorf("no history entry %d", n)
	}

	io.WriteString(ctx.Stdout, s.output.FormatEcho(s.cfg.Shell.Prompt, line)+"\n")
	s.eval(ctx.Ctx, commands.FromTerminal(line), !s.scripting)
	return nil, nil
}

func (s *Shell) cmdFlush(ctx *commands.Context, args []string) (any, error) {
	if err := s.history.Clear(); err != nil {
		return nil, err
	}
	return "History cleared.", nil
}

// =============================================================================
// SCRIPT
// =============================================================================

func (s *Shell) cmdScript(ctx *commands.Context, args []string) (any, error) {
	if len(args) != 1 {
		return nil, &commands.UsageError{Usage: "script <path>", Message: "expected one script path"}
	}

	err := s.RunScript(ctx.Ctx, args[0])
	var fileErr *script.FileError
	if errors.As(err, &fileErr) {
		// Unreadable scripts are reported, not treated as command failures
		return fileErr.Error(), nil
	}
	return nil, err
}

// =============================================================================
// SESSION INFO
// =============================================================================

func (s *Shell) cmdAbout(ctx *commands.Context, args []string) (any, error) {
	status := s.session.GetStatus()

	storage := "memory"
	if s.history.Persistent() {
		storage = "persistent"
	}
	mode := "one-shot"
	if status.REPLMode {
		mode = "interactive"
	}

	return map[string]string{
		"Version":  s.version,
		"Session":  status.SessionID,
		"Mode":     mode,
		"Uptime":   session.FormatDuration(status.Duration),
		"Commands": fmt.Sprintf("%d (%d failed)", status.Commands, status.Failures),
		"Scripts":  strconv.Itoa(status.Scripts),
		"History":  fmt.Sprintf("%d entries (%s)", s.history.Len(), storage),
		"Config":   configSource(s.cfg),
	}, nil
}

func configSource(cfg *config.Config) string {
	if cfg.Source() == "" {
		return "defaults"
	}
	return cfg.Source()
}

// =============================================================================
// GENERAL
// =============================================================================

func cmdEcho(ctx *commands.Context, args []string) (any, error) {
	return strings.Join(args, " "), nil
}

func cmdGreet(ctx *commands.Context, args []string) (any, error) {
	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" {
		answer, err := ctx.Prompt("What is your name? ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, errors.New("no name given")
			}
			return nil, err
		}
		name = strings.TrimSpace(answer)
		if name == "" {
			return nil, errors.New("no name given")
		}
	}
	return "Hello, " + name + "!", nil
}

// =============================================================================
// CONFIG
// =============================================================================

func (s *Shell) cmdConfigShow(ctx *commands.Context, args []string) (any, error) {
	return s.cfg.String(), nil
}

func (s *Shell) cmdConfigGet(ctx *commands.Context, args []string) (any, error) {
	switch len(args) {
	case 0:
		var sb strings.Builder
		for _, key := range config.GetAllKeys() {
			v, err := s.cfg.Get(key)
			if err != nil {
				return nil, err
			}
			fmt.Fprintf(&sb, "%s = %v\n", key, v)
		}
		return strings.TrimSuffix(sb.String(), "\n"), nil
	case 1:
	default:
		return nil, &commands.UsageError{Usage: "config.get [key]", Message: "expected at most one key"}
	}
	v, err := s.cfg.Get(args[0])
	if err != nil {
		return nil, err
	}
	return fmt.Sprintf("%s = %v", args[0], v), nil
}

func (s *Shell) cmdConfigSet(ctx *commands.Context, args []string) (any, error) {
	if len(args) != 2 {
		return nil, &commands.UsageError{Usage: "config.set <key> <value>", Message: "expected a key and a value"}
	}

	updated := s.cfg.Clone()
	if err := updated.Set(args[0], args[1]); err != nil {
		return nil, err
	}
	if err := updated.Validate(); err != nil {
		return nil, err
	}

	*s.cfg = *updated
	s.resolver = commands.NewResolver(s.cfg.Resolve.ThresholdRatio, s.cfg.Resolve.MinScore)
	if r, ok := s.output.(*Renderer); ok {
		r.wrap = wrapWidth(s.cfg.Output.WrapWidth, s.termWidth)
	}
	return fmt.Sprintf("%s = %s", args[0], args[1]), nil
}

func (s *Shell) cmdConfigSave(ctx *commands.Context, args []string) (any, error) {
	if err := config.Save(s.cfg); err != nil {
		return nil, err
	}
	return "Configuration saved to " + s.cfg.Source(), nil
}
