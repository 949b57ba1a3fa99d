// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// Handler executes a command. The returned value is rendered by the shell's
// output layer; a nil value prints nothing.
type Handler func(ctx *Context, args []string) (any, error)

// Command represents a command that can be executed from the shell.
type Command struct {
	// Name is the canonical, unique command name (e.g., "ll.agent.engage")
	Name string

	// Aliases are alternative exact names (never fuzzy-matched)
	Aliases []string

	// Description is shown in help and completion
	Description string

	// Usage shows argument syntax (e.g., "greet [name]")
	Usage string

	// Handler is the function that executes the command
	Handler Handler

	// Hidden commands don't appear in help or fuzzy resolution
	Hidden bool

	// Category for grouping in help display
	Category string
}

// =============================================================================
// EXECUTION CONTEXT
// =============================================================================

// LineSource is the input a command reads interactive answers from.
// ReadLine writes prompt (if any) and returns the next line including its
// trailing "\n", or io.EOF once input is exhausted.
type LineSource interface {
	ReadLine(prompt string) (string, error)
}

// Context carries the per-execution state handed to a Handler.
type Context struct {
	// Ctx is the shell's context for the running command
	Ctx context.Context

	// Name is the resolved command name
	Name string

	// Stdin is the input source for prompts (terminal or virtual)
	Stdin LineSource

	// Stdout receives command output written directly
	Stdout io.Writer

	// Registry is the registry the command was dispatched from
	Registry *Registry
}

// Prompt writes msg and reads one answer line without its line ending.
func (c *Context) Prompt(msg string) (string, error) {
	if c.Stdin == nil {
		return "", io.EOF
	}
	line, err := c.Stdin.ReadLine(msg)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Reader exposes Stdin as an io.Reader for code written against plain
// readers (bufio.Scanner and friends).
func (c *Context) Reader() io.Reader {
	if r, ok := c.Stdin.(io.Reader); ok {
		return r
	}
	return &lineReader{src: c.Stdin}
}

// lineReader adapts a LineSource to io.Reader one line at a time.
type lineReader struct {
	src     LineSource
	pending []byte
}

func (r *lineReader) Read(p []byte) (int, error) {
	if len(r.pending) == 0 {
		if r.src == nil {
			return 0, io.EOF
		}
		line, err := r.src.ReadLine("")
		if err != nil {
			return 0, err
		}
		r.pending = []byte(line)
	}
	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry holds all registered commands. Names and aliases are unique
// across the registry.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]*Command
	aliases  map[string]*Command
}

// NewRegistry creates an empty command registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]*Command),
		aliases:  make(map[string]*Command),
	}
}

// Register adds a command to the registry.
func (r *Registry) Register(cmd *Command) error {
	if cmd == nil || strings.TrimSpace(cmd.Name) == "" {
		return fmt.Errorf("command name must not be empty")
	}
	if strings.ContainsAny(cmd.Name, " \t\n\"") {
		return fmt.Errorf("invalid command name %q", cmd.Name)
	}
	if cmd.Handler == nil {
		return fmt.Errorf("command %s has no handler", cmd.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.taken(cmd.Name) {
		return fmt.Errorf("command %s already registered", cmd.Name)
	}
	for _, alias := range cmd.Aliases {
		if alias == cmd.Name || r.taken(alias) {
			return fmt.Errorf("alias %s of %s already registered", alias, cmd.Name)
		}
	}

	r.commands[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[alias] = cmd
	}
	return nil
}

// MustRegister is Register for built-in commands; it panics on conflict.
func (r *Registry) MustRegister(cmd *Command) {
	if err := r.Register(cmd); err != nil {
		panic(err)
	}
}

func (r *Registry) taken(name string) bool {
	_, cmdOK := r.commands[name]
	_, aliasOK := r.aliases[name]
	return cmdOK || aliasOK
}

// Lookup retrieves a command by exact name or alias.
func (r *Registry) Lookup(name string) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if cmd, ok := r.commands[name]; ok {
		return cmd, true
	}
	if cmd, ok := r.aliases[name]; ok {
		return cmd, true
	}
	return nil, false
}

// Names returns the sorted canonical names of all visible commands.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.commands))
	for name, cmd := range r.commands {
		if cmd.Hidden {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns all registered commands sorted by name, hidden ones included.
func (r *Registry) All() []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cmds := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool {
		return cmds[i].Name < cmds[j].Name
	})
	return cmds
}

// ByCategory returns visible commands grouped by category.
func (r *Registry) ByCategory() map[string][]*Command {
	result := make(map[string][]*Command)
	for _, cmd := range r.All() {
		if cmd.Hidden {
			continue
		}
		category := cmd.Category
		if category == "" {
			category = "General"
		}
		result[category] = append(result[category], cmd)
	}
	return result
}
