// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"io"
	"sort"

	"github.com/jeranaias/sollama/internal/session"
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// Outcome tells the chat loop what to do after handling input.
type Outcome int

const (
	// Continue keeps the loop running.
	Continue Outcome = iota
	// Exit ends the session.
	Exit
	// Ask means the input was not a command and should go to the
	// model as a question.
	Ask
)

// Context carries what a command handler needs to do its work.
type Context struct {
	Ctx     context.Context
	Session *session.Session
	Out     io.Writer
}

// Command represents one interactive command.
type Command struct {
	// Name is the primary command word (e.g., "memory").
	Name string

	// Aliases are alternative names (e.g., "quit", "bye").
	Aliases []string

	// Description is shown in help.
	Description string

	// Usage shows argument syntax (e.g., "volume <0.0-1.0>").
	Usage string

	// Category for grouping in help display.
	Category string

	// Handler executes the command.
	Handler func(ctx *Context, args []string) (Outcome, error)
}

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry holds all registered commands.
type Registry struct {
	commands map[string]*Command
	aliases  map[string]*Command
}

// NewRegistry creates a registry with all built-in commands.
func NewRegistry() *Registry {
	r := &Registry{
		commands: make(map[string]*Command),
		aliases:  make(map[string]*Command),
	}
	r.registerBuiltins()
	return r
}

// Register adds a command to the registry.
func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[alias] = cmd
	}
}

// Get retrieves a command by name or alias.
func (r *Registry) Get(name string) *Command {
	if cmd, ok := r.commands[name]; ok {
		return cmd
	}
	if cmd, ok := r.aliases[name]; ok {
		return cmd
	}
	return nil
}

// All returns all registered commands sorted by name.
func (r *Registry) All() []*Command {
	cmds := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
	return cmds
}

// ByCategory returns commands grouped by category, sorted within each
// group.
func (r *Registry) ByCategory() map[string][]*Command {
	result := make(map[string][]*Command)
	for _, cmd := range r.All() {
		category := cmd.Category
		if category == "" {
			category = "General"
		}
		result[category] = append(result[category], cmd)
	}
	return result
}
