// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import "strings"

// =============================================================================
// PARSE RESULT
// =============================================================================

// ParseResult contains the result of parsing user input.
type ParseResult struct {
	// IsCommand is true when the first word matched a command.
	IsCommand bool

	// Command is the matched command, nil otherwise.
	Command *Command

	// Args are the whitespace-split arguments.
	Args []string

	// RawArgs is the argument portion with its original spacing and
	// case, for commands like "system" that take free text.
	RawArgs string

	// RawInput is the trimmed original input.
	RawInput string
}

// =============================================================================
// PARSER
// =============================================================================

// Parser matches user input against a command registry.
type Parser struct {
	registry *Registry
}

// NewParser creates a parser for the given registry.
func NewParser(registry *Registry) *Parser {
	return &Parser{registry: registry}
}

// Parse matches the first word of input (case-insensitive) against the
// registry. Input that matches nothing is a question for the model.
func (p *Parser) Parse(input string) ParseResult {
	input = strings.TrimSpace(input)
	result := ParseResult{RawInput: input}
	if input == "" {
		return result
	}

	fields := strings.Fields(input)
	cmd := p.registry.Get(strings.ToLower(fields[0]))
	if cmd == nil {
		return result
	}

	result.IsCommand = true
	result.Command = cmd
	result.Args = fields[1:]
	result.RawArgs = strings.TrimSpace(strings.TrimPrefix(input, fields[0]))
	return result
}

// Dispatch parses input and runs the matched command. Returns Ask when
// the input is a question rather than a command.
func (p *Parser) Dispatch(ctx *Context, input string) (Outcome, error) {
	result := p.Parse(input)
	if !result.IsCommand {
		return Ask, nil
	}

	// Free-text commands get the raw argument string as a single
	// argument so spacing survives.
	args := result.Args
	if result.Command.Name == "system" {
		if result.RawArgs != "" {
			args = []string{result.RawArgs}
		} else {
			args = nil
		}
	}

	return result.Command.Handler(ctx, args)
}
