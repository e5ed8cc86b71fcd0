// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package memory

import (
	"fmt"
	"time"

	"github.com/jeranaias/sollama/internal/ollama"
)

// DefaultMaxMessages is the default history cap in message units
// (user + assistant both count), i.e. 25 exchanges.
const DefaultMaxMessages = 50

// DefaultSystemPrompt is used when no custom prompt is configured.
const DefaultSystemPrompt = "You are a helpful AI assistant with text-to-speech capabilities. " +
	"You provide clear, concise, and engaging responses. When speaking, you use natural " +
	"conversational language that sounds good when read aloud. You remember previous parts " +
	"of our conversation and can reference them when relevant."

// =============================================================================
// CONVERSATION MEMORY
// =============================================================================

// Memory is the bounded conversation log plus the system prompt.
// It is mutated only from the main turn flow and needs no locking.
type Memory struct {
	systemPrompt string
	history      []ollama.Message
	maxHistory   int
	startTime    time.Time
}

// New creates an empty Memory with the given system prompt and history
// cap. Zero or negative maxHistory falls back to DefaultMaxMessages; an
// odd cap is rounded down so eviction stays pair-aligned.
func New(systemPrompt string, maxHistory int) *Memory {
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	if maxHistory <= 0 {
		maxHistory = DefaultMaxMessages
	}
	if maxHistory%2 != 0 {
		maxHistory--
	}
	return &Memory{
		systemPrompt: systemPrompt,
		history:      make([]ollama.Message, 0),
		maxHistory:   maxHistory,
		startTime:    time.Now(),
	}
}

// AddExchange appends one completed user/assistant pair. When the pair
// would push the log past the cap, the oldest pair is evicted first, so
// length never exceeds the cap and is always even.
func (m *Memory) AddExchange(userText, assistantText string) {
	m.history = append(m.history,
		ollama.NewUserMessage(userText),
		ollama.NewAssistantMessage(assistantText),
	)
	if len(m.history) > m.maxHistory {
		m.history = m.history[2:]
	}
}

// Context returns the system message followed by the history, in order.
// The returned slice is a copy; callers may append to it freely.
func (m *Memory) Context() []ollama.Message {
	context := make([]ollama.Message, 0, len(m.history)+1)
	context = append(context, ollama.NewSystemMessage(m.systemPrompt))
	context = append(context, m.history...)
	return context
}

// Clear empties the history and resets the session start time. The
// system prompt is untouched.
func (m *Memory) Clear() {
	m.history = make([]ollama.Message, 0)
	m.startTime = time.Now()
}

// SetSystemPrompt replaces the system prompt. Takes effect on the next
// Context call.
func (m *Memory) SetSystemPrompt(prompt string) {
	m.systemPrompt = prompt
}

// SystemPrompt returns the current system prompt.
func (m *Memory) SystemPrompt() string {
	return m.systemPrompt
}

// History returns the stored messages. The slice must not be mutated.
func (m *Memory) History() []ollama.Message {
	return m.history
}

// Len returns the number of stored message units.
func (m *Memory) Len() int {
	return len(m.history)
}

// Exchanges returns the number of stored user/assistant pairs.
func (m *Memory) Exchanges() int {
	return len(m.history) / 2
}

// MaxHistory returns the configured cap in message units.
func (m *Memory) MaxHistory() int {
	return m.maxHistory
}

// StartTime returns when this conversation started.
func (m *Memory) StartTime() time.Time {
	return m.startTime
}

// Summary returns a one-line description of the memory state.
func (m *Memory) Summary() string {
	exchanges := m.Exchanges()
	summary := fmt.Sprintf("Memory: %d exchanges", exchanges)
	if exchanges > 0 {
		minutes := time.Since(m.startTime).Minutes()
		summary += fmt.Sprintf(", %.1fmin session", minutes)
	}
	return summary
}
