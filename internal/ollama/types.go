// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import "strings"

// =============================================================================
// MESSAGES
// =============================================================================

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single role-tagged message in a conversation.
// Messages are immutable once created.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// =============================================================================
// REQUEST TYPES
// =============================================================================

// GenerateRequest is the request body for the /api/generate endpoint.
type GenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// GenerateResponse is a single /api/generate record. In streaming mode
// each NDJSON line decodes into one of these; in blocking mode the whole
// body is one.
type GenerateResponse struct {
	Model    string `json:"model,omitempty"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// ModelInfo describes one entry of the server's model catalog.
type ModelInfo struct {
	Name       string `json:"name"`
	Model      string `json:"model,omitempty"`
	Size       int64  `json:"size,omitempty"`
	ModifiedAt string `json:"modified_at,omitempty"`
}

// ListModelsResponse is the response from the /api/tags endpoint.
type ListModelsResponse struct {
	Models []ModelInfo `json:"models"`
}

// ServerError is the error body Ollama returns on non-200 responses.
type ServerError struct {
	Error string `json:"error"`
}

// =============================================================================
// PROMPT FORMATTING
// =============================================================================

// FormatPrompt flattens conversation messages into Ollama's plain prompt
// format: one "System:"/"Human:"/"Assistant:" block per message, joined
// by blank lines, with a trailing "Assistant:" cue for the model.
func FormatPrompt(messages []Message) string {
	parts := make([]string, 0, len(messages)+1)

	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			parts = append(parts, "System: "+msg.Content)
		case RoleUser:
			parts = append(parts, "Human: "+msg.Content)
		case RoleAssistant:
			parts = append(parts, "Assistant: "+msg.Content)
		}
	}

	parts = append(parts, "Assistant:")
	return strings.Join(parts, "\n\n")
}
