// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package memory

import (
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/jeranaias/sollama/internal/ollama"
	"github.com/jeranaias/sollama/internal/util"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// SnapshotError reports a failed save or load of the memory snapshot.
// Load failures leave the in-memory state untouched, so callers can
// report the error and carry on.
type SnapshotError struct {
	Op    string // "save" or "load"
	Path  string
	Cause error
}

func (e *SnapshotError) Error() string {
	return "memory " + e.Op + " " + e.Path + ": " + e.Cause.Error()
}

func (e *SnapshotError) Unwrap() error {
	return e.Cause
}

// IsNotFound reports whether err is a load failure caused by a missing
// snapshot file.
func IsNotFound(err error) bool {
	var snapErr *SnapshotError
	return errors.As(err, &snapErr) && errors.Is(snapErr.Cause, os.ErrNotExist)
}

// =============================================================================
// SNAPSHOT FORMAT
// =============================================================================

// snapshot is the on-disk document. Field names are part of the wire
// format shared with other sollama implementations.
type snapshot struct {
	SystemPrompt          string           `json:"system_prompt"`
	ConversationHistory   []ollama.Message `json:"conversation_history"`
	ConversationStartTime string           `json:"conversation_start_time"`
	SavedAt               string           `json:"saved_at"`
}

// Save writes the current state to path as a JSON snapshot. The write
// is atomic: a crash never leaves a truncated snapshot behind.
func (m *Memory) Save(path string) error {
	doc := snapshot{
		SystemPrompt:          m.systemPrompt,
		ConversationHistory:   m.history,
		ConversationStartTime: m.startTime.Format(time.RFC3339),
		SavedAt:               time.Now().Format(time.RFC3339),
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return &SnapshotError{Op: "save", Path: path, Cause: err}
	}

	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return &SnapshotError{Op: "save", Path: path, Cause: err}
	}

	return nil
}

// Load replaces the current state with the snapshot at path. The file
// is decoded into scratch state first and only applied on success, so a
// missing or malformed snapshot leaves the existing state untouched. A
// missing or malformed start time falls back to now.
func (m *Memory) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &SnapshotError{Op: "load", Path: path, Cause: err}
	}

	var doc snapshot
	if err := json.Unmarshal(data, &doc); err != nil {
		return &SnapshotError{Op: "load", Path: path, Cause: err}
	}

	startTime, err := time.Parse(time.RFC3339, doc.ConversationStartTime)
	if err != nil {
		startTime = time.Now()
	}

	if doc.SystemPrompt != "" {
		m.systemPrompt = doc.SystemPrompt
	} else {
		m.systemPrompt = DefaultSystemPrompt
	}
	m.history = doc.ConversationHistory
	if m.history == nil {
		m.history = make([]ollama.Message, 0)
	}
	m.startTime = startTime

	return nil
}
