// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// =============================================================================
// TRANSCRIPT LOGGER
// =============================================================================

// Logger appends numbered question/answer exchanges to a timestamped
// text file. The zero value is a disabled logger that drops everything.
type Logger struct {
	path  string
	count int
}

// New creates a Logger writing to ollama_conversation_<timestamp>.txt
// under dir (the current directory when dir is empty) and writes the
// file header. When enabled is false, or the header cannot be written,
// the returned Logger is disabled.
func New(dir string, enabled bool) *Logger {
	if !enabled {
		return &Logger{}
	}

	name := fmt.Sprintf("ollama_conversation_%s.txt", time.Now().Format("20060102_150405"))
	path := filepath.Join(dir, name)

	header := fmt.Sprintf("Ollama Conversation - %s\n%s\n\n",
		time.Now().Format("2006-01-02 15:04:05"),
		strings.Repeat("=", 50))

	if err := os.WriteFile(path, []byte(header), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating conversation log: %v\n", err)
		return &Logger{}
	}

	return &Logger{path: path}
}

// Enabled reports whether exchanges are being written.
func (l *Logger) Enabled() bool {
	return l.path != ""
}

// Path returns the transcript file path, empty when disabled.
func (l *Logger) Path() string {
	return l.path
}

// LogExchange appends one question/answer pair. Failures go to stderr
// and the session continues.
func (l *Logger) LogExchange(question, answer string) {
	if l.path == "" {
		return
	}

	l.count++
	entry := fmt.Sprintf("Q%d: %s\nA%d: %s\n\n", l.count, question, l.count, answer)

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error saving conversation: %v\n", err)
		return
	}
	defer f.Close()

	if _, err := f.WriteString(entry); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving conversation: %v\n", err)
	}
}
