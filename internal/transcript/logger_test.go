// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"os"
	"strings"
	"testing"
)

func TestNew_Disabled(t *testing.T) {
	l := New(t.TempDir(), false)
	if l.Enabled() {
		t.Error("Enabled() = true, want false")
	}

	// Must be a no-op, not a crash.
	l.LogExchange("q", "a")
}

func TestLogExchange_NumbersAndFormat(t *testing.T) {
	dir := t.TempDir()
	l := New(dir, true)
	if !l.Enabled() {
		t.Fatal("logger not enabled")
	}

	l.LogExchange("What is Go?", "A programming language.")
	l.LogExchange("Who made it?", "Google.")

	data, err := os.ReadFile(l.Path())
	if err != nil {
		t.Fatalf("reading transcript: %v", err)
	}
	text := string(data)

	if !strings.HasPrefix(text, "Ollama Conversation - ") {
		t.Errorf("missing header, got %q", text[:40])
	}
	if !strings.Contains(text, strings.Repeat("=", 50)+"\n\n") {
		t.Error("missing separator rule after header")
	}
	if !strings.Contains(text, "Q1: What is Go?\nA1: A programming language.\n\n") {
		t.Errorf("first exchange malformed:\n%s", text)
	}
	if !strings.Contains(text, "Q2: Who made it?\nA2: Google.\n\n") {
		t.Errorf("second exchange malformed:\n%s", text)
	}
}

func TestNew_FilenamePattern(t *testing.T) {
	l := New(t.TempDir(), true)
	base := l.Path()[strings.LastIndex(l.Path(), "/")+1:]
	if !strings.HasPrefix(base, "ollama_conversation_") || !strings.HasSuffix(base, ".txt") {
		t.Errorf("filename = %q, want ollama_conversation_<timestamp>.txt", base)
	}
}
