// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package memory

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jeranaias/sollama/internal/ollama"
)

func TestAddExchange_BoundedAndPairAligned(t *testing.T) {
	m := New("prompt", 6) // cap of 3 exchanges

	for i := 0; i < 10; i++ {
		m.AddExchange(fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))

		if m.Len() > 6 {
			t.Fatalf("after append %d: len = %d, exceeds cap 6", i, m.Len())
		}
		if m.Len()%2 != 0 {
			t.Fatalf("after append %d: len = %d, not even", i, m.Len())
		}
	}

	// Oldest pairs evicted FIFO: exchanges 7, 8, 9 remain.
	history := m.History()
	if history[0].Content != "q7" || history[1].Content != "a7" {
		t.Errorf("oldest surviving pair = %q/%q, want q7/a7", history[0].Content, history[1].Content)
	}
	if history[4].Content != "q9" || history[5].Content != "a9" {
		t.Errorf("newest pair = %q/%q, want q9/a9", history[4].Content, history[5].Content)
	}
}

func TestAddExchange_OddCapRoundedDown(t *testing.T) {
	m := New("prompt", 5)
	if m.MaxHistory() != 4 {
		t.Errorf("MaxHistory = %d, want 4 (rounded down to pair boundary)", m.MaxHistory())
	}
}

func TestContext(t *testing.T) {
	m := New("be brief", 10)
	m.AddExchange("hi", "hello")

	ctx := m.Context()
	if len(ctx) != 3 {
		t.Fatalf("context length = %d, want 3", len(ctx))
	}
	if ctx[0].Role != ollama.RoleSystem || ctx[0].Content != "be brief" {
		t.Errorf("ctx[0] = %+v, want system prompt first", ctx[0])
	}
	if ctx[1].Role != ollama.RoleUser || ctx[2].Role != ollama.RoleAssistant {
		t.Errorf("ctx roles = %q, %q", ctx[1].Role, ctx[2].Role)
	}

	// Context must be pure: appending to the returned slice cannot
	// affect the stored history.
	_ = append(ctx, ollama.NewUserMessage("scratch"))
	if m.Len() != 2 {
		t.Errorf("len after context append = %d, want 2", m.Len())
	}
}

func TestClear(t *testing.T) {
	m := New("keep me", 10)
	m.AddExchange("q", "a")
	before := m.StartTime()

	time.Sleep(5 * time.Millisecond)
	m.Clear()

	if m.Len() != 0 {
		t.Errorf("len after clear = %d, want 0", m.Len())
	}
	if m.SystemPrompt() != "keep me" {
		t.Errorf("system prompt after clear = %q, want untouched", m.SystemPrompt())
	}
	if !m.StartTime().After(before) {
		t.Error("start time not reset on clear")
	}
}

func TestSetSystemPrompt(t *testing.T) {
	m := New("", 10)
	if m.SystemPrompt() != DefaultSystemPrompt {
		t.Errorf("default prompt not applied")
	}

	m.SetSystemPrompt("you are a pirate")
	ctx := m.Context()
	if ctx[0].Content != "you are a pirate" {
		t.Errorf("ctx[0].Content = %q, want new prompt", ctx[0].Content)
	}
}

// =============================================================================
// SNAPSHOT TESTS
// =============================================================================

func TestSnapshot_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.json")

	m := New("round trip prompt", 10)
	m.AddExchange("first question", "first answer")
	m.AddExchange("second question", "second answer")

	if err := m.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded := New("", 10)
	if err := loaded.Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.SystemPrompt() != "round trip prompt" {
		t.Errorf("system prompt = %q, want %q", loaded.SystemPrompt(), "round trip prompt")
	}
	if loaded.Len() != 4 {
		t.Fatalf("history length = %d, want 4", loaded.Len())
	}
	for i, want := range []string{"first question", "first answer", "second question", "second answer"} {
		if loaded.History()[i].Content != want {
			t.Errorf("history[%d].Content = %q, want %q", i, loaded.History()[i].Content, want)
		}
	}
	// Start time round-trips at second precision (RFC 3339).
	if loaded.StartTime().Unix() != m.StartTime().Unix() {
		t.Errorf("start time = %v, want %v", loaded.StartTime(), m.StartTime())
	}
}

func TestLoad_MissingFileLeavesStateUntouched(t *testing.T) {
	m := New("original", 10)
	m.AddExchange("q", "a")

	err := m.Load(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !IsNotFound(err) {
		t.Errorf("IsNotFound(%v) = false, want true", err)
	}

	if m.Len() != 2 || m.SystemPrompt() != "original" {
		t.Error("load failure mutated existing state")
	}
}

func TestLoad_MalformedFileLeavesStateUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	os.WriteFile(path, []byte("{not json"), 0600)

	m := New("original", 10)
	m.AddExchange("q", "a")

	if err := m.Load(path); err == nil {
		t.Fatal("expected error for malformed file")
	}
	if m.Len() != 2 || m.SystemPrompt() != "original" {
		t.Error("load failure mutated existing state")
	}
}

func TestLoad_BadStartTimeFallsBackToNow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.json")
	doc := `{"system_prompt":"p","conversation_history":[],"conversation_start_time":"garbage","saved_at":"also garbage"}`
	os.WriteFile(path, []byte(doc), 0600)

	before := time.Now().Add(-time.Second)
	m := New("", 10)
	if err := m.Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.StartTime().Before(before) {
		t.Errorf("start time = %v, want fallback to now", m.StartTime())
	}
}

func TestSummary(t *testing.T) {
	m := New("", 10)
	if got := m.Summary(); got != "Memory: 0 exchanges" {
		t.Errorf("Summary = %q", got)
	}

	m.AddExchange("q", "a")
	if got := m.Summary(); len(got) == 0 || got[:19] != "Memory: 1 exchanges" {
		t.Errorf("Summary = %q, want exchange count and session time", got)
	}
}
