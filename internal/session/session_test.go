// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/sollama/internal/memory"
	"github.com/jeranaias/sollama/internal/ollama"
	"github.com/jeranaias/sollama/internal/speech"
	"github.com/jeranaias/sollama/internal/transcript"
)

// newTestSession wires a Session against a stub Ollama server. The
// speaker has no engine, so narration paths are exercised as no-ops.
func newTestSession(t *testing.T, handler http.HandlerFunc, opts Options) *Session {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := ollama.NewClientWithConfig(&ollama.ClientConfig{BaseURL: srv.URL})
	speaker := speech.NewSpeaker(nil, speech.NewSettings(speech.DefaultRate, speech.DefaultVolume))
	mem := memory.New("test prompt", 10)

	return New(mem, client, speaker, &transcript.Logger{}, nil, opts)
}

func streamHandler(chunks []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, c := range chunks {
			w.Write([]byte(`{"model":"llama3.2","response":"` + c + `","done":false}` + "\n"))
		}
		w.Write([]byte(`{"model":"llama3.2","response":"","done":true}` + "\n"))
	}
}

func TestProcessTurn_Streaming(t *testing.T) {
	s := newTestSession(t, streamHandler([]string{"Hello ", "world."}), Options{Streaming: true, Speak: true})

	var displayed strings.Builder
	response, err := s.ProcessTurn(context.Background(), "greet me", func(chunk string) {
		displayed.WriteString(chunk)
	})
	if err != nil {
		t.Fatalf("ProcessTurn failed: %v", err)
	}

	if response != "Hello world." {
		t.Errorf("response = %q, want %q", response, "Hello world.")
	}
	if displayed.String() != "Hello world." {
		t.Errorf("displayed = %q, want chunks relayed verbatim", displayed.String())
	}
	if s.LastResponse() != "Hello world." {
		t.Errorf("LastResponse = %q", s.LastResponse())
	}

	// The exchange is committed to memory.
	if s.Memory.Exchanges() != 1 {
		t.Fatalf("Exchanges = %d, want 1", s.Memory.Exchanges())
	}
	history := s.Memory.History()
	if history[0].Content != "greet me" || history[1].Content != "Hello world." {
		t.Errorf("history = %v", history)
	}
}

func TestProcessTurn_NonStreaming(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"model":"llama3.2","response":"Complete answer.","done":true}`))
	}
	s := newTestSession(t, handler, Options{Streaming: false, Speak: true})

	var displayed string
	response, err := s.ProcessTurn(context.Background(), "question", func(chunk string) {
		displayed = chunk
	})
	if err != nil {
		t.Fatalf("ProcessTurn failed: %v", err)
	}
	if response != "Complete answer." {
		t.Errorf("response = %q", response)
	}
	// Non-streaming delivers the whole response as one chunk.
	if displayed != "Complete answer." {
		t.Errorf("displayed = %q, want full response in one call", displayed)
	}
}

func TestProcessTurn_FailureLeavesMemoryUntouched(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}
	s := newTestSession(t, handler, Options{Streaming: true, Speak: true})
	s.Memory.AddExchange("earlier q", "earlier a")

	_, err := s.ProcessTurn(context.Background(), "doomed question", nil)
	if err == nil {
		t.Fatal("ProcessTurn succeeded, want error")
	}

	if s.Memory.Exchanges() != 1 {
		t.Errorf("Exchanges = %d, want 1 (failed turn must not be recorded)", s.Memory.Exchanges())
	}
	if s.LastResponse() != "" {
		t.Errorf("LastResponse = %q, want empty after failure", s.LastResponse())
	}
}

func TestProcessTurn_EmptyResponseNotRecorded(t *testing.T) {
	// The stream carries no text at all, only the done record.
	s := newTestSession(t, streamHandler(nil), Options{Streaming: true, Speak: true})

	_, err := s.ProcessTurn(context.Background(), "question", nil)
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("err = %v, want ErrEmptyResponse", err)
	}
	if s.Memory.Exchanges() != 0 {
		t.Errorf("Exchanges = %d, want 0 (empty response must not be recorded)", s.Memory.Exchanges())
	}
	if s.LastResponse() != "" {
		t.Errorf("LastResponse = %q, want empty", s.LastResponse())
	}
}

func TestProcessTurn_WhitespaceResponseNotRecorded(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"model":"llama3.2","response":"  \n ","done":true}`))
	}
	s := newTestSession(t, handler, Options{Streaming: false, Speak: true})

	_, err := s.ProcessTurn(context.Background(), "question", nil)
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("err = %v, want ErrEmptyResponse", err)
	}
	if s.Memory.Exchanges() != 0 {
		t.Errorf("Exchanges = %d, want 0", s.Memory.Exchanges())
	}
}

// slowEngine takes a fixed time per utterance unless cut short.
type slowEngine struct{ delay time.Duration }

func (e *slowEngine) Name() string { return "slow" }

func (e *slowEngine) Speak(ctx context.Context, text string, p speech.Params) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(e.delay):
		return nil
	}
}

func TestProcessTurn_CancelDuringDrainEndsTurn(t *testing.T) {
	chunks := make([]string, 10)
	for i := range chunks {
		chunks[i] = "A complete sentence here. "
	}
	srv := httptest.NewServer(streamHandler(chunks))
	t.Cleanup(srv.Close)

	client := ollama.NewClientWithConfig(&ollama.ClientConfig{BaseURL: srv.URL})
	speaker := speech.NewSpeaker(&slowEngine{delay: 300 * time.Millisecond},
		speech.NewSettings(speech.DefaultRate, speech.DefaultVolume))
	mem := memory.New("test prompt", 10)
	s := New(mem, client, speaker, &transcript.Logger{}, nil, Options{Streaming: true, Speak: true})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		time.Sleep(300 * time.Millisecond)
		cancel()
	}()

	// Draining all ten sentences would take about three seconds; a
	// cancelled turn must end well before that.
	start := time.Now()
	if _, err := s.ProcessTurn(ctx, "long answer", nil); err != nil {
		t.Fatalf("ProcessTurn failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("turn ended after %v, want prompt end on cancellation", elapsed)
	}
}

func TestProcessTurn_SendsContextWithSystemPrompt(t *testing.T) {
	var gotPrompt string
	handler := func(w http.ResponseWriter, r *http.Request) {
		var req ollama.GenerateRequest
		decodeJSONBody(t, r, &req)
		gotPrompt = req.Prompt
		w.Write([]byte(`{"model":"llama3.2","response":"ok","done":true}` + "\n"))
	}
	s := newTestSession(t, handler, Options{Streaming: true})

	if _, err := s.ProcessTurn(context.Background(), "second question", nil); err != nil {
		t.Fatalf("ProcessTurn failed: %v", err)
	}

	if !strings.HasPrefix(gotPrompt, "System: test prompt") {
		t.Errorf("prompt missing system prefix: %q", gotPrompt)
	}
	if !strings.Contains(gotPrompt, "Human: second question") {
		t.Errorf("prompt missing user message: %q", gotPrompt)
	}
	if !strings.HasSuffix(gotPrompt, "Assistant:") {
		t.Errorf("prompt missing trailing cue: %q", gotPrompt)
	}
}

func TestRepeat(t *testing.T) {
	s := newTestSession(t, streamHandler([]string{"Answer."}), Options{Streaming: true})

	if s.Repeat(context.Background()) {
		t.Error("Repeat = true before any turn")
	}

	if _, err := s.ProcessTurn(context.Background(), "q", nil); err != nil {
		t.Fatalf("ProcessTurn failed: %v", err)
	}
	if !s.Repeat(context.Background()) {
		t.Error("Repeat = false after a successful turn")
	}
}

func decodeJSONBody(t *testing.T, r *http.Request, v any) {
	t.Helper()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		t.Fatalf("decoding request body: %v", err)
	}
}
