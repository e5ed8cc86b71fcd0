// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"strings"

	"github.com/jeranaias/sollama/internal/archive"
	"github.com/jeranaias/sollama/internal/memory"
	"github.com/jeranaias/sollama/internal/ollama"
	"github.com/jeranaias/sollama/internal/speech"
	"github.com/jeranaias/sollama/internal/transcript"
)

// =============================================================================
// SESSION
// =============================================================================

// ErrEmptyResponse is returned when generation succeeds but the model
// produced no text. Such turns are not recorded.
var ErrEmptyResponse = errors.New("empty response from model")

// Options controls how turns are processed.
type Options struct {
	// Streaming selects streamed generation with live narration.
	Streaming bool
	// Speak enables narration at all.
	Speak bool
}

// Session ties the conversation pieces together for one program run.
// Archive may be nil (archiving disabled); the other fields are
// required.
type Session struct {
	Memory     *memory.Memory
	Client     *ollama.Client
	Speaker    *speech.Speaker
	Transcript *transcript.Logger
	Archive    *archive.Archive
	Options    Options

	lastResponse string
}

// New creates a Session from its parts.
func New(mem *memory.Memory, client *ollama.Client, speaker *speech.Speaker, log *transcript.Logger, arch *archive.Archive, opts Options) *Session {
	if log == nil {
		log = &transcript.Logger{}
	}
	return &Session{
		Memory:     mem,
		Client:     client,
		Speaker:    speaker,
		Transcript: log,
		Archive:    arch,
		Options:    opts,
	}
}

// LastResponse returns the most recent successful response text.
func (s *Session) LastResponse() string {
	return s.lastResponse
}

// Repeat re-narrates the last response. Returns false when there is
// nothing to repeat.
func (s *Session) Repeat(ctx context.Context) bool {
	if s.lastResponse == "" {
		return false
	}
	s.Speaker.SpeakBlocking(ctx, s.lastResponse)
	return true
}

// Close releases session resources. Safe to call more than once.
func (s *Session) Close() {
	s.Speaker.Stop()
	if s.Archive != nil {
		s.Archive.Close()
	}
}

// =============================================================================
// TURN PROCESSING
// =============================================================================

// ProcessTurn runs one question/answer turn. onChunk is called with
// each piece of response text as it arrives so the caller can display
// it; it may be nil. The returned string is the complete response.
//
// The conversation log is only updated when generation succeeds with a
// non-empty response; a failed request or an empty response leaves
// memory, transcript and archive untouched.
func (s *Session) ProcessTurn(ctx context.Context, input string, onChunk func(string)) (string, error) {
	if onChunk == nil {
		onChunk = func(string) {}
	}

	messages := append(s.Memory.Context(), ollama.NewUserMessage(input))

	var response string
	var err error
	if s.Options.Streaming {
		response, err = s.streamTurn(ctx, messages, onChunk)
	} else {
		response, err = s.Client.Generate(ctx, messages)
		if err == nil {
			onChunk(response)
		}
	}
	if err != nil {
		return "", err
	}

	// Logged pairs always carry a real assistant response; a blank one
	// is reported, not recorded.
	response = strings.TrimSpace(response)
	if response == "" {
		return "", ErrEmptyResponse
	}

	// The live path already narrated sentence by sentence.
	if !s.liveNarration() {
		s.Speaker.SpeakBlocking(ctx, response)
	}

	s.lastResponse = response
	s.Memory.AddExchange(input, response)
	s.Transcript.LogExchange(input, response)
	// Archiving is best-effort; the exchange itself succeeded.
	_ = s.Archive.Record(input, response)

	return response, nil
}

// liveNarration reports whether sentences are spoken while streaming.
func (s *Session) liveNarration() bool {
	return s.Options.Streaming && s.Options.Speak && s.Speaker.Available()
}

// streamTurn runs the streaming request, displaying chunks as they
// arrive and enqueueing complete sentences for narration.
func (s *Session) streamTurn(ctx context.Context, messages []ollama.Message, onChunk func(string)) (string, error) {
	live := s.liveNarration()
	if live {
		s.Speaker.Start(ctx)
		defer s.Speaker.Stop()
	}

	acc := &ollama.StreamAccumulator{}
	err := s.Client.GenerateStream(ctx, messages, func(chunk string) {
		onChunk(chunk)
		acc.Add(chunk)
		if live {
			for _, sentence := range acc.DrainSentences() {
				s.Speaker.Enqueue(sentence)
			}
		}
	})
	if err != nil {
		return "", err
	}

	if live {
		// The trailing fragment has no terminator but still gets
		// spoken.
		if remainder := acc.TakeRemainder(); remainder != "" {
			s.Speaker.Enqueue(remainder)
		}
		// A cancelled context ends the drain early; the deferred Stop
		// discards whatever is still queued.
		s.Speaker.Wait(ctx)
	}

	return acc.Full(), nil
}
