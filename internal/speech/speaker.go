// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"context"
	"strings"
	"sync"
	"time"
)

// =============================================================================
// BACKGROUND SPEAKER
// =============================================================================

const (
	// pollInterval is how often the worker checks the queue for the
	// next sentence.
	pollInterval = 100 * time.Millisecond

	// stopTimeout bounds how long Stop waits for an in-flight
	// utterance. A wedged synthesizer must not hang the session.
	stopTimeout = time.Second
)

// Speaker narrates queued sentences through a background worker so
// speech can start while the rest of the response is still streaming.
// Sentences are spoken exactly once, in enqueue order.
type Speaker struct {
	engine   Engine
	settings *Settings

	mu       sync.Mutex
	queue    []string
	inFlight bool
	running  bool

	stop chan struct{}
	done chan struct{}
}

// NewSpeaker creates a Speaker for the given engine and settings. A
// nil engine produces a Speaker whose operations are silent no-ops.
func NewSpeaker(engine Engine, settings *Settings) *Speaker {
	if settings == nil {
		settings = NewSettings(DefaultRate, DefaultVolume)
	}
	return &Speaker{
		engine:   engine,
		settings: settings,
	}
}

// Available reports whether a speech engine is present.
func (s *Speaker) Available() bool {
	return s.engine != nil
}

// Settings returns the shared speech settings.
func (s *Speaker) Settings() *Settings {
	return s.settings
}

// Start launches the background worker. The context is handed to the
// engine for every queued utterance, so cancelling it cuts the sentence
// currently being spoken. Calling Start while the worker is already
// running is a no-op.
func (s *Speaker) Start(ctx context.Context) {
	if s.engine == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.worker(ctx, s.stop, s.done)
}

// Enqueue adds one sentence to the speech queue. Blank text, a muted
// session, or a missing engine all drop the sentence silently.
func (s *Speaker) Enqueue(text string) {
	text = strings.TrimSpace(text)
	if s.engine == nil || text == "" || s.settings.Muted() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, text)
}

// Wait blocks until every queued sentence has been spoken, including
// the one in flight, or until the context is cancelled. Returns
// immediately when the worker is stopped or no engine is present.
func (s *Speaker) Wait(ctx context.Context) {
	if s.engine == nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		s.mu.Lock()
		idle := len(s.queue) == 0 && !s.inFlight
		running := s.running
		s.mu.Unlock()

		if idle || !running {
			return
		}
		time.Sleep(pollInterval / 2)
	}
}

// Stop signals the worker, discards anything still queued, and waits
// up to stopTimeout for the in-flight utterance. A worker that does
// not finish in time is abandoned rather than hanging the caller.
func (s *Speaker) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.queue = nil
	stop, done := s.stop, s.done
	s.mu.Unlock()

	close(stop)

	select {
	case <-done:
	case <-time.After(stopTimeout):
	}
}

// SpeakBlocking speaks text synchronously, bypassing the queue. Used
// for the non-streaming path and the speech self-test. Engine failures
// are swallowed; narration is best-effort.
func (s *Speaker) SpeakBlocking(ctx context.Context, text string) {
	text = strings.TrimSpace(text)
	if s.engine == nil || text == "" || s.settings.Muted() {
		return
	}
	_ = s.engine.Speak(ctx, text, s.settings.Params())
}

// worker drains the queue one sentence at a time until stopped or the
// context is cancelled.
func (s *Speaker) worker(ctx context.Context, stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			for {
				text, ok := s.dequeue()
				if !ok {
					break
				}
				// Engine failures on a single sentence must not
				// kill the rest of the queue.
				_ = s.engine.Speak(ctx, text, s.settings.Params())
				s.finish()

				select {
				case <-stop:
					return
				case <-ctx.Done():
					return
				default:
				}
			}
		}
	}
}

// dequeue pops the next sentence and marks it in flight in one
// critical section, so Wait never observes an empty queue while a
// sentence is about to be spoken.
func (s *Speaker) dequeue() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return "", false
	}
	text := s.queue[0]
	s.queue = s.queue[1:]
	s.inFlight = true
	return text, true
}

func (s *Speaker) finish() {
	s.mu.Lock()
	s.inFlight = false
	s.mu.Unlock()
}
