// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeEngine records every utterance it is asked to speak.
type fakeEngine struct {
	mu     sync.Mutex
	spoken []string
	params []Params
	err    error
	delay  time.Duration
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Speak(ctx context.Context, text string, p Params) error {
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			// A cut utterance is not recorded as spoken.
			return ctx.Err()
		case <-time.After(f.delay):
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spoken = append(f.spoken, text)
	f.params = append(f.params, p)
	return f.err
}

func (f *fakeEngine) Spoken() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.spoken...)
}

// =============================================================================
// SPEAKER TESTS
// =============================================================================

func TestSpeaker_SpeaksInOrderExactlyOnce(t *testing.T) {
	engine := &fakeEngine{}
	speaker := NewSpeaker(engine, NewSettings(DefaultRate, DefaultVolume))

	speaker.Start(context.Background())
	speaker.Enqueue("First sentence.")
	speaker.Enqueue("Second sentence.")
	speaker.Enqueue("Third sentence.")
	speaker.Wait(context.Background())
	speaker.Stop()

	want := []string{"First sentence.", "Second sentence.", "Third sentence."}
	got := engine.Spoken()
	if len(got) != len(want) {
		t.Fatalf("spoke %d sentences, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("spoken[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSpeaker_EnqueueDropsBlankAndMuted(t *testing.T) {
	engine := &fakeEngine{}
	settings := NewSettings(DefaultRate, DefaultVolume)
	speaker := NewSpeaker(engine, settings)

	speaker.Start(context.Background())
	speaker.Enqueue("   ")
	speaker.Enqueue("")
	settings.ToggleMute()
	speaker.Enqueue("muted away")
	settings.ToggleMute()
	speaker.Enqueue("kept")
	speaker.Wait(context.Background())
	speaker.Stop()

	got := engine.Spoken()
	if len(got) != 1 || got[0] != "kept" {
		t.Errorf("spoken = %v, want [kept]", got)
	}
}

func TestSpeaker_NilEngineIsNoOp(t *testing.T) {
	speaker := NewSpeaker(nil, nil)
	if speaker.Available() {
		t.Error("Available() = true with nil engine")
	}

	// None of these may block or panic.
	speaker.Start(context.Background())
	speaker.Enqueue("hello")
	speaker.Wait(context.Background())
	speaker.Stop()
	speaker.SpeakBlocking(context.Background(), "hello")
}

func TestSpeaker_EngineFailureDoesNotStopQueue(t *testing.T) {
	engine := &fakeEngine{err: errors.New("synth exploded")}
	speaker := NewSpeaker(engine, NewSettings(DefaultRate, DefaultVolume))

	speaker.Start(context.Background())
	speaker.Enqueue("one")
	speaker.Enqueue("two")
	speaker.Wait(context.Background())
	speaker.Stop()

	if got := engine.Spoken(); len(got) != 2 {
		t.Errorf("spoke %d sentences, want 2 despite engine errors", len(got))
	}
}

func TestSpeaker_StopDiscardsQueue(t *testing.T) {
	engine := &fakeEngine{delay: 50 * time.Millisecond}
	speaker := NewSpeaker(engine, NewSettings(DefaultRate, DefaultVolume))

	speaker.Start(context.Background())
	for i := 0; i < 20; i++ {
		speaker.Enqueue("backlog sentence")
	}
	speaker.Stop()

	if got := len(engine.Spoken()); got >= 20 {
		t.Errorf("spoke %d sentences after Stop, want the backlog discarded", got)
	}
}

func TestSpeaker_CancelledContextEndsDrain(t *testing.T) {
	engine := &fakeEngine{delay: 100 * time.Millisecond}
	speaker := NewSpeaker(engine, NewSettings(DefaultRate, DefaultVolume))

	ctx, cancel := context.WithCancel(context.Background())
	speaker.Start(ctx)
	for i := 0; i < 10; i++ {
		speaker.Enqueue("backlog sentence")
	}

	go func() {
		time.Sleep(250 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	speaker.Wait(ctx)
	speaker.Stop()
	elapsed := time.Since(start)

	// An uncancelled drain of this backlog takes over a second.
	if elapsed > time.Second {
		t.Errorf("Wait returned after %v, want prompt return on cancellation", elapsed)
	}
	if got := len(engine.Spoken()); got >= 10 {
		t.Errorf("spoke %d sentences, want the backlog abandoned on cancellation", got)
	}
}

func TestSpeaker_SpeakBlocking(t *testing.T) {
	engine := &fakeEngine{}
	settings := NewSettings(200, 0.5)
	speaker := NewSpeaker(engine, settings)

	speaker.SpeakBlocking(context.Background(), "direct speech")

	got := engine.Spoken()
	if len(got) != 1 || got[0] != "direct speech" {
		t.Fatalf("spoken = %v, want [direct speech]", got)
	}
	if engine.params[0].Rate != 200 || engine.params[0].Volume != 0.5 {
		t.Errorf("params = %+v, want rate 200 volume 0.5", engine.params[0])
	}
}

// =============================================================================
// SETTINGS TESTS
// =============================================================================

func TestSettings_RateAdjustClamped(t *testing.T) {
	s := NewSettings(DefaultRate, DefaultVolume)

	if got := s.Faster(); got != 200 {
		t.Errorf("Faster() = %d, want 200", got)
	}
	for i := 0; i < 10; i++ {
		s.Faster()
	}
	if got := s.Rate(); got != MaxRate {
		t.Errorf("rate after repeated Faster = %d, want %d", got, MaxRate)
	}

	for i := 0; i < 20; i++ {
		s.Slower()
	}
	if got := s.Rate(); got != MinRate {
		t.Errorf("rate after repeated Slower = %d, want %d", got, MinRate)
	}
}

func TestSettings_VolumeAdjustClamped(t *testing.T) {
	s := NewSettings(DefaultRate, 0.5)

	for i := 0; i < 10; i++ {
		s.Louder()
	}
	if got := s.Volume(); got != MaxVolume {
		t.Errorf("volume after repeated Louder = %v, want %v", got, MaxVolume)
	}

	for i := 0; i < 20; i++ {
		s.Quieter()
	}
	if got := s.Volume(); got != MinVolume {
		t.Errorf("volume after repeated Quieter = %v, want %v", got, MinVolume)
	}
}

func TestSettings_SetVolume(t *testing.T) {
	s := NewSettings(DefaultRate, DefaultVolume)

	if s.SetVolume(1.5) {
		t.Error("SetVolume(1.5) accepted, want rejected")
	}
	if s.SetVolume(-0.1) {
		t.Error("SetVolume(-0.1) accepted, want rejected")
	}
	if !s.SetVolume(0.3) {
		t.Error("SetVolume(0.3) rejected, want accepted")
	}
	if got := s.Volume(); got != 0.3 {
		t.Errorf("Volume = %v, want 0.3", got)
	}
}

func TestSettings_SetVolumeUnmutes(t *testing.T) {
	s := NewSettings(DefaultRate, 0.8)
	s.ToggleMute()

	if !s.SetVolume(0.6) {
		t.Fatal("SetVolume(0.6) rejected")
	}
	if s.Muted() {
		t.Error("still muted after SetVolume")
	}
	if got := s.Volume(); got != 0.6 {
		t.Errorf("Volume = %v, want 0.6", got)
	}
}

func TestSettings_MuteRestoresExactVolume(t *testing.T) {
	s := NewSettings(DefaultRate, 0.7)

	if muted := s.ToggleMute(); !muted {
		t.Fatal("first ToggleMute did not mute")
	}
	if got := s.Volume(); got != 0.0 {
		t.Errorf("volume while muted = %v, want 0", got)
	}

	if muted := s.ToggleMute(); muted {
		t.Fatal("second ToggleMute did not unmute")
	}
	if got := s.Volume(); got != 0.7 {
		t.Errorf("volume after unmute = %v, want 0.7 restored", got)
	}
}

func TestSettings_ConstructorClamps(t *testing.T) {
	s := NewSettings(1000, 5.0)
	if s.Rate() != MaxRate || s.Volume() != MaxVolume {
		t.Errorf("NewSettings(1000, 5.0) = rate %d volume %v, want clamped", s.Rate(), s.Volume())
	}

	s = NewSettings(1, -3.0)
	if s.Rate() != MinRate || s.Volume() != MinVolume {
		t.Errorf("NewSettings(1, -3.0) = rate %d volume %v, want clamped", s.Rate(), s.Volume())
	}
}
