// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import "sync"

// =============================================================================
// SPEECH SETTINGS
// =============================================================================

// Rate bounds in words per minute and the step sizes used by the
// faster/slower and louder/quieter adjustments.
const (
	MinRate     = 50
	MaxRate     = 300
	DefaultRate = 175
	RateStep    = 25

	MinVolume     = 0.0
	MaxVolume     = 1.0
	DefaultVolume = 1.0
	VolumeStep    = 0.1
)

// Settings holds the user-adjustable speech parameters. The speaker
// worker reads them while the command loop mutates them, so every
// access goes through the mutex.
type Settings struct {
	mu               sync.Mutex
	rate             int
	volume           float64
	muted            bool
	volumeBeforeMute float64
	voice            string
}

// NewSettings creates Settings with the given starting rate and
// volume, clamped to the valid ranges.
func NewSettings(rate int, volume float64) *Settings {
	return &Settings{
		rate:             clampRate(rate),
		volume:           clampVolume(volume),
		volumeBeforeMute: clampVolume(volume),
	}
}

// Params returns a consistent snapshot for one utterance.
func (s *Settings) Params() Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Params{Rate: s.rate, Volume: s.volume, Voice: s.voice}
}

// Rate returns the current speech rate in words per minute.
func (s *Settings) Rate() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rate
}

// Volume returns the current volume.
func (s *Settings) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// Muted reports whether audio is muted.
func (s *Settings) Muted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

// Voice returns the selected voice name, empty for the engine default.
func (s *Settings) Voice() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.voice
}

// SetVoice selects an engine-specific voice name.
func (s *Settings) SetVoice(voice string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voice = voice
}

// Faster raises the rate by one step, clamped to MaxRate. Returns the
// new rate.
func (s *Settings) Faster() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rate = clampRate(s.rate + RateStep)
	return s.rate
}

// Slower lowers the rate by one step, clamped to MinRate. Returns the
// new rate.
func (s *Settings) Slower() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rate = clampRate(s.rate - RateStep)
	return s.rate
}

// Louder raises the volume by one step, clamped to MaxVolume. Returns
// the new volume.
func (s *Settings) Louder() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = clampVolume(s.volume + VolumeStep)
	return s.volume
}

// Quieter lowers the volume by one step, clamped to MinVolume. Returns
// the new volume.
func (s *Settings) Quieter() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = clampVolume(s.volume - VolumeStep)
	return s.volume
}

// SetVolume sets an exact volume. Values outside 0.0-1.0 are rejected.
// Setting a volume while muted unmutes.
func (s *Settings) SetVolume(volume float64) bool {
	if volume < MinVolume || volume > MaxVolume {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = volume
	s.muted = false
	return true
}

// SetRate sets an exact speech rate. Values outside 50-300 are
// rejected.
func (s *Settings) SetRate(rate int) bool {
	if rate < MinRate || rate > MaxRate {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rate = rate
	return true
}

// ToggleMute flips the mute state. Muting remembers the current volume
// and drops it to zero; unmuting restores the remembered volume
// exactly. Returns true when now muted.
func (s *Settings) ToggleMute() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.muted {
		s.volume = s.volumeBeforeMute
		s.muted = false
	} else {
		s.volumeBeforeMute = s.volume
		s.volume = 0.0
		s.muted = true
	}
	return s.muted
}

func clampRate(rate int) int {
	if rate < MinRate {
		return MinRate
	}
	if rate > MaxRate {
		return MaxRate
	}
	return rate
}

func clampVolume(volume float64) float64 {
	if volume < MinVolume {
		return MinVolume
	}
	if volume > MaxVolume {
		return MaxVolume
	}
	return volume
}
