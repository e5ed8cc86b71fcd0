// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"context"
	"errors"
)

// ErrNoEngine is returned by ProbeEngine when no speech synthesizer is
// installed on the host.
var ErrNoEngine = errors.New("no text-to-speech engine found")

// Params carries the per-utterance synthesis parameters. Rate is in
// words per minute, Volume is 0.0 to 1.0, Voice is an optional
// engine-specific voice name.
type Params struct {
	Rate   int
	Volume float64
	Voice  string
}

// Engine speaks text through a platform synthesizer. Speak blocks
// until the utterance finishes or ctx is cancelled.
type Engine interface {
	Name() string
	Speak(ctx context.Context, text string, p Params) error
}

// ProbeEngine discovers an available speech synthesizer on this host.
// Returns ErrNoEngine when none is installed.
func ProbeEngine() (Engine, error) {
	return probeEngine()
}
