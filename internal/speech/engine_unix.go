// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build !windows
// +build !windows

package speech

import (
	"context"
	"os/exec"
	"strconv"
)

// Synthesizer commands probed in preference order. say covers macOS,
// the rest cover the common Linux installs.
var unixSynthesizers = []string{"say", "espeak-ng", "espeak", "spd-say"}

// probeEngine searches PATH for a known synthesizer command.
func probeEngine() (Engine, error) {
	for _, name := range unixSynthesizers {
		if path, err := exec.LookPath(name); err == nil {
			return &commandEngine{name: name, path: path}, nil
		}
	}
	return nil, ErrNoEngine
}

// commandEngine speaks by running one synthesizer process per
// utterance. Spawning per utterance keeps rate and volume changes
// effective immediately and avoids holding audio devices open.
type commandEngine struct {
	name string
	path string
}

func (e *commandEngine) Name() string {
	return e.name
}

func (e *commandEngine) Speak(ctx context.Context, text string, p Params) error {
	cmd := exec.CommandContext(ctx, e.path, e.args(text, p)...)
	return cmd.Run()
}

// args maps Params onto each tool's flag conventions.
func (e *commandEngine) args(text string, p Params) []string {
	var args []string

	switch e.name {
	case "say":
		// say has no volume flag; rate is words per minute.
		args = append(args, "-r", strconv.Itoa(p.Rate))
		if p.Voice != "" {
			args = append(args, "-v", p.Voice)
		}
	case "espeak-ng", "espeak":
		// Amplitude runs 0-200 with 100 as normal loudness.
		args = append(args,
			"-s", strconv.Itoa(p.Rate),
			"-a", strconv.Itoa(int(p.Volume*200)),
		)
		if p.Voice != "" {
			args = append(args, "-v", p.Voice)
		}
	case "spd-say":
		// spd-say scales rate and volume to -100..100. -w blocks
		// until the utterance finishes.
		args = append(args,
			"-w",
			"-r", strconv.Itoa(scaleToHundred(float64(p.Rate-50)/250.0)),
			"-i", strconv.Itoa(scaleToHundred(p.Volume)),
		)
		if p.Voice != "" {
			args = append(args, "-y", p.Voice)
		}
	}

	return append(args, text)
}

// scaleToHundred maps a 0.0-1.0 fraction onto -100..100.
func scaleToHundred(fraction float64) int {
	n := int(fraction*200) - 100
	if n < -100 {
		n = -100
	}
	if n > 100 {
		n = 100
	}
	return n
}
