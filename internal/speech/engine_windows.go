// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build windows
// +build windows

package speech

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// probeEngine locates PowerShell, which ships with every supported
// Windows version and exposes the SAPI synthesizer.
func probeEngine() (Engine, error) {
	path, err := exec.LookPath("powershell")
	if err != nil {
		return nil, ErrNoEngine
	}
	return &sapiEngine{path: path}, nil
}

// sapiEngine speaks through System.Speech via a PowerShell one-liner.
type sapiEngine struct {
	path string
}

func (e *sapiEngine) Name() string {
	return "sapi"
}

func (e *sapiEngine) Speak(ctx context.Context, text string, p Params) error {
	// SAPI rate runs -10..10; map words per minute (50..300) onto it
	// with 175 as the neutral midpoint. Volume runs 0..100.
	sapiRate := (p.Rate - 175) / 13
	if sapiRate < -10 {
		sapiRate = -10
	}
	if sapiRate > 10 {
		sapiRate = 10
	}
	sapiVolume := int(p.Volume * 100)

	var script strings.Builder
	script.WriteString("Add-Type -AssemblyName System.Speech; ")
	script.WriteString("$s = New-Object System.Speech.Synthesis.SpeechSynthesizer; ")
	fmt.Fprintf(&script, "$s.Rate = %d; $s.Volume = %d; ", sapiRate, sapiVolume)
	if p.Voice != "" {
		fmt.Fprintf(&script, "$s.SelectVoice('%s'); ", escapeSingleQuotes(p.Voice))
	}
	fmt.Fprintf(&script, "$s.Speak('%s')", escapeSingleQuotes(text))

	cmd := exec.CommandContext(ctx, e.path, "-NoProfile", "-NonInteractive", "-Command", script.String())
	return cmd.Run()
}

// escapeSingleQuotes doubles single quotes for PowerShell single-quoted
// string literals, which interpret nothing else.
func escapeSingleQuotes(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
