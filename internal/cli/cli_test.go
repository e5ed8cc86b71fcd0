// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strings"
	"testing"

	"github.com/jeranaias/sollama/internal/config"
)

func TestParseArgs_Overrides(t *testing.T) {
	cfg := config.Default()
	argv := []string{
		"--model", "mistral",
		"-u", "http://10.0.0.5:11434",
		"-r", "225",
		"-v", "0.5",
		"--mute",
		"-s",
		"-sp", "You are terse",
		"-mm", "20",
		"-lm", "snapshot.json",
		"--no-stream",
		"--no-speak",
		"-q",
	}

	args, err := ParseArgs(argv, cfg)
	if err != nil {
		t.Fatalf("ParseArgs failed: %v", err)
	}
	if args.ShowVersion || args.ShowHelp {
		t.Error("version/help flags set unexpectedly")
	}

	if cfg.Model != "mistral" {
		t.Errorf("Model = %q", cfg.Model)
	}
	if cfg.OllamaURL != "http://10.0.0.5:11434" {
		t.Errorf("OllamaURL = %q", cfg.OllamaURL)
	}
	if cfg.SpeechRate != 225 {
		t.Errorf("SpeechRate = %d", cfg.SpeechRate)
	}
	if cfg.Volume != 0.5 {
		t.Errorf("Volume = %v", cfg.Volume)
	}
	if !cfg.Muted || !cfg.SaveResponses || !cfg.Quiet {
		t.Error("boolean flags not applied")
	}
	if cfg.SystemPrompt != "You are terse" {
		t.Errorf("SystemPrompt = %q", cfg.SystemPrompt)
	}
	if cfg.MaxMemory != 20 {
		t.Errorf("MaxMemory = %d", cfg.MaxMemory)
	}
	if cfg.LoadMemoryPath != "snapshot.json" {
		t.Errorf("LoadMemoryPath = %q", cfg.LoadMemoryPath)
	}
	if cfg.Streaming || cfg.Speak {
		t.Error("--no-stream/--no-speak not applied")
	}
}

func TestParseArgs_Invalid(t *testing.T) {
	tests := []struct {
		name string
		argv []string
		want string
	}{
		{"unknown flag", []string{"--bogus"}, "unknown flag"},
		{"missing value", []string{"--model"}, "requires a value"},
		{"rate not a number", []string{"-r", "fast"}, "invalid rate"},
		{"volume not a number", []string{"-v", "loud"}, "invalid volume"},
		{"volume out of range", []string{"-v", "1.5"}, "volume"},
		{"rate out of range", []string{"-r", "1000"}, "speech_rate"},
		{"odd max memory", []string{"-mm", "7"}, "max_memory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			_, err := ParseArgs(tt.argv, cfg)
			if err == nil {
				t.Fatal("ParseArgs succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestParseArgs_VersionAndHelp(t *testing.T) {
	cfg := config.Default()

	args, err := ParseArgs([]string{"--version"}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !args.ShowVersion {
		t.Error("ShowVersion = false")
	}

	args, err = ParseArgs([]string{"-h"}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !args.ShowHelp {
		t.Error("ShowHelp = false")
	}
}

func TestUsage_CoversAllFlags(t *testing.T) {
	usage := Usage()
	for _, flag := range []string{
		"--model", "--url", "--rate", "--volume", "--mute", "--save",
		"--system-prompt", "--max-memory", "--load-memory", "--no-stream",
		"--no-speak", "--quiet", "--version",
	} {
		if !strings.Contains(usage, flag) {
			t.Errorf("usage text missing %s", flag)
		}
	}
}
