// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strconv"

	"github.com/jeranaias/sollama/internal/config"
)

// =============================================================================
// ARGUMENT PARSING
// =============================================================================

// Args holds what flag parsing produced beyond config overrides.
type Args struct {
	ShowVersion bool
	ShowHelp    bool
}

// ParseArgs applies command line flags on top of cfg. Flags override
// whatever the config file and environment provided.
func ParseArgs(argv []string, cfg *config.Config) (Args, error) {
	var args Args

	i := 0
	next := func(flag string) (string, error) {
		if i+1 >= len(argv) {
			return "", fmt.Errorf("%s requires a value", flag)
		}
		i++
		return argv[i], nil
	}

	for ; i < len(argv); i++ {
		arg := argv[i]
		switch arg {
		case "--model", "-m":
			value, err := next(arg)
			if err != nil {
				return args, err
			}
			cfg.Model = value

		case "--url", "-u":
			value, err := next(arg)
			if err != nil {
				return args, err
			}
			cfg.OllamaURL = value

		case "--rate", "-r":
			value, err := next(arg)
			if err != nil {
				return args, err
			}
			rate, err := strconv.Atoi(value)
			if err != nil {
				return args, fmt.Errorf("invalid rate %q: must be a number", value)
			}
			cfg.SpeechRate = rate

		case "--volume", "-v":
			value, err := next(arg)
			if err != nil {
				return args, err
			}
			volume, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return args, fmt.Errorf("invalid volume %q: must be a number", value)
			}
			cfg.Volume = volume

		case "--mute":
			cfg.Muted = true

		case "--save", "-s":
			cfg.SaveResponses = true

		case "--system-prompt", "-sp":
			value, err := next(arg)
			if err != nil {
				return args, err
			}
			cfg.SystemPrompt = value

		case "--max-memory", "-mm":
			value, err := next(arg)
			if err != nil {
				return args, err
			}
			max, err := strconv.Atoi(value)
			if err != nil {
				return args, fmt.Errorf("invalid max-memory %q: must be a number", value)
			}
			cfg.MaxMemory = max

		case "--load-memory", "-lm":
			value, err := next(arg)
			if err != nil {
				return args, err
			}
			cfg.LoadMemoryPath = value

		case "--no-stream":
			cfg.Streaming = false

		case "--no-speak":
			cfg.Speak = false

		case "--no-archive":
			cfg.ArchiveEnabled = false

		case "--quiet", "-q":
			cfg.Quiet = true

		case "--version":
			args.ShowVersion = true

		case "--help", "-h":
			args.ShowHelp = true

		default:
			return args, fmt.Errorf("unknown flag: %s", arg)
		}
	}

	if err := cfg.Validate(); err != nil {
		return args, err
	}
	return args, nil
}

// Usage returns the command line help text.
func Usage() string {
	return `sollama - voice-narrated conversations with a local Ollama server

Usage: sollama [flags]

Flags:
  -m,  --model <name>         Model to use (default llama3.2)
  -u,  --url <url>            Ollama server URL (default http://localhost:11434)
  -r,  --rate <wpm>           Speech rate, 50-300 words per minute (default 175)
  -v,  --volume <0.0-1.0>     Narration volume (default 1.0)
       --mute                 Start with audio muted
  -s,  --save                 Save a conversation transcript file
  -sp, --system-prompt <text> Custom system prompt
  -mm, --max-memory <n>       History cap in messages, even (default 50)
  -lm, --load-memory <file>   Restore a saved memory snapshot
       --no-stream            Disable streaming generation
       --no-speak             Disable narration entirely
       --no-archive           Disable the exchange archive
  -q,  --quiet                Suppress the startup banner
       --version              Print version and exit
  -h,  --help                 Show this help
`
}
