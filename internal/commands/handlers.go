// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jeranaias/sollama/internal/archive"
	"github.com/jeranaias/sollama/internal/util"
)

// =============================================================================
// BUILT-IN COMMANDS
// =============================================================================

func (r *Registry) registerBuiltins() {
	// Conversation commands
	r.Register(&Command{
		Name:        "exit",
		Aliases:     []string{"quit", "bye"},
		Description: "Exit the program",
		Category:    "Conversation",
		Handler: func(ctx *Context, args []string) (Outcome, error) {
			return Exit, nil
		},
	})

	r.Register(&Command{
		Name:        "repeat",
		Description: "Repeat the last response with narration",
		Category:    "Conversation",
		Handler:     handleRepeat,
	})

	r.Register(&Command{
		Name:        "help",
		Description: "Show available commands",
		Category:    "Conversation",
		Handler: func(ctx *Context, args []string) (Outcome, error) {
			return handleHelp(r, ctx)
		},
	})

	// Memory management
	r.Register(&Command{
		Name:        "clear",
		Aliases:     []string{"new", "reset"},
		Description: "Clear conversation memory and start fresh",
		Category:    "Memory",
		Handler: func(ctx *Context, args []string) (Outcome, error) {
			ctx.Session.Memory.Clear()
			fmt.Fprintln(ctx.Out, "Conversation memory cleared - starting fresh")
			return Continue, nil
		},
	})

	r.Register(&Command{
		Name:        "memory",
		Description: "Show current memory status",
		Category:    "Memory",
		Handler:     handleMemoryStatus,
	})

	r.Register(&Command{
		Name:        "system",
		Description: "Set or view the system prompt",
		Usage:       "system <prompt>",
		Category:    "Memory",
		Handler:     handleSystemPrompt,
	})

	r.Register(&Command{
		Name:        "save_memory",
		Description: "Save conversation memory to a JSON file",
		Usage:       "save_memory [file]",
		Category:    "Memory",
		Handler:     handleSaveMemory,
	})

	r.Register(&Command{
		Name:        "load_memory",
		Description: "Load conversation memory from a JSON file",
		Usage:       "load_memory <file>",
		Category:    "Memory",
		Handler:     handleLoadMemory,
	})

	r.Register(&Command{
		Name:        "search",
		Description: "Search archived exchanges",
		Usage:       "search <term>",
		Category:    "Memory",
		Handler:     handleSearch,
	})

	r.Register(&Command{
		Name:        "recent",
		Description: "Show the most recent archived exchanges",
		Usage:       "recent [n]",
		Category:    "Memory",
		Handler:     handleRecent,
	})

	// Model management
	r.Register(&Command{
		Name:        "models",
		Description: "List available models",
		Category:    "Model",
		Handler:     handleListModels,
	})

	r.Register(&Command{
		Name:        "model",
		Description: "Switch to a different model",
		Usage:       "model <name>",
		Category:    "Model",
		Handler:     handleSwitchModel,
	})

	r.Register(&Command{
		Name:        "stream",
		Description: "Toggle streaming mode",
		Category:    "Model",
		Handler: func(ctx *Context, args []string) (Outcome, error) {
			ctx.Session.Options.Streaming = !ctx.Session.Options.Streaming
			mode := "disabled"
			if ctx.Session.Options.Streaming {
				mode = "enabled"
			}
			fmt.Fprintf(ctx.Out, "Streaming mode %s\n", mode)
			return Continue, nil
		},
	})

	// Speech controls
	r.Register(&Command{
		Name:        "test_tts",
		Description: "Test the text-to-speech system",
		Category:    "Speech",
		Handler: func(ctx *Context, args []string) (Outcome, error) {
			if !ctx.Session.Speaker.Available() {
				fmt.Fprintln(ctx.Out, "No text-to-speech engine available")
				return Continue, nil
			}
			ctx.Session.Speaker.SpeakBlocking(ctx.Ctx,
				"This is a test of the text to speech system. Testing one, two, three.")
			return Continue, nil
		},
	})

	r.Register(&Command{
		Name:        "voice",
		Description: "Show or set the narration voice",
		Usage:       "voice [name]",
		Category:    "Speech",
		Handler:     handleVoice,
	})

	r.Register(&Command{
		Name:        "faster",
		Description: "Increase speech rate",
		Category:    "Speech",
		Handler: func(ctx *Context, args []string) (Outcome, error) {
			rate := ctx.Session.Speaker.Settings().Faster()
			fmt.Fprintf(ctx.Out, "Speech rate: %d\n", rate)
			return Continue, nil
		},
	})

	r.Register(&Command{
		Name:        "slower",
		Description: "Decrease speech rate",
		Category:    "Speech",
		Handler: func(ctx *Context, args []string) (Outcome, error) {
			rate := ctx.Session.Speaker.Settings().Slower()
			fmt.Fprintf(ctx.Out, "Speech rate: %d\n", rate)
			return Continue, nil
		},
	})

	r.Register(&Command{
		Name:        "louder",
		Description: "Increase volume",
		Category:    "Speech",
		Handler: func(ctx *Context, args []string) (Outcome, error) {
			volume := ctx.Session.Speaker.Settings().Louder()
			fmt.Fprintf(ctx.Out, "Volume: %.1f\n", volume)
			return Continue, nil
		},
	})

	r.Register(&Command{
		Name:        "quieter",
		Description: "Decrease volume",
		Category:    "Speech",
		Handler: func(ctx *Context, args []string) (Outcome, error) {
			volume := ctx.Session.Speaker.Settings().Quieter()
			fmt.Fprintf(ctx.Out, "Volume: %.1f\n", volume)
			return Continue, nil
		},
	})

	r.Register(&Command{
		Name:        "mute",
		Description: "Mute narration",
		Category:    "Speech",
		Handler: func(ctx *Context, args []string) (Outcome, error) {
			settings := ctx.Session.Speaker.Settings()
			if !settings.Muted() {
				settings.ToggleMute()
			}
			fmt.Fprintln(ctx.Out, "Audio muted")
			return Continue, nil
		},
	})

	r.Register(&Command{
		Name:        "unmute",
		Description: "Unmute narration",
		Category:    "Speech",
		Handler: func(ctx *Context, args []string) (Outcome, error) {
			settings := ctx.Session.Speaker.Settings()
			if settings.Muted() {
				settings.ToggleMute()
			}
			fmt.Fprintf(ctx.Out, "Audio unmuted - Volume: %.1f\n", settings.Volume())
			return Continue, nil
		},
	})

	r.Register(&Command{
		Name:        "volume",
		Description: "Set an exact volume",
		Usage:       "volume <0.0-1.0>",
		Category:    "Speech",
		Handler:     handleSetVolume,
	})
}

// =============================================================================
// HANDLERS
// =============================================================================

func handleRepeat(ctx *Context, args []string) (Outcome, error) {
	last := ctx.Session.LastResponse()
	if last == "" {
		fmt.Fprintln(ctx.Out, "No previous response to repeat")
		return Continue, nil
	}

	fmt.Fprintln(ctx.Out, "\nRepeating last response...")
	fmt.Fprintf(ctx.Out, "Ollama (%s):\n%s\n%s\n", ctx.Session.Client.Model(), last, strings.Repeat("=", 50))
	ctx.Session.Repeat(ctx.Ctx)
	return Continue, nil
}

func handleMemoryStatus(ctx *Context, args []string) (Outcome, error) {
	mem := ctx.Session.Memory
	fmt.Fprintln(ctx.Out, "\nMemory Status:")
	fmt.Fprintf(ctx.Out, "   Exchanges: %d\n", mem.Exchanges())
	fmt.Fprintf(ctx.Out, "   Max history: %d\n", mem.MaxHistory())
	fmt.Fprintf(ctx.Out, "   System prompt: %d chars\n", len(mem.SystemPrompt()))
	if mem.Exchanges() > 0 {
		minutes := time.Since(mem.StartTime()).Minutes()
		fmt.Fprintf(ctx.Out, "   Session time: %.1f minutes\n", minutes)
	}
	return Continue, nil
}

func handleSystemPrompt(ctx *Context, args []string) (Outcome, error) {
	mem := ctx.Session.Memory
	if len(args) == 0 {
		fmt.Fprintf(ctx.Out, "Current system prompt: %s\n", mem.SystemPrompt())
		return Continue, nil
	}

	prompt := args[0]
	mem.SetSystemPrompt(prompt)
	fmt.Fprintf(ctx.Out, "System prompt set to: %s\n", util.TruncateRunes(prompt, 100))
	return Continue, nil
}

func handleSaveMemory(ctx *Context, args []string) (Outcome, error) {
	filename := ""
	if len(args) > 0 {
		filename = args[0]
	}
	if filename == "" {
		filename = fmt.Sprintf("ollama_memory_%s.json", time.Now().Format("20060102_150405"))
	}

	if err := ctx.Session.Memory.Save(filename); err != nil {
		fmt.Fprintf(ctx.Out, "Error saving memory: %v\n", err)
		return Continue, nil
	}
	fmt.Fprintf(ctx.Out, "Memory saved to %s\n", filename)
	return Continue, nil
}

func handleLoadMemory(ctx *Context, args []string) (Outcome, error) {
	if len(args) == 0 {
		fmt.Fprintln(ctx.Out, "Please specify a filename: load_memory filename.json")
		return Continue, nil
	}

	if err := ctx.Session.Memory.Load(args[0]); err != nil {
		fmt.Fprintf(ctx.Out, "Error loading memory: %v\n", err)
		return Continue, nil
	}
	fmt.Fprintf(ctx.Out, "Memory loaded from %s (%s)\n", args[0], ctx.Session.Memory.Summary())
	return Continue, nil
}

func handleSearch(ctx *Context, args []string) (Outcome, error) {
	if ctx.Session.Archive == nil {
		fmt.Fprintln(ctx.Out, "Archive is disabled")
		return Continue, nil
	}
	if len(args) == 0 {
		fmt.Fprintln(ctx.Out, "Please specify a search term: search <term>")
		return Continue, nil
	}

	term := strings.Join(args, " ")
	hits, err := ctx.Session.Archive.Search(term, 10)
	if err != nil {
		fmt.Fprintf(ctx.Out, "Search failed: %v\n", err)
		return Continue, nil
	}
	if len(hits) == 0 {
		fmt.Fprintf(ctx.Out, "No archived exchanges match %q\n", term)
		return Continue, nil
	}

	fmt.Fprintf(ctx.Out, "\nArchived exchanges matching %q:\n", term)
	printExchanges(ctx, hits)
	return Continue, nil
}

func handleRecent(ctx *Context, args []string) (Outcome, error) {
	if ctx.Session.Archive == nil {
		fmt.Fprintln(ctx.Out, "Archive is disabled")
		return Continue, nil
	}

	limit := 5
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			fmt.Fprintln(ctx.Out, "Invalid count. Use: recent 5")
			return Continue, nil
		}
		limit = n
	}

	hits, err := ctx.Session.Archive.Recent(limit)
	if err != nil {
		fmt.Fprintf(ctx.Out, "Archive lookup failed: %v\n", err)
		return Continue, nil
	}
	if len(hits) == 0 {
		fmt.Fprintln(ctx.Out, "No archived exchanges yet")
		return Continue, nil
	}

	fmt.Fprintln(ctx.Out, "\nRecent archived exchanges:")
	printExchanges(ctx, hits)
	return Continue, nil
}

// printExchanges lists archived pairs, clamped to terminal-ish width so
// CJK and emoji answers do not wrap mid-line.
func printExchanges(ctx *Context, hits []archive.Exchange) {
	for _, hit := range hits {
		fmt.Fprintf(ctx.Out, "  [%s] Q: %s\n", hit.CreatedAt.Format("2006-01-02 15:04"), util.TruncateWidth(hit.Question, 60))
		fmt.Fprintf(ctx.Out, "           A: %s\n", util.TruncateWidth(hit.Answer, 60))
	}
}

func handleListModels(ctx *Context, args []string) (Outcome, error) {
	models, err := ctx.Session.Client.ListModels(ctx.Ctx)
	if err != nil {
		fmt.Fprintf(ctx.Out, "Error: %v\n", err)
		return Continue, nil
	}

	fmt.Fprintln(ctx.Out, "\nAvailable models:")
	current := ctx.Session.Client.Model()
	for _, model := range models {
		if model.Name == current {
			fmt.Fprintf(ctx.Out, "  * %s (current)\n", model.Name)
		} else {
			fmt.Fprintf(ctx.Out, "  * %s\n", model.Name)
		}
	}
	return Continue, nil
}

func handleSwitchModel(ctx *Context, args []string) (Outcome, error) {
	if len(args) == 0 {
		fmt.Fprintln(ctx.Out, "Please specify a model: model <name>")
		return Continue, nil
	}

	name := args[0]
	fmt.Fprintf(ctx.Out, "Switching to model: %s\n", name)
	ctx.Session.Client.SetModel(name)
	return Continue, nil
}

func handleVoice(ctx *Context, args []string) (Outcome, error) {
	settings := ctx.Session.Speaker.Settings()
	if len(args) == 0 {
		if voice := settings.Voice(); voice != "" {
			fmt.Fprintf(ctx.Out, "Current voice: %s\n", voice)
		} else {
			fmt.Fprintln(ctx.Out, "Using the engine default voice")
		}
		return Continue, nil
	}

	voice := strings.Join(args, " ")
	settings.SetVoice(voice)
	fmt.Fprintf(ctx.Out, "Changed to voice: %s\n", voice)
	return Continue, nil
}

func handleSetVolume(ctx *Context, args []string) (Outcome, error) {
	if len(args) == 0 {
		fmt.Fprintf(ctx.Out, "Volume: %.1f\n", ctx.Session.Speaker.Settings().Volume())
		return Continue, nil
	}

	volume, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		fmt.Fprintln(ctx.Out, "Invalid volume value. Use: volume 0.5")
		return Continue, nil
	}
	if !ctx.Session.Speaker.Settings().SetVolume(volume) {
		fmt.Fprintln(ctx.Out, "Volume must be between 0.0 and 1.0")
		return Continue, nil
	}
	fmt.Fprintf(ctx.Out, "Volume set to %.1f\n", volume)
	return Continue, nil
}

// handleHelp lists the registry it is registered in, so commands added
// after construction still show up.
func handleHelp(registry *Registry, ctx *Context) (Outcome, error) {
	fmt.Fprintln(ctx.Out, "\n"+strings.Repeat("=", 70))
	fmt.Fprintln(ctx.Out, "                    SOLLAMA HELP")
	fmt.Fprintln(ctx.Out, strings.Repeat("=", 70))
	fmt.Fprintln(ctx.Out, "\nAnything that is not a command is sent to the model as a question.")

	pad := 0
	for _, cmd := range registry.All() {
		if w := util.StringWidth(commandLabel(cmd)); w > pad {
			pad = w
		}
	}

	byCategory := registry.ByCategory()
	for _, category := range helpCategories(byCategory) {
		cmds := byCategory[category]
		if len(cmds) == 0 {
			continue
		}
		fmt.Fprintf(ctx.Out, "\n%s:\n", strings.ToUpper(category))
		for _, cmd := range cmds {
			label := commandLabel(cmd)
			fill := strings.Repeat(" ", pad-util.StringWidth(label)+2)
			fmt.Fprintf(ctx.Out, "  %s%s- %s\n", label, fill, cmd.Description)
		}
	}
	fmt.Fprintln(ctx.Out)
	return Continue, nil
}

// commandLabel is the name column shown in help.
func commandLabel(cmd *Command) string {
	if cmd.Usage != "" {
		return cmd.Usage
	}
	name := cmd.Name
	if len(cmd.Aliases) > 0 {
		name += "/" + strings.Join(cmd.Aliases, "/")
	}
	return name
}

// helpCategories returns the built-in categories in display order,
// followed by any others alphabetically.
func helpCategories(byCategory map[string][]*Command) []string {
	order := []string{"Conversation", "Memory", "Model", "Speech"}
	known := make(map[string]bool, len(order))
	for _, c := range order {
		known[c] = true
	}

	var extra []string
	for category := range byCategory {
		if !known[category] {
			extra = append(extra, category)
		}
	}
	sort.Strings(extra)
	return append(order, extra...)
}
