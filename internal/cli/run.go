// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/jeranaias/sollama/internal/archive"
	"github.com/jeranaias/sollama/internal/commands"
	"github.com/jeranaias/sollama/internal/config"
	"github.com/jeranaias/sollama/internal/memory"
	"github.com/jeranaias/sollama/internal/ollama"
	"github.com/jeranaias/sollama/internal/session"
	"github.com/jeranaias/sollama/internal/speech"
	"github.com/jeranaias/sollama/internal/transcript"
)

// Version information (set at build time)
var (
	Version   = "1.0.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// ENTRY POINT
// =============================================================================

// Run is the main entry point. Returns the process exit code.
func Run(argv []string) int {
	cfg := config.Global()

	args, err := ParseArgs(argv, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n%s", err, Usage())
		return 1
	}
	if args.ShowHelp {
		fmt.Print(Usage())
		return 0
	}
	if args.ShowVersion {
		fmt.Printf("sollama %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
		return 0
	}

	sess, err := buildSession(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("Error:"), err)
		return 1
	}
	defer sess.Close()

	// Piped input gets no banner, only the responses.
	if !cfg.Quiet && IsTTY() {
		printWelcome(sess, cfg)
	}

	return runChatLoop(sess, cfg)
}

// buildSession wires the session from configuration: client, speech,
// memory, transcript and archive.
func buildSession(cfg *config.Config) (*session.Session, error) {
	client := ollama.NewClientWithConfig(&ollama.ClientConfig{
		BaseURL:      cfg.OllamaURL,
		DefaultModel: cfg.Model,
	})

	// A dead server is a startup error; everything downstream needs it.
	if err := client.CheckRunning(context.Background()); err != nil {
		return nil, fmt.Errorf("Ollama is not running at %s. Start it with: ollama serve", cfg.OllamaURL)
	}

	var engine speech.Engine
	if cfg.Speak {
		var err error
		engine, err = speech.ProbeEngine()
		if err != nil {
			fmt.Fprintln(os.Stderr, warningStyle.Render("No text-to-speech engine found - narration disabled"))
			engine = nil
		}
	}
	settings := speech.NewSettings(cfg.SpeechRate, cfg.Volume)
	if cfg.Voice != "" {
		settings.SetVoice(cfg.Voice)
	}
	if cfg.Muted {
		settings.ToggleMute()
	}
	speaker := speech.NewSpeaker(engine, settings)

	mem := memory.New(cfg.SystemPrompt, cfg.MaxMemory)
	if cfg.LoadMemoryPath != "" {
		if err := mem.Load(cfg.LoadMemoryPath); err != nil {
			fmt.Fprintf(os.Stderr, "%s could not load memory: %v\n", warningStyle.Render("Warning:"), err)
		} else {
			fmt.Println(infoStyle.Render(mem.Summary()))
		}
	}

	log := transcript.New(".", cfg.SaveResponses)
	if log.Enabled() {
		fmt.Println(infoStyle.Render("Saving conversation to " + log.Path()))
	}

	// The archive is optional; a broken database just disables it.
	var arch *archive.Archive
	if cfg.ArchiveEnabled {
		if path, err := archive.DefaultPath(); err == nil {
			arch, err = archive.Open(path, cfg.Model)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s archive disabled: %v\n", warningStyle.Render("Warning:"), err)
				arch = nil
			}
		}
	}

	opts := session.Options{Streaming: cfg.Streaming, Speak: cfg.Speak}
	return session.New(mem, client, speaker, log, arch, opts), nil
}

// =============================================================================
// CHAT LOOP
// =============================================================================

func runChatLoop(sess *session.Session, cfg *config.Config) int {
	input := NewChatCLI()
	defer input.Close()

	registry := commands.NewRegistry()
	parser := commands.NewParser(registry)

	// Ctrl+C cancels the in-flight turn rather than killing the
	// process.
	var cancelMu sync.Mutex
	var cancelTurn context.CancelFunc
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		for range sigChan {
			cancelMu.Lock()
			if cancelTurn != nil {
				cancelTurn()
				cancelTurn = nil
				fmt.Fprintln(os.Stderr, "\n"+warningStyle.Render("[Cancelled]"))
			}
			cancelMu.Unlock()
		}
	}()

	for {
		line, err := input.ReadInput(promptStyle.Render("You: "))
		if err != nil {
			// Ctrl+C at the prompt or EOF ends the session.
			fmt.Println()
			printExitSummary(sess)
			return 0
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		cmdCtx := &commands.Context{Ctx: context.Background(), Session: sess, Out: os.Stdout}
		outcome, err := parser.Dispatch(cmdCtx, line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
			continue
		}

		switch outcome {
		case commands.Exit:
			printExitSummary(sess)
			return 0
		case commands.Continue:
			continue
		case commands.Ask:
			runTurn(sess, cfg, line, &cancelMu, &cancelTurn)
		}
	}
}

// runTurn processes one question, streaming output to the terminal.
func runTurn(sess *session.Session, cfg *config.Config, question string, cancelMu *sync.Mutex, cancelTurn *context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	cancelMu.Lock()
	*cancelTurn = cancel
	cancelMu.Unlock()
	defer func() {
		cancelMu.Lock()
		*cancelTurn = nil
		cancelMu.Unlock()
		cancel()
	}()

	fmt.Printf("\n%s\n", responseStyle.Render(fmt.Sprintf("Ollama (%s):", sess.Client.Model())))

	onChunk := func(chunk string) {
		fmt.Print(chunk)
	}
	if !sess.Options.Streaming {
		// The full response arrives at once; markdown-render it
		// instead of echoing raw text.
		onChunk = func(chunk string) {
			fmt.Print(renderMarkdown(chunk))
		}
	}

	_, err := sess.ProcessTurn(ctx, question, onChunk)
	fmt.Println()
	if err != nil {
		switch {
		case ollama.IsNotRunning(err):
			fmt.Fprintln(os.Stderr, errorStyle.Render("Lost connection to Ollama. Is the server still running?"))
		case ctx.Err() != nil:
			// Cancelled by the user; the notice was already printed.
		case errors.Is(err, session.ErrEmptyResponse):
			fmt.Fprintln(os.Stderr, warningStyle.Render("Ollama returned an empty response"))
		default:
			fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
		}
		return
	}
	fmt.Println(infoStyle.Render(strings.Repeat("=", 50)))
}

// =============================================================================
// BANNER AND SUMMARY
// =============================================================================

func printWelcome(sess *session.Session, cfg *config.Config) {
	fmt.Println(welcomeStyle.Render("sollama - talk with your local models"))
	fmt.Println(infoStyle.Render(fmt.Sprintf("Model: %s | Server: %s", cfg.Model, cfg.OllamaURL)))

	if sess.Speaker.Available() {
		mode := fmt.Sprintf("Narration: on (rate %d, volume %.1f)",
			sess.Speaker.Settings().Rate(), sess.Speaker.Settings().Volume())
		if sess.Speaker.Settings().Muted() {
			mode = "Narration: muted"
		}
		fmt.Println(infoStyle.Render(mode))
	} else {
		fmt.Println(infoStyle.Render("Narration: off"))
	}

	models, err := sess.Client.ListModels(context.Background())
	if err == nil && len(models) > 0 {
		names := make([]string, 0, len(models))
		for _, m := range models {
			names = append(names, m.Name)
		}
		fmt.Println(infoStyle.Render("Available models: " + strings.Join(names, ", ")))
	}

	fmt.Println(infoStyle.Render(`Type "help" for commands, or just ask a question.`))
	fmt.Println()
}

func printExitSummary(sess *session.Session) {
	fmt.Println(infoStyle.Render(sess.Memory.Summary()))
	fmt.Println(infoStyle.Render("Goodbye!"))
}
