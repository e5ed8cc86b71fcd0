// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/sollama/internal/memory"
	"github.com/jeranaias/sollama/internal/speech"
	"github.com/jeranaias/sollama/internal/util"
)

// =============================================================================
// CONFIG STRUCTURE
// =============================================================================

// Config represents the complete sollama configuration.
type Config struct {
	// Model is the Ollama model used for generation.
	Model string `toml:"model" json:"model"`
	// OllamaURL is the base URL of the Ollama server.
	OllamaURL string `toml:"ollama_url" json:"ollama_url"`

	// SpeechRate is the narration rate in words per minute (50-300).
	SpeechRate int `toml:"speech_rate" json:"speech_rate"`
	// Volume is the narration volume (0.0-1.0).
	Volume float64 `toml:"volume" json:"volume"`
	// Muted starts the session with audio off.
	Muted bool `toml:"muted" json:"muted"`
	// Voice is an engine-specific voice name, empty for the default.
	Voice string `toml:"voice" json:"voice"`

	// MaxMemory is the conversation history cap in message units.
	MaxMemory int `toml:"max_memory" json:"max_memory"`
	// SystemPrompt replaces the built-in assistant persona.
	SystemPrompt string `toml:"system_prompt" json:"system_prompt"`
	// LoadMemoryPath is a memory snapshot to restore at startup.
	LoadMemoryPath string `toml:"load_memory_path" json:"load_memory_path"`

	// Streaming selects streamed generation with live narration.
	Streaming bool `toml:"streaming" json:"streaming"`
	// Speak enables narration at all.
	Speak bool `toml:"speak" json:"speak"`
	// SaveResponses writes a transcript file for the session.
	SaveResponses bool `toml:"save_responses" json:"save_responses"`
	// ArchiveEnabled records exchanges to the local archive database.
	ArchiveEnabled bool `toml:"archive_enabled" json:"archive_enabled"`
	// Quiet suppresses the startup banner and voice listing.
	Quiet bool `toml:"quiet" json:"quiet"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Model:          "llama3.2",
		OllamaURL:      "http://localhost:11434",
		SpeechRate:     speech.DefaultRate,
		Volume:         speech.DefaultVolume,
		MaxMemory:      memory.DefaultMaxMessages,
		SystemPrompt:   memory.DefaultSystemPrompt,
		Streaming:      true,
		Speak:          true,
		ArchiveEnabled: true,
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the sollama configuration directory.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".sollama"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()

	if path, err := ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := LoadTOML(cfg, path); err != nil {
				return nil, fmt.Errorf("failed to load TOML config: %w", err)
			}
			return finishLoad(cfg)
		}
	}

	if path, err := ConfigPathJSON(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := LoadJSON(cfg, path); err != nil {
				return nil, fmt.Errorf("failed to load JSON config: %w", err)
			}
			return finishLoad(cfg)
		}
	}

	return finishLoad(cfg)
}

// LoadFromPath loads configuration from a specific file path. The
// format is chosen by extension, defaulting to TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(strings.ToLower(path), ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, err
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, err
		}
	}

	return finishLoad(cfg)
}

func finishLoad(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON loads configuration from a JSON file.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// ApplyEnvOverrides applies environment variable overrides.
func (c *Config) ApplyEnvOverrides() {
	if model := os.Getenv("SOLLAMA_MODEL"); model != "" {
		c.Model = model
	}
	if u := os.Getenv("SOLLAMA_URL"); u != "" {
		c.OllamaURL = u
	}
}

// SetDefaults fills in any zero values that have non-zero defaults.
func (c *Config) SetDefaults() {
	defaults := Default()
	if c.Model == "" {
		c.Model = defaults.Model
	}
	if c.OllamaURL == "" {
		c.OllamaURL = defaults.OllamaURL
	}
	if c.SpeechRate == 0 {
		c.SpeechRate = defaults.SpeechRate
	}
	if c.MaxMemory == 0 {
		c.MaxMemory = defaults.MaxMemory
	}
	if c.SystemPrompt == "" {
		c.SystemPrompt = defaults.SystemPrompt
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
func SaveTOML(cfg *Config, path string) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf strings.Builder
	buf.WriteString("# sollama configuration file\n")
	buf.WriteString("# Generated by sollama - edit with care\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, []byte(buf.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file.
func SaveJSON(cfg *Config, path string) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.OllamaURL != "" {
		if _, err := url.Parse(c.OllamaURL); err != nil {
			errs = append(errs, ValidationError{
				Field:   "ollama_url",
				Message: fmt.Sprintf("invalid URL: %v", err),
			})
		}
	}

	if c.SpeechRate < speech.MinRate || c.SpeechRate > speech.MaxRate {
		errs = append(errs, ValidationError{
			Field:   "speech_rate",
			Message: fmt.Sprintf("must be %d-%d words per minute, got %d", speech.MinRate, speech.MaxRate, c.SpeechRate),
		})
	}

	if c.Volume < speech.MinVolume || c.Volume > speech.MaxVolume {
		errs = append(errs, ValidationError{
			Field:   "volume",
			Message: fmt.Sprintf("must be %.1f-%.1f, got %v", speech.MinVolume, speech.MaxVolume, c.Volume),
		})
	}

	if c.MaxMemory <= 0 {
		errs = append(errs, ValidationError{
			Field:   "max_memory",
			Message: fmt.Sprintf("must be positive, got %d", c.MaxMemory),
		})
	} else if c.MaxMemory%2 != 0 {
		errs = append(errs, ValidationError{
			Field:   "max_memory",
			Message: fmt.Sprintf("must be even so history stays pair-aligned, got %d", c.MaxMemory),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfig = cfg
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	// Consume the lazy initializer so a later Global() call cannot
	// overwrite what was set here.
	globalConfigOnce.Do(func() {})
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
// This should only be used in tests to reset state between test runs.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
