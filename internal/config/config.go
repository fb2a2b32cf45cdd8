// Package config loads codepilot configuration from YAML with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"codepilot/internal/index"
	"codepilot/internal/router"
)

// Config holds all codepilot configuration.
type Config struct {
	// Provider locates the model backend.
	Provider ProviderConfig `yaml:"provider"`

	// Models maps routing tiers to model identifiers.
	Models router.ModelTable `yaml:"models"`

	// Index configures the codebase index.
	Index IndexConfig `yaml:"index"`

	// Loop configures the orchestration loop.
	Loop LoopConfig `yaml:"loop"`

	// Logging configures log output.
	Logging LoggingConfig `yaml:"logging"`
}

// ProviderConfig configures the OpenAI-compatible backend.
type ProviderConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Timeout string `yaml:"timeout"`
}

// IndexConfig configures the codebase index.
type IndexConfig struct {
	// Extensions filters indexable files; empty means the defaults.
	Extensions []string `yaml:"extensions"`

	// IgnorePatterns are substring matches against full paths.
	IgnorePatterns []string `yaml:"ignore_patterns"`

	// SnapshotPath is the SQLite snapshot location, relative to the
	// workspace when not absolute. Empty disables persistence.
	SnapshotPath string `yaml:"snapshot_path"`

	// Watch enables the filesystem watcher for incremental re-indexing.
	Watch bool `yaml:"watch"`
}

// LoopConfig configures the orchestration loop.
type LoopConfig struct {
	MaxRounds      int     `yaml:"max_rounds"`
	MaxWorkers     int     `yaml:"max_workers"`
	ToolTimeout    string  `yaml:"tool_timeout"`
	MaxHistory     int     `yaml:"max_history"`
	ResultBudget   int     `yaml:"result_budget"`
	SystemPrompt   string  `yaml:"system_prompt"`
	Temperature    float64 `yaml:"temperature"`
	AdaptiveTuning bool    `yaml:"adaptive_tuning"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Debug bool `yaml:"debug"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderConfig{
			BaseURL: "http://localhost:11434/v1",
			Timeout: "5m",
		},
		Models: router.ModelTable{
			Heavy:   "qwen2.5-coder:32b",
			Coding:  "qwen2.5-coder:14b",
			General: "llama3.1:8b",
			Simple:  "llama3.2:3b",
		},
		Index: IndexConfig{
			SnapshotPath: filepath.Join(".pilot", "index.db"),
		},
		Loop: LoopConfig{
			MaxRounds:      5,
			MaxWorkers:     5,
			ToolTimeout:    "60s",
			MaxHistory:     50,
			ResultBudget:   4000,
			Temperature:    0.4,
			AdaptiveTuning: true,
		},
	}
}

// DefaultPath returns the config location inside a workspace.
func DefaultPath(workspace string) string {
	return filepath.Join(workspace, ".pilot", "config.yaml")
}

// Load reads configuration from a YAML file, falling back to defaults
// when the file does not exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies PILOT_* environment variables, with
// OPENAI_API_KEY as a fallback for the key.
func (c *Config) applyEnvOverrides() {
	if url := os.Getenv("PILOT_BASE_URL"); url != "" {
		c.Provider.BaseURL = url
	}
	if key := os.Getenv("PILOT_API_KEY"); key != "" {
		c.Provider.APIKey = key
	} else if key := os.Getenv("OPENAI_API_KEY"); key != "" && c.Provider.APIKey == "" {
		c.Provider.APIKey = key
	}
	if path := os.Getenv("PILOT_DB"); path != "" {
		c.Index.SnapshotPath = path
	}
}

// ProviderTimeout returns the provider timeout as a duration.
func (c *Config) ProviderTimeout() time.Duration {
	d, err := time.ParseDuration(c.Provider.Timeout)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}

// ToolTimeout returns the per-tool timeout as a duration.
func (c *Config) ToolTimeout() time.Duration {
	d, err := time.ParseDuration(c.Loop.ToolTimeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// Extensions returns the configured extensions, normalized to carry a
// leading dot, or the index defaults when unset.
func (c *Config) Extensions() []string {
	if len(c.Index.Extensions) == 0 {
		return index.DefaultExtensions
	}
	out := make([]string, 0, len(c.Index.Extensions))
	for _, ext := range c.Index.Extensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}

// IgnorePatterns returns the configured ignores or the index defaults.
func (c *Config) IgnorePatterns() []string {
	if len(c.Index.IgnorePatterns) == 0 {
		return index.DefaultIgnorePatterns
	}
	return c.Index.IgnorePatterns
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Provider.BaseURL == "" {
		return fmt.Errorf("provider base_url not configured")
	}
	if c.Models.General == "" {
		return fmt.Errorf("models.general not configured; it is the routing fallback")
	}
	if c.Loop.MaxRounds <= 0 {
		return fmt.Errorf("loop.max_rounds must be positive")
	}
	return nil
}
