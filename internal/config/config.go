// Package config holds humanify's YAML configuration with environment
// overrides. The CLI merges flags on top of what Load returns.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all humanify configuration.
type Config struct {
	// LLM provider settings
	LLM LLMConfig `yaml:"llm"`

	// Engine knobs
	Engine EngineConfig `yaml:"engine"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the naming model.
type LLMConfig struct {
	Provider string `yaml:"provider"` // gemini, openai
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
}

// EngineConfig configures the renaming engine.
type EngineConfig struct {
	ContextWindowSize       int  `yaml:"context_window_size"`
	MaxBatchSize            int  `yaml:"max_batch_size"`
	MinInformationScore     int  `yaml:"min_information_score"`
	BatchConcurrency        int  `yaml:"batch_concurrency"`
	DirtyCheckpointInterval int  `yaml:"dirty_checkpoint_interval"`
	SmallScopeMergeLimit    int  `yaml:"small_scope_merge_limit"`
	UniqueNames             bool `yaml:"unique_names"`
}

// LoggingConfig configures debug logging.
type LoggingConfig struct {
	Debug    bool   `yaml:"debug"`
	StateDir string `yaml:"state_dir"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{Provider: "gemini"},
		Engine: EngineConfig{
			ContextWindowSize:       4000,
			MaxBatchSize:            10,
			MinInformationScore:     16,
			BatchConcurrency:        1,
			DirtyCheckpointInterval: 50,
			SmallScopeMergeLimit:    2,
		},
		Logging: LoggingConfig{StateDir: ".humanify"},
	}
}

// Load reads the config file at path (missing file is fine) and applies
// environment overrides on top.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(raw, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides reads HUMANIFY_* and provider key variables. A provider
// key only selects the provider when none is configured.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.LLM.APIKey = v
		if c.LLM.Provider == "" {
			c.LLM.Provider = "gemini"
		}
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && c.LLM.APIKey == "" {
		c.LLM.APIKey = v
		if c.LLM.Provider == "" {
			c.LLM.Provider = "openai"
		}
	}
	if v := os.Getenv("HUMANIFY_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("HUMANIFY_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("HUMANIFY_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("HUMANIFY_DEBUG"); v == "1" || v == "true" {
		c.Logging.Debug = true
	}
}

// Validate rejects configurations the engine would refuse anyway, before any
// file is read or network call made.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "", "gemini", "openai":
	default:
		return fmt.Errorf("unknown provider %q", c.LLM.Provider)
	}
	if c.Engine.ContextWindowSize <= 0 {
		return fmt.Errorf("context_window_size must be positive")
	}
	if c.Engine.MaxBatchSize <= 0 {
		return fmt.Errorf("max_batch_size must be positive")
	}
	if c.Engine.BatchConcurrency <= 0 {
		return fmt.Errorf("batch_concurrency must be positive")
	}
	if c.Engine.SmallScopeMergeLimit < 0 {
		return fmt.Errorf("small_scope_merge_limit must not be negative")
	}
	return nil
}
