package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all Neptune configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name" json:"name,omitempty"`
	Version string `yaml:"version" json:"version,omitempty"`

	// Kernel limits (config/kernel.json)
	Kernel KernelLimits `yaml:"kernel" json:"kernel"`

	// Command shell
	Shell ShellConfig `yaml:"shell" json:"shell"`

	// Logging
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// ShellConfig configures the command shell.
type ShellConfig struct {
	Prompt      string `yaml:"prompt" json:"prompt,omitempty"`
	Theme       string `yaml:"theme" json:"theme,omitempty"`               // light, dark, auto
	HistoryPath string `yaml:"history_path" json:"history_path,omitempty"` // SQLite file; empty disables history
	HistorySize int    `yaml:"history_size" json:"history_size,omitempty"` // entries shown by the history command
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "Neptune OS",
		Version: "0.3.0",

		Kernel: DefaultKernelLimits(),

		Shell: ShellConfig{
			Prompt:      "> ",
			Theme:       "auto",
			HistoryPath: filepath.Join("data", "history.db"),
			HistorySize: 10,
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration from a YAML or JSON file. A missing file yields
// the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if isJSON(path) {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML or JSON file, chosen by extension.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var (
		data []byte
		err  error
	)
	if isJSON(path) {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("NEPTUNE_MAX_PROCESSES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Kernel.MaxProcesses = n
		}
	}
	if v := os.Getenv("NEPTUNE_MAX_THREADS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Kernel.MaxThreadsPerProcess = n
		}
	}
	if level := os.Getenv("NEPTUNE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if path := os.Getenv("NEPTUNE_HISTORY"); path != "" {
		c.Shell.HistoryPath = path
	}
}

// ValidThemes lists the accepted shell themes.
var ValidThemes = []string{"light", "dark", "auto"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Kernel.Validate(); err != nil {
		return err
	}

	validTheme := false
	for _, th := range ValidThemes {
		if c.Shell.Theme == th {
			validTheme = true
			break
		}
	}
	if !validTheme {
		return fmt.Errorf("invalid shell theme: %s (valid: %v)", c.Shell.Theme, ValidThemes)
	}

	if c.Shell.HistorySize < 0 {
		return fmt.Errorf("history_size must be >= 0")
	}

	return nil
}
