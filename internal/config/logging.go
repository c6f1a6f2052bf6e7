package config

import "neptune/internal/logging"

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level       string          `yaml:"level" json:"level,omitempty"`             // debug, info, warn, error
	Format      string          `yaml:"format" json:"format,omitempty"`           // json, console
	File        string          `yaml:"file" json:"file,omitempty"`               // empty logs to stderr
	Development bool            `yaml:"development" json:"development,omitempty"` // zap development config
	Categories  map[string]bool `yaml:"categories" json:"categories,omitempty"`   // Per-category toggles
}

// IsCategoryEnabled returns whether logging is enabled for a category.
// Categories not listed are enabled.
func (c *LoggingConfig) IsCategoryEnabled(category string) bool {
	if c.Categories == nil {
		return true
	}
	enabled, exists := c.Categories[category]
	if !exists {
		return true
	}
	return enabled
}

// Options converts the logging section into logging.Initialize options.
// verbose forces debug level.
func (c *LoggingConfig) Options(verbose bool) logging.Options {
	level := c.Level
	if verbose {
		level = "debug"
	}
	return logging.Options{
		Level:       level,
		Development: c.Development || c.Format == "console",
		File:        c.File,
		Categories:  c.Categories,
	}
}
