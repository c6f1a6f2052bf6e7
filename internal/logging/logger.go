// Package logging provides categorized structured logging for Neptune.
// Every subsystem asks for its own category logger; categories can be switched
// off individually. Until Initialize is called every category is a no-op, so
// library packages can log unconditionally.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot      Category = "boot"      // Boot prompt and configuration check
	CategoryKernel    Category = "kernel"    // Process table and thread pools
	CategoryShell     Category = "shell"     // Command dispatch
	CategoryTokenizer Category = "tokenizer" // Expression scanning
	CategoryEvaluator Category = "evaluator" // Shunting-yard evaluation
	CategoryConfig    Category = "config"    // Config loading and reloads
	CategoryHistory   Category = "history"   // History store
)

// Options configures Initialize.
type Options struct {
	Level       string          // debug, info, warn, error
	Development bool            // console encoder instead of JSON
	File        string          // optional log file; stderr when empty
	Categories  map[string]bool // per-category toggles; missing means enabled
}

var (
	mu         sync.RWMutex
	base       *zap.Logger
	level      *zap.AtomicLevel // nil unless built by Initialize
	categories map[string]bool
	loggers    = make(map[Category]*zap.Logger)
)

// ParseLevel maps a level name to a zap level. Unknown names map to info.
func ParseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Initialize builds the base logger from opts and resets the category cache.
func Initialize(opts Options) error {
	var cfg zap.Config
	if opts.Development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	atom := zap.NewAtomicLevelAt(ParseLevel(opts.Level))
	cfg.Level = atom

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return fmt.Errorf("failed to create logs directory: %w", err)
		}
		cfg.OutputPaths = []string{opts.File}
		cfg.ErrorOutputPaths = []string{opts.File}
	}

	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	SetBase(logger, opts.Categories)
	mu.Lock()
	level = &atom
	mu.Unlock()
	Get(CategoryBoot).Debug("logging initialized",
		zap.String("level", opts.Level),
		zap.String("file", opts.File),
		zap.Int("category_filters", len(opts.Categories)))
	return nil
}

// SetBase installs an already built logger as the root of every category.
// A nil logger disables logging.
func SetBase(logger *zap.Logger, cats map[string]bool) {
	mu.Lock()
	defer mu.Unlock()
	base = logger
	level = nil
	categories = cats
	loggers = make(map[Category]*zap.Logger)
}

// SetLevel changes the level of a logger built by Initialize. It reports
// whether the level could be changed.
func SetLevel(l string) bool {
	mu.RLock()
	defer mu.RUnlock()
	if level == nil {
		return false
	}
	level.SetLevel(ParseLevel(l))
	return true
}

// Base returns the root logger, or a no-op logger before initialization.
func Base() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if base == nil {
		return zap.NewNop()
	}
	return base
}

// IsCategoryEnabled returns whether a specific category is enabled
func IsCategoryEnabled(category Category) bool {
	mu.RLock()
	defer mu.RUnlock()
	return categoryEnabledLocked(category)
}

func categoryEnabledLocked(category Category) bool {
	if base == nil {
		return false
	}
	if categories == nil {
		return true
	}
	enabled, exists := categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger if logging is not initialized or the category is disabled.
func Get(category Category) *zap.Logger {
	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()

	// Double-check after acquiring write lock
	if l, ok := loggers[category]; ok {
		return l
	}

	l := zap.NewNop()
	if categoryEnabledLocked(category) {
		l = base.Named(string(category))
	}
	loggers[category] = l
	return l
}

// Sync flushes the base logger.
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	if base == nil {
		return nil
	}
	return base.Sync()
}
