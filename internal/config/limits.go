package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrMissingLimit is returned by LoadKernel when a kernel limit is absent or
// not a number.
var ErrMissingLimit = errors.New("kernel limit missing")

// KernelLimits enforces the kernel's process table sizes.
type KernelLimits struct {
	MaxProcesses         int `yaml:"max_processes" json:"max-processes"`                     // Process table size, the shell included
	MaxThreadsPerProcess int `yaml:"max_threads_per_process" json:"max-threads-per-process"` // Concurrent goroutines per process
}

// DefaultKernelLimits returns the limits used when the kernel is configured
// interactively.
func DefaultKernelLimits() KernelLimits {
	return KernelLimits{
		MaxProcesses:         16,
		MaxThreadsPerProcess: 4,
	}
}

// Validate checks that kernel limits are within acceptable ranges.
func (k KernelLimits) Validate() error {
	if k.MaxProcesses < 1 {
		return fmt.Errorf("max-processes must be >= 1")
	}
	if k.MaxThreadsPerProcess < 1 {
		return fmt.Errorf("max-threads-per-process must be >= 1")
	}
	return nil
}

// LoadKernel reads a kernel.json file. Unlike Load, a missing file or a
// missing key is an error.
func LoadKernel(path string) (KernelLimits, error) {
	var limits KernelLimits

	data, err := os.ReadFile(path)
	if err != nil {
		return limits, fmt.Errorf("failed to read kernel config: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return limits, fmt.Errorf("failed to parse kernel config: %w", err)
	}

	if limits.MaxProcesses, err = limit(raw, "max-processes"); err != nil {
		return limits, err
	}
	if limits.MaxThreadsPerProcess, err = limit(raw, "max-threads-per-process"); err != nil {
		return limits, err
	}
	return limits, nil
}

// limit extracts one numeric key. Fractions are truncated.
func limit(raw map[string]json.RawMessage, key string) (int, error) {
	msg, ok := raw[key]
	if !ok {
		return 0, fmt.Errorf("%s is not defined: %w", key, ErrMissingLimit)
	}
	var n float64
	if err := json.Unmarshal(msg, &n); err != nil {
		return 0, fmt.Errorf("%s is not a number: %w", key, ErrMissingLimit)
	}
	return int(n), nil
}

// SaveKernel writes limits as a kernel.json file.
func SaveKernel(path string, limits KernelLimits) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(limits, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal kernel config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write kernel config: %w", err)
	}
	return nil
}
