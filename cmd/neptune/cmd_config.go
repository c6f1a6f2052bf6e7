package main

import (
	"fmt"
	"os"

	"neptune/internal/config"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var force bool

// configCmd groups configuration commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create configuration files",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config and kernel limits",
	RunE:  runConfigInit,
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if force || !exists(configPath) {
		if err := config.DefaultConfig().Save(configPath); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %s\n", configPath)
	} else {
		fmt.Fprintf(out, "Kept %s (use --force to overwrite)\n", configPath)
	}

	if force || !exists(kernelPath) {
		if err := config.SaveKernel(kernelPath, config.DefaultKernelLimits()); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %s\n", kernelPath)
	} else {
		fmt.Fprintf(out, "Kept %s (use --force to overwrite)\n", kernelPath)
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
