package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"neptune/internal/config"
	"neptune/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	verbose    bool
	configPath string
	kernelPath string

	// Root flags
	useTUI   bool
	skipBoot bool

	// Loaded in PersistentPreRunE
	cfg *config.Config

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "neptune",
	Short: "Neptune OS - a toy kernel with a shell and a calculator",
	Long: `Neptune OS boots a toy kernel, checks its process limits and drops
into a command shell. The shell's built-in calculator evaluates arithmetic
expressions with hex, octal and binary literals, round() and ceil().

Run without arguments to boot and start the shell.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}

		// The interactive shell owns the terminal; only log there when asked to.
		if cmd.CalledAs() == "neptune" && !verbose && cfg.Logging.File == "" {
			logger = zap.NewNop()
			return nil
		}

		if err := logging.Initialize(cfg.Logging.Options(verbose)); err != nil {
			return err
		}
		logger = logging.Base()
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runNeptune,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "neptune.yaml", "Config file (YAML, or JSON by extension)")
	rootCmd.PersistentFlags().StringVar(&kernelPath, "kernel-config", filepath.Join("config", "kernel.json"), "Kernel limits file checked at boot")

	// Root flags
	rootCmd.Flags().BoolVar(&useTUI, "tui", false, "Run the shell full screen")
	rootCmd.Flags().BoolVar(&skipBoot, "skip-boot", false, "Skip the boot prompt and use the configured limits")

	// Calc flags
	calcCmd.Flags().BoolVar(&trace, "trace", false, "Draw the operator and operand stacks after every step")
	calcCmd.Flags().IntVar(&threads, "threads", 0, "Expressions evaluated in parallel (default: max threads per process)")

	// Config flags
	configInitCmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")

	// Config subcommands
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)

	// Add commands to root
	rootCmd.AddCommand(calcCmd)
	rootCmd.AddCommand(tokensCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// joinArgs joins command arguments with spaces
func joinArgs(args []string) string {
	return strings.Join(args, " ")
}
