package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"neptune/internal/config"
	"neptune/internal/history"
	"neptune/internal/kernel"
	"neptune/internal/logging"
	"neptune/internal/shell"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// runNeptune boots the kernel and runs the shell until shutdown.
func runNeptune(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	limits := cfg.Kernel
	if !skipBoot {
		res, err := kernel.Boot(ctx, in, out, kernelPath)
		if err != nil {
			return err
		}
		if !res.Edited {
			limits = res.Limits
		}
	}
	if err := limits.Validate(); err != nil {
		return err
	}
	k := kernel.New(limits)

	var store *history.Store
	if cfg.Shell.HistoryPath != "" {
		var err error
		store, err = history.Open(cfg.Shell.HistoryPath)
		if err != nil {
			logger.Warn("history disabled", zap.String("path", cfg.Shell.HistoryPath), zap.Error(err))
			store = nil
		} else {
			defer store.Close()
		}
	}

	stopWatch := watchConfig(ctx)
	defer stopWatch()

	shellOut := out
	if useTUI {
		shellOut = io.Discard
	}
	sh := shell.New(shell.Options{
		Kernel:      k,
		History:     store,
		HistorySize: cfg.Shell.HistorySize,
		Prompt:      cfg.Shell.Prompt,
		Out:         shellOut,
	})
	if err := sh.Start(ctx); err != nil {
		return err
	}
	defer sh.Close()

	var err error
	if useTUI {
		err = shell.RunTUI(ctx, sh, shell.NewStyles(shell.ThemeByName(cfg.Shell.Theme)))
	} else {
		err = sh.RunLoop(ctx, in)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// watchConfig applies log level changes made to the config file while the
// shell runs. The returned func stops the watcher and waits for it.
func watchConfig(ctx context.Context) func() {
	if _, err := os.Stat(configPath); err != nil {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		err := config.Watch(ctx, configPath, func(c *config.Config, err error) {
			if err != nil {
				return
			}
			if logging.SetLevel(c.Logging.Level) {
				logger.Info("log level changed", zap.String("level", c.Logging.Level))
			}
		})
		if err != nil {
			logger.Warn("config watcher failed", zap.Error(err))
		}
	}()
	return func() {
		cancel()
		<-done
	}
}
