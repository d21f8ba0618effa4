package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/stasher/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	app := &cli.Command{
		Name:     "stasher",
		Usage:    "Mirror YouTube playlist metadata locally and stash their media",
		Version:  "0.3.0",
		Flags:    runner.globalFlags(),
		Before:   runner.Before,
		After:    runner.After,
		Commands: runner.register(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		switch {
		case errors.Is(err, shared.ErrNotImplemented):
			logger.Warn("not implemented")
			os.Exit(0)
		case errors.Is(err, context.Canceled):
			logger.Warn("interrupted")
			os.Exit(130)
		case errors.Is(err, shared.ErrQuotaExhausted):
			logger.Error("daily API quota exhausted; try again after it resets", "error", err)
		case errors.Is(err, shared.ErrNotAuthenticated):
			logger.Error("not authenticated; run 'stasher auth login' first", "error", err)
		default:
			logger.Error("application error", "error", err)
		}
		os.Exit(1)
	}
}
