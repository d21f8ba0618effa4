package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/stasher/internal/shared"
	"github.com/desertthunder/stasher/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive playlist stasher.
//
// Logs go to a file because the program owns the terminal.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	logger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	r.logger = logger

	d, err := r.wire(ctx)
	if err != nil {
		return err
	}

	opts := r.stashDefaults()
	if cmd.IsSet("audio-only") {
		opts.AudioOnly = cmd.Bool("audio-only")
	}

	model := ui.NewModel(ctx, d.remote, r.orchestrator(d), opts)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
