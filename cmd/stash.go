package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/stasher/internal/agent"
	"github.com/desertthunder/stasher/internal/shared"
	"github.com/desertthunder/stasher/internal/tasks"
	"github.com/desertthunder/stasher/internal/ui"
	"github.com/urfave/cli/v3"
)

// StashPlaylist syncs a playlist, shows the stash plan, and downloads the missing videos in
// paced batches once confirmed.
func (r *Runner) StashPlaylist(ctx context.Context, cmd *cli.Command) error {
	opts := r.stashOptions(cmd)
	opts.PlaylistID = cmd.String("id")
	if opts.PlaylistID == "" {
		return fmt.Errorf("%w: playlist id is required", shared.ErrMissingArgument)
	}

	d, err := r.wire(ctx)
	if err != nil {
		return err
	}

	skipPrompt := cmd.Bool("yes")
	orchestrator := r.orchestrator(d, tasks.WithConfirmer(tasks.ConfirmFunc(
		func(ctx context.Context, plan *tasks.StashPlan) (bool, error) {
			r.writePlainln("%s", ui.RenderPlan(plan))
			if skipPrompt {
				return true, nil
			}
			return r.prompt(ctx, "Do you want to proceed with stashing?", false)
		},
	)))

	progress := make(chan tasks.ProgressUpdate, 64)
	done := make(chan struct{})
	go r.printProgress(progress, done)

	result, err := orchestrator.Run(ctx, progress, opts)
	close(progress)
	<-done

	if err != nil {
		if tasks.IsAborted(err) && result != nil {
			r.writePlainln("Stashing interrupted.")
			r.writePlain("%s\n", ui.RenderReport(result.Report))
		}
		return err
	}

	switch {
	case result.State == tasks.StateAborted:
		return r.writePlainln("Stashing cancelled.")
	case result.Plan != nil && len(result.Plan.ToDownload) == 0:
		return r.writePlainln("All videos in this playlist have already been stashed.")
	}

	r.writePlainln("✓ Playlist stashing completed.")
	return r.writePlain("%s\n", ui.RenderReport(result.Report))
}

// stashOptions layers command flags over the [stash] config section.
func (r *Runner) stashOptions(cmd *cli.Command) tasks.StashOptions {
	opts := r.stashDefaults()
	if out := cmd.String("output"); out != "" {
		opts.OutputPath = out
	}
	if cmd.IsSet("audio-only") {
		opts.AudioOnly = cmd.Bool("audio-only")
	}
	if cmd.IsSet("batch-size") {
		opts.BatchSize = int(cmd.Int("batch-size"))
	}
	if cmd.IsSet("batch-delay") {
		opts.BatchDelay = time.Duration(cmd.Int("batch-delay")) * time.Second
	}
	if cmd.IsSet("summary-interval") {
		opts.SummaryInterval = time.Duration(cmd.Int("summary-interval")) * time.Second
	}
	if cmd.IsSet("concurrency") {
		opts.Concurrency = int(cmd.Int("concurrency"))
	}
	if cmd.IsSet("folder") {
		opts.UsePlaylistFolder = cmd.Bool("folder")
	}
	return opts
}

// StashVideo downloads individual videos given as watch URLs, short links or bare IDs.
//
// Videos with a download record are reported and skipped.
func (r *Runner) StashVideo(ctx context.Context, cmd *cli.Command) error {
	args := []string{}
	for _, a := range cmd.Args().Slice() {
		if a = strings.TrimSpace(a); a != "" {
			args = append(args, a)
		}
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: at least one video URL or ID is required", shared.ErrMissingArgument)
	}

	store, err := r.openStore()
	if err != nil {
		return err
	}

	opts := r.stashOptions(cmd)
	handlers := agent.NewHandlers(agent.Deps{
		Stasher:    r.mediaStasher(store),
		Downloads:  store,
		OutputPath: opts.OutputPath,
		AudioOnly:  opts.AudioOnly,
	})

	targets := make([]any, 0, len(args))
	for _, a := range args {
		targets = append(targets, a)
	}

	msg, err := handlers[agent.StashVideo](ctx, map[string]any{"videos": targets})
	if msg != "" {
		r.writePlain("%s\n", msg)
	}
	return err
}
