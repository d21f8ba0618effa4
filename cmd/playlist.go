package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/stasher/internal/formatter"
	"github.com/desertthunder/stasher/internal/models"
	"github.com/desertthunder/stasher/internal/repositories"
	"github.com/desertthunder/stasher/internal/shared"
	"github.com/desertthunder/stasher/internal/tasks"
	"github.com/urfave/cli/v3"
)

// PlaylistUpdate refreshes one playlist and its videos in the store.
func (r *Runner) PlaylistUpdate(ctx context.Context, cmd *cli.Command) error {
	playlistID := strings.TrimSpace(cmd.String("id"))
	if playlistID == "" {
		return fmt.Errorf("%w: playlist id is required", shared.ErrMissingArgument)
	}

	d, err := r.wire(ctx)
	if err != nil {
		return err
	}

	r.logger.Info("updating playlist", "id", playlistID)
	result, err := d.sync.RefreshAll(ctx, nil, playlistID)
	if err != nil {
		return fmt.Errorf("failed to update playlist %s: %w", playlistID, err)
	}

	if result.Playlist == nil {
		return r.writePlain("Playlist %s no longer exists.\n", playlistID)
	}
	return r.writePlain("%s\n", strings.Join(result.Messages(), "\n"))
}

// PlaylistUpdateAll refreshes every playlist of the authenticated user.
func (r *Runner) PlaylistUpdateAll(ctx context.Context, cmd *cli.Command) error {
	d, err := r.wire(ctx)
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go r.printProgress(progress, done)

	bulk, err := d.sync.RefreshMine(ctx, progress)
	close(progress)
	<-done
	if err != nil {
		return fmt.Errorf("failed to update playlists: %w", err)
	}

	r.writePlainHeader("Playlist Update")
	for _, res := range bulk.Results {
		r.writePlain("%s\n", strings.Join(res.Messages(), "\n"))
	}
	for id, ferr := range bulk.Failed {
		r.writePlain("Failed to update playlist %s: %v\n", id, ferr)
	}

	if len(bulk.Failed) > 0 {
		return r.writePlainln("%d of %d playlists failed to update.", len(bulk.Failed), len(bulk.Results)+len(bulk.Failed))
	}
	return r.writePlainln("All playlists for your account updated successfully.")
}

// PlaylistDelta reconciles remote playlists against the store and prints the partition.
func (r *Runner) PlaylistDelta(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	d, err := r.wire(ctx)
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go r.printDebug(progress, done)

	delta, err := d.reconciler.Reconcile(ctx, progress)
	close(progress)
	<-done
	if err != nil {
		return fmt.Errorf("failed to check playlist delta: %w", err)
	}

	out, err := formatter.ExportDelta(delta.Payload(), format, cmd.Bool("verbose"))
	if err != nil {
		return err
	}
	if err := r.writePlain("%s", out); err != nil {
		return err
	}

	if cmd.Bool("save") {
		id, err := d.reconciler.Persist(delta)
		if err != nil {
			return fmt.Errorf("failed to save snapshot: %w", err)
		}
		r.logger.Info("delta snapshot saved", "id", id)
		if format == formatter.FormatText {
			return r.writePlainln("Saved snapshot %d.", id)
		}
	}
	return nil
}

// PlaylistSnapshot shows a saved delta snapshot, or lists recent ones with --list.
func (r *Runner) PlaylistSnapshot(ctx context.Context, cmd *cli.Command) error {
	store, err := r.openStore()
	if err != nil {
		return err
	}

	if cmd.Bool("list") {
		return r.listSnapshots(store, int(cmd.Int("limit")))
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	selector := cmd.StringArg("selector")
	if selector == "" {
		selector = "latest"
	}

	snap, err := store.LoadSnapshot(selector)
	if err != nil {
		return err
	}

	if format == formatter.FormatJSON {
		return r.writeJSON(snap, true)
	}

	out, err := formatter.ExportDelta(snap.Payload, format, true)
	if err != nil {
		return err
	}
	if format == formatter.FormatText {
		r.writePlain("Snapshot %d taken %s (hash %s)\n\n", snap.ID, snap.Timestamp.Local().Format("2006-01-02 15:04:05"), snap.ContentHash)
	}
	return r.writePlain("%s", out)
}

func (r *Runner) listSnapshots(store *repositories.Store, limit int) error {
	snaps, err := store.ListSnapshots(limit)
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		return r.writePlain("No snapshots saved yet.\n")
	}

	r.writePlainHeader("Delta Snapshots")
	for _, s := range snaps {
		r.writePlain("%4d  %s  %d playlists, %d unknown\n",
			s.ID, s.Timestamp.Local().Format("2006-01-02 15:04:05"), len(s.Payload.All), len(s.Payload.Unknown))
	}
	return nil
}

// PlaylistExport renders a stored playlist and its videos.
//
// With --output, CSV writes {output}_videos.csv and {output}_metadata.json, Markdown writes
// {output}/README.md, and text and JSON write the file {output}.
func (r *Runner) PlaylistExport(ctx context.Context, cmd *cli.Command) error {
	playlistID := strings.TrimSpace(cmd.String("id"))
	if playlistID == "" {
		return fmt.Errorf("%w: playlist id is required", shared.ErrMissingArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	store, err := r.openStore()
	if err != nil {
		return err
	}

	export, err := loadExport(store, playlistID)
	if err != nil {
		return err
	}

	output := cmd.String("output")
	if output == "" {
		data, err := formatter.ExportPlaylist(export, format)
		if err != nil {
			return err
		}
		return r.writePlain("%s", data)
	}

	var written []string
	switch format {
	case formatter.FormatCSV:
		res, err := formatter.WriteCSVExport(export, output)
		if err != nil {
			return err
		}
		written = append(written, res.VideosFile, res.MetadataFile)
	case formatter.FormatMarkdown:
		path, err := formatter.WriteMarkdownExport(export, output)
		if err != nil {
			return err
		}
		written = append(written, path)
	case formatter.FormatText:
		path, err := formatter.WriteTextExport(export, output)
		if err != nil {
			return err
		}
		written = append(written, path)
	default:
		data, err := formatter.ExportPlaylist(export, format)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		if err := os.WriteFile(output, data, 0o644); err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
		written = append(written, output)
	}

	r.logger.Info("playlist exported", "id", playlistID, "format", format, "videos", len(export.Videos))
	for _, path := range written {
		r.writePlain("✓ Wrote %s\n", path)
	}
	return nil
}

func loadExport(store *repositories.Store, playlistID string) (*models.PlaylistExport, error) {
	playlist, err := store.GetPlaylist(playlistID)
	if err != nil {
		return nil, err
	}
	videos, err := store.ListVideos(playlistID)
	if err != nil {
		return nil, err
	}
	return &models.PlaylistExport{Playlist: *playlist, Videos: videos}, nil
}

// printDebug drains progress into the debug log.
func (r *Runner) printDebug(progress <-chan tasks.ProgressUpdate, done chan<- struct{}) {
	defer close(done)
	for u := range progress {
		r.logger.Debug(u.Message, "phase", u.Phase, "step", u.Step, "total", u.Total)
	}
}
