package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/stasher/internal/services"
	"github.com/desertthunder/stasher/internal/shared"
	"github.com/desertthunder/stasher/internal/tasks"
)

// Handler runs one command and renders its outcome as text.
type Handler func(ctx context.Context, params map[string]any) (string, error)

// Deps are the collaborators the built-in handlers need.
type Deps struct {
	Sync       *tasks.SyncService
	Reconciler *tasks.Reconciler
	Stasher    tasks.Stasher
	Downloads  tasks.DownloadLedger
	OutputPath string
	AudioOnly  bool
}

// NewHandlers builds the handler table for every [Command].
func NewHandlers(deps Deps) map[Command]Handler {
	return map[Command]Handler{
		UpdatePlaylist:     deps.updatePlaylist,
		UpdateAllPlaylists: deps.updateAllPlaylists,
		StashVideo:         deps.stashVideo,
		CheckPlaylistDelta: deps.checkPlaylistDelta,
	}
}

func (d Deps) updatePlaylist(ctx context.Context, params map[string]any) (string, error) {
	id := stringParam(params, "playlist_id")
	if id == "" {
		return "", fmt.Errorf("%w: playlist_id", shared.ErrMissingArgument)
	}

	result, err := d.Sync.RefreshAll(ctx, nil, id)
	if err != nil {
		return "", err
	}
	if result.Playlist == nil {
		return fmt.Sprintf("Playlist %s no longer exists.", id), nil
	}
	return strings.Join(result.Messages(), "\n"), nil
}

func (d Deps) updateAllPlaylists(ctx context.Context, _ map[string]any) (string, error) {
	bulk, err := d.Sync.RefreshMine(ctx, nil)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, res := range bulk.Results {
		for _, line := range res.Messages() {
			b.WriteString(line + "\n")
		}
	}
	for id, ferr := range bulk.Failed {
		fmt.Fprintf(&b, "Failed to update playlist %s: %v\n", id, ferr)
	}
	b.WriteString("All playlists for your account updated successfully.")
	return b.String(), nil
}

func (d Deps) stashVideo(ctx context.Context, params map[string]any) (string, error) {
	urls, err := StashTargets(params)
	if err != nil {
		return "", err
	}
	audio := boolParam(params, "audio_only", d.AudioOnly)

	lines := make([]string, 0, len(urls))
	for _, url := range urls {
		if err := ctx.Err(); err != nil {
			return strings.Join(lines, "\n"), err
		}

		videoID := services.VideoIDFromURL(url)
		if videoID != "" && d.Downloads != nil {
			downloaded, _, err := d.Downloads.DownloadStatus(videoID)
			if err != nil {
				return "", err
			}
			if downloaded {
				lines = append(lines, fmt.Sprintf("Video %s has already been stashed.", url))
				continue
			}
		}

		res, err := d.Stasher.Stash(ctx, services.StashRequest{
			VideoID:   videoID,
			URL:       url,
			OutputDir: d.OutputPath,
			AudioOnly: audio,
		})
		switch {
		case err != nil:
			return "", err
		case res.Outcome.Failed():
			lines = append(lines, fmt.Sprintf("Failed to stash video %s: %v", url, res.Err))
		default:
			lines = append(lines, "Successfully stashed video: "+url)
		}
	}
	return strings.Join(lines, "\n"), nil
}

func (d Deps) checkPlaylistDelta(ctx context.Context, params map[string]any) (string, error) {
	delta, err := d.Reconciler.Reconcile(ctx, nil)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d playlists: %d known, %d unknown.", len(delta.All), len(delta.Known), len(delta.Unknown))
	for _, p := range delta.Unknown {
		fmt.Fprintf(&b, "\n  • %s (%s)", p.Title, p.ID)
	}

	if boolParam(params, "save", true) {
		id, err := d.Reconciler.Persist(delta)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "\nSaved snapshot %d.", id)
	}
	return b.String(), nil
}
