package tasks

import (
	"context"

	"github.com/desertthunder/stasher/internal/models"
	"github.com/desertthunder/stasher/internal/services"
)

// Remote is the slice of the YouTube API the tasks depend on. [services.Client] implements it.
type Remote interface {
	PlaylistDetails(ctx context.Context, playlistID string) (*models.Playlist, error)
	PlaylistVideoIDs(ctx context.Context, playlistID string) ([]string, error)
	VideoDetails(ctx context.Context, videoID string) (*models.Video, error)
	MyChannelIDs(ctx context.Context) ([]string, error)
	ChannelPlaylists(ctx context.Context, channelID string) ([]models.Playlist, error)
	MyPlaylists(ctx context.Context) ([]models.Playlist, error)
}

// SyncStore persists synced metadata and reports content changes.
type SyncStore interface {
	UpsertPlaylist(p *models.Playlist) (string, bool, error)
	UpsertVideo(v *models.Video) (string, bool, error)
	MarkPlaylistFetched(playlistID string) error
}

// DeltaStore lists locally known playlists and saves reconciliation snapshots.
type DeltaStore interface {
	ListKnownPlaylists() ([]models.PlaylistRef, error)
	SaveDeltaSnapshot(payload models.DeltaPayload) (int64, error)
}

// DownloadLedger answers whether a video has been stashed before.
type DownloadLedger interface {
	DownloadStatus(videoID string) (bool, string, error)
	ExistingDownloads(videoID string) ([]models.DownloadRecord, error)
}

// Stasher downloads and records a single video. [services.MediaStasher] implements it.
type Stasher interface {
	Stash(ctx context.Context, req services.StashRequest) (services.StashResult, error)
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
