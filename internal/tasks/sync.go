package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/stasher/internal/models"
	"github.com/desertthunder/stasher/internal/shared"
)

// SyncResult reports one playlist refresh.
type SyncResult struct {
	PlaylistID string
	// Playlist is nil when the playlist no longer exists remotely.
	Playlist        *models.Playlist
	PlaylistChanged bool
	ChangedVideoIDs []string
	Videos          []models.Video
}

// Messages renders the result as user-facing lines.
func (r *SyncResult) Messages() []string {
	lines := []string{}
	if r.PlaylistChanged {
		lines = append(lines, fmt.Sprintf("Playlist %s metadata has been updated.", r.PlaylistID))
	} else {
		lines = append(lines, fmt.Sprintf("No changes detected in playlist %s metadata.", r.PlaylistID))
	}

	if len(r.ChangedVideoIDs) > 0 {
		lines = append(lines, fmt.Sprintf("Updated %d videos in playlist %s:", len(r.ChangedVideoIDs), r.PlaylistID))
		for _, id := range r.ChangedVideoIDs {
			lines = append(lines, "  • "+id)
		}
	} else {
		lines = append(lines, fmt.Sprintf("No changes detected in videos for playlist %s.", r.PlaylistID))
	}

	return append(lines, fmt.Sprintf("Playlist %s update process completed.", r.PlaylistID))
}

// Changed reports whether anything about the playlist changed.
func (r *SyncResult) Changed() bool {
	return r.PlaylistChanged || len(r.ChangedVideoIDs) > 0
}

// BulkSyncResult reports a refresh of every playlist of the user.
type BulkSyncResult struct {
	Results []SyncResult
	Failed  map[string]error
}

// SyncService pulls playlist and video metadata into the store.
type SyncService struct {
	remote Remote
	store  SyncStore
	logger *log.Logger
}

// NewSyncService creates a new SyncService.
func NewSyncService(remote Remote, store SyncStore, logger *log.Logger) *SyncService {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &SyncService{remote: remote, store: store, logger: logger}
}

// RefreshPlaylistMetadata upserts the playlist's current metadata and reports whether it changed.
// A playlist missing remotely is a no-op.
func (s *SyncService) RefreshPlaylistMetadata(ctx context.Context, playlistID string) (bool, error) {
	p, err := s.fetchPlaylist(ctx, playlistID)
	if err != nil || p == nil {
		return false, err
	}
	_, changed, err := s.store.UpsertPlaylist(p)
	return changed, err
}

// RefreshPlaylistItems upserts every video of the playlist and returns the ids whose content changed.
func (s *SyncService) RefreshPlaylistItems(ctx context.Context, playlistID string) ([]string, error) {
	_, changed, err := s.syncItems(ctx, nil, playlistID)
	return changed, err
}

// RefreshAll refreshes metadata then items, and marks the playlist fetched.
func (s *SyncService) RefreshAll(ctx context.Context, progress chan<- ProgressUpdate, playlistID string) (*SyncResult, error) {
	sendProgress(progress, syncPlaylistUpdate(playlistID))

	p, err := s.fetchPlaylist(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	return s.refresh(ctx, progress, playlistID, p)
}

// refresh stores already fetched metadata p, which is nil for a vanished playlist, then syncs
// the items.
func (s *SyncService) refresh(ctx context.Context, progress chan<- ProgressUpdate, playlistID string, p *models.Playlist) (*SyncResult, error) {
	logger := s.logger.With("playlist", playlistID)
	result := &SyncResult{PlaylistID: playlistID, ChangedVideoIDs: []string{}, Videos: []models.Video{}}

	var err error
	if p != nil {
		if _, result.PlaylistChanged, err = s.store.UpsertPlaylist(p); err != nil {
			return nil, err
		}
		result.Playlist = p
	}

	videos, changed, err := s.syncItems(ctx, progress, playlistID)
	if err != nil {
		return nil, err
	}
	result.Videos = videos
	result.ChangedVideoIDs = changed

	if err := s.store.MarkPlaylistFetched(playlistID); err != nil {
		return nil, err
	}

	logger.Info("playlist refreshed", "changed", result.PlaylistChanged, "videos", len(videos), "changed_videos", len(changed))
	return result, nil
}

// RefreshMine refreshes every playlist owned by the user. Quota exhaustion stops the run; any
// other per-playlist failure is recorded and the run continues.
func (s *SyncService) RefreshMine(ctx context.Context, progress chan<- ProgressUpdate) (*BulkSyncResult, error) {
	playlists, err := s.remote.MyPlaylists(ctx)
	if err != nil {
		return nil, err
	}

	result := &BulkSyncResult{Results: []SyncResult{}, Failed: map[string]error{}}
	for _, p := range playlists {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		res, err := s.RefreshAll(ctx, progress, p.ID)
		if errors.Is(err, shared.ErrQuotaExhausted) || errors.Is(err, shared.ErrStorage) {
			return result, err
		}
		if err != nil {
			s.logger.Error("failed to refresh playlist", "playlist", p.ID, "error", err)
			result.Failed[p.ID] = err
			continue
		}
		result.Results = append(result.Results, *res)
	}
	return result, nil
}

func (s *SyncService) fetchPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	p, err := s.remote.PlaylistDetails(ctx, playlistID)
	if errors.Is(err, shared.ErrEntityNotFound) {
		s.logger.Warn("playlist not found", "playlist", playlistID)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch playlist %s: %w", playlistID, err)
	}
	return p, nil
}

// syncItems walks the playlist in order. Videos that vanished between listing and detail
// fetch are skipped.
func (s *SyncService) syncItems(ctx context.Context, progress chan<- ProgressUpdate, playlistID string) ([]models.Video, []string, error) {
	videos := []models.Video{}
	changed := []string{}

	ids, err := s.remote.PlaylistVideoIDs(ctx, playlistID)
	if errors.Is(err, shared.ErrEntityNotFound) {
		return videos, changed, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list playlist %s: %w", playlistID, err)
	}

	for i, id := range ids {
		v, err := s.remote.VideoDetails(ctx, id)
		if errors.Is(err, shared.ErrEntityNotFound) {
			s.logger.Warn("video not found, skipping", "video", id, "playlist", playlistID)
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to fetch video %s: %w", id, err)
		}

		v.PlaylistID = playlistID
		_, didChange, err := s.store.UpsertVideo(v)
		if err != nil {
			return nil, nil, err
		}
		if didChange {
			changed = append(changed, id)
		}
		videos = append(videos, *v)
		sendProgress(progress, syncVideoUpdate(i+1, len(ids), v, didChange))
	}
	return videos, changed, nil
}
