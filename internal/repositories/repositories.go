// package repositories provides the SQLite-backed change-detection store.
//
// Each repository owns one table. [Store] composes them and adds the cross-table lookups.
package repositories

import (
	"crypto/md5"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/desertthunder/stasher/internal/models"
	"github.com/desertthunder/stasher/internal/shared"
)

// Store is the change-detection store used by the sync and stash tasks.
//
// It is safe for sequential reuse across commands; concurrent writers from
// other processes are not coordinated.
type Store struct {
	*PlaylistRepository
	*VideoRepository
	*DownloadRepository
	*SnapshotRepository
	db *sql.DB
}

// NewStore creates a Store over an already migrated database.
func NewStore(db *sql.DB) *Store {
	return &Store{
		PlaylistRepository: NewPlaylistRepository(db),
		VideoRepository:    NewVideoRepository(db),
		DownloadRepository: NewDownloadRepository(db),
		SnapshotRepository: NewSnapshotRepository(db),
		db:                 db,
	}
}

// EntityHash returns the stored content hash of a playlist or video.
//
// For videos the most recently updated association wins. found is false when no row exists.
func (s *Store) EntityHash(kind models.EntityKind, id string) (hash string, found bool, err error) {
	switch kind {
	case models.EntityPlaylist:
		return s.PlaylistHash(id)
	case models.EntityVideo:
		return s.LatestVideoHash(id)
	default:
		return "", false, fmt.Errorf("%w: unknown entity kind %q", shared.ErrInvalidArgument, kind)
	}
}

// DownloadStatus reports whether a video has been stashed and the hash of its last file.
//
// A download record or a downloaded video row under any playlist both count.
func (s *Store) DownloadStatus(videoID string) (downloaded bool, fileHash string, err error) {
	query := `
		SELECT
			EXISTS(SELECT 1 FROM downloads WHERE video_id = ?)
				OR EXISTS(SELECT 1 FROM videos WHERE id = ? AND downloaded = 1),
			COALESCE(
				(SELECT file_hash FROM downloads WHERE video_id = ? ORDER BY id DESC LIMIT 1),
				(SELECT file_hash FROM videos WHERE id = ? AND file_hash IS NOT NULL ORDER BY last_updated DESC LIMIT 1),
				''
			)
	`
	if err := s.db.QueryRow(query, videoID, videoID, videoID, videoID).Scan(&downloaded, &fileHash); err != nil {
		return false, "", fmt.Errorf("%w: failed to read download status: %w", shared.ErrStorage, err)
	}
	return downloaded, fileHash, nil
}

// contentHash digests the canonical JSON encoding of fields.
//
// encoding/json writes map keys in sorted order, so the digest is independent of field order.
func contentHash(fields map[string]any) (string, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("failed to encode hash fields: %w", err)
	}
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:]), nil
}

func playlistFields(p *models.Playlist) map[string]any {
	return map[string]any{
		"title":         p.Title,
		"description":   p.Description,
		"channel_id":    p.ChannelID,
		"channel_title": p.ChannelTitle,
		"item_count":    p.ItemCount,
	}
}

func videoFields(v *models.Video) map[string]any {
	published := ""
	if !v.PublishedAt.IsZero() {
		published = v.PublishedAt.UTC().Format(time.RFC3339)
	}
	return map[string]any{
		"playlist_id":   v.PlaylistID,
		"title":         v.Title,
		"description":   v.Description,
		"published_at":  published,
		"channel_id":    v.ChannelID,
		"channel_title": v.ChannelTitle,
		"view_count":    v.ViewCount,
		"like_count":    v.LikeCount,
		"comment_count": v.CommentCount,
		"duration":      v.Duration,
	}
}

// now is the timestamp written into last_updated and friends.
func now() time.Time {
	return time.Now().UTC()
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
