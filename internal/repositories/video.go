package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/stasher/internal/models"
	"github.com/desertthunder/stasher/internal/shared"
)

// VideoRepository persists per-playlist video metadata keyed by (video id, playlist id).
type VideoRepository struct {
	db *sql.DB
}

// NewVideoRepository creates a new VideoRepository with the given database connection
func NewVideoRepository(db *sql.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

// UpsertVideo hashes the video's meaningful fields and writes the (video, playlist) row.
//
// The downloaded flag and file hash are owned by [DownloadRepository.RecordDownload] and
// survive metadata updates.
func (r *VideoRepository) UpsertVideo(v *models.Video) (hash string, changed bool, err error) {
	hash, err = contentHash(videoFields(v))
	if err != nil {
		return "", false, err
	}

	tx, err := r.db.Begin()
	if err != nil {
		return "", false, fmt.Errorf("%w: failed to begin transaction: %w", shared.ErrStorage, err)
	}
	defer tx.Rollback()

	var prior string
	err = tx.QueryRow("SELECT content_hash FROM videos WHERE id = ? AND playlist_id = ?", v.ID, v.PlaylistID).Scan(&prior)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		changed = true
	case err != nil:
		return "", false, fmt.Errorf("%w: failed to read video hash: %w", shared.ErrStorage, err)
	default:
		changed = prior != hash
	}

	ts := now()
	query := `
		INSERT INTO videos (
			id, playlist_id, title, description, published_at, channel_id, channel_title,
			view_count, like_count, comment_count, duration, last_updated, content_hash
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id, playlist_id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			published_at = excluded.published_at,
			channel_id = excluded.channel_id,
			channel_title = excluded.channel_title,
			view_count = excluded.view_count,
			like_count = excluded.like_count,
			comment_count = excluded.comment_count,
			duration = excluded.duration,
			last_updated = excluded.last_updated,
			content_hash = excluded.content_hash
	`
	_, err = tx.Exec(query,
		v.ID,
		v.PlaylistID,
		v.Title,
		v.Description,
		nullTime(v.PublishedAt),
		v.ChannelID,
		v.ChannelTitle,
		v.ViewCount,
		v.LikeCount,
		v.CommentCount,
		v.Duration,
		ts,
		hash,
	)
	if err != nil {
		return "", false, fmt.Errorf("%w: failed to upsert video: %w", shared.ErrStorage, err)
	}

	if err := tx.Commit(); err != nil {
		return "", false, fmt.Errorf("%w: failed to commit video: %w", shared.ErrStorage, err)
	}

	v.ContentHash = hash
	v.LastUpdated = ts
	return hash, changed, nil
}

// VideoHash returns the stored content hash for one (video, playlist) association.
func (r *VideoRepository) VideoHash(videoID, playlistID string) (string, bool, error) {
	var hash string
	err := r.db.QueryRow("SELECT content_hash FROM videos WHERE id = ? AND playlist_id = ?", videoID, playlistID).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: failed to read video hash: %w", shared.ErrStorage, err)
	}
	return hash, true, nil
}

// LatestVideoHash returns the content hash of the most recently updated association of a video.
func (r *VideoRepository) LatestVideoHash(videoID string) (string, bool, error) {
	var hash string
	err := r.db.QueryRow("SELECT content_hash FROM videos WHERE id = ? ORDER BY last_updated DESC LIMIT 1", videoID).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: failed to read video hash: %w", shared.ErrStorage, err)
	}
	return hash, true, nil
}

// ListVideos returns the stored videos of a playlist ordered by publish date.
func (r *VideoRepository) ListVideos(playlistID string) ([]models.Video, error) {
	query := `
		SELECT id, playlist_id, title, description, published_at, channel_id, channel_title,
			view_count, like_count, comment_count, duration, last_updated, content_hash, downloaded, file_hash
		FROM videos
		WHERE playlist_id = ?
		ORDER BY published_at, id
	`
	rows, err := r.db.Query(query, playlistID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list videos: %w", shared.ErrStorage, err)
	}
	defer rows.Close()

	videos := []models.Video{}
	for rows.Next() {
		v, err := r.scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan video: %w", shared.ErrStorage, err)
		}
		videos = append(videos, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to iterate videos: %w", shared.ErrStorage, err)
	}
	return videos, nil
}

func (r *VideoRepository) scanVideo(rows *sql.Rows) (*models.Video, error) {
	var v models.Video
	var published sql.NullTime
	var fileHash sql.NullString

	err := rows.Scan(
		&v.ID,
		&v.PlaylistID,
		&v.Title,
		&v.Description,
		&published,
		&v.ChannelID,
		&v.ChannelTitle,
		&v.ViewCount,
		&v.LikeCount,
		&v.CommentCount,
		&v.Duration,
		&v.LastUpdated,
		&v.ContentHash,
		&v.Downloaded,
		&fileHash,
	)
	if err != nil {
		return nil, err
	}

	if published.Valid {
		v.PublishedAt = published.Time
	}
	v.FileHash = fileHash.String
	return &v, nil
}
