package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/stasher/internal/models"
	"github.com/desertthunder/stasher/internal/shared"
)

// DownloadRepository keeps the append-only history of stashed files.
type DownloadRepository struct {
	db *sql.DB
}

// NewDownloadRepository creates a new DownloadRepository with the given database connection
func NewDownloadRepository(db *sql.DB) *DownloadRepository {
	return &DownloadRepository{db: db}
}

// RecordDownload appends a download record and flags every stored association of the video
// as downloaded with the new file hash. Prior records are never touched.
func (r *DownloadRepository) RecordDownload(videoID, path, fileHash string) (*models.DownloadRecord, error) {
	if videoID == "" || path == "" {
		return nil, fmt.Errorf("%w: video id and file path are required", shared.ErrInvalidArgument)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to begin transaction: %w", shared.ErrStorage, err)
	}
	defer tx.Rollback()

	ts := now()
	result, err := tx.Exec(
		"INSERT INTO downloads (video_id, file_path, file_hash, download_date) VALUES (?, ?, ?, ?)",
		videoID, path, fileHash, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to insert download: %w", shared.ErrStorage, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read download id: %w", shared.ErrStorage, err)
	}

	if _, err := tx.Exec("UPDATE videos SET downloaded = 1, file_hash = ? WHERE id = ?", fileHash, videoID); err != nil {
		return nil, fmt.Errorf("%w: failed to flag video downloaded: %w", shared.ErrStorage, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: failed to commit download: %w", shared.ErrStorage, err)
	}

	return &models.DownloadRecord{
		ID:           id,
		VideoID:      videoID,
		FilePath:     path,
		FileHash:     fileHash,
		DownloadedAt: ts,
	}, nil
}

// ExistingDownloads returns every download record of a video, oldest first.
func (r *DownloadRepository) ExistingDownloads(videoID string) ([]models.DownloadRecord, error) {
	query := `
		SELECT id, video_id, file_path, file_hash, download_date
		FROM downloads
		WHERE video_id = ?
		ORDER BY id
	`
	rows, err := r.db.Query(query, videoID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list downloads: %w", shared.ErrStorage, err)
	}
	defer rows.Close()

	records := []models.DownloadRecord{}
	for rows.Next() {
		var rec models.DownloadRecord
		if err := rows.Scan(&rec.ID, &rec.VideoID, &rec.FilePath, &rec.FileHash, &rec.DownloadedAt); err != nil {
			return nil, fmt.Errorf("%w: failed to scan download: %w", shared.ErrStorage, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to iterate downloads: %w", shared.ErrStorage, err)
	}
	return records, nil
}
