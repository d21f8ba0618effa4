package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/stasher/internal/models"
	"github.com/desertthunder/stasher/internal/shared"
)

// PlaylistRepository persists playlist metadata keyed by the remote playlist id.
type PlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// UpsertPlaylist hashes the playlist's meaningful fields, compares against the stored hash and
// writes the row with fresh last_updated/last_fetched timestamps.
//
// changed is true when no prior row existed or the hash differs.
func (r *PlaylistRepository) UpsertPlaylist(p *models.Playlist) (hash string, changed bool, err error) {
	hash, err = contentHash(playlistFields(p))
	if err != nil {
		return "", false, err
	}

	tx, err := r.db.Begin()
	if err != nil {
		return "", false, fmt.Errorf("%w: failed to begin transaction: %w", shared.ErrStorage, err)
	}
	defer tx.Rollback()

	var prior string
	err = tx.QueryRow("SELECT content_hash FROM playlists WHERE id = ?", p.ID).Scan(&prior)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		changed = true
	case err != nil:
		return "", false, fmt.Errorf("%w: failed to read playlist hash: %w", shared.ErrStorage, err)
	default:
		changed = prior != hash
	}

	ts := now()
	query := `
		INSERT INTO playlists (id, title, description, channel_id, channel_title, item_count, last_updated, last_fetched, content_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			channel_id = excluded.channel_id,
			channel_title = excluded.channel_title,
			item_count = excluded.item_count,
			last_updated = excluded.last_updated,
			last_fetched = excluded.last_fetched,
			content_hash = excluded.content_hash
	`
	_, err = tx.Exec(query, p.ID, p.Title, p.Description, p.ChannelID, p.ChannelTitle, p.ItemCount, ts, ts, hash)
	if err != nil {
		return "", false, fmt.Errorf("%w: failed to upsert playlist: %w", shared.ErrStorage, err)
	}

	if err := tx.Commit(); err != nil {
		return "", false, fmt.Errorf("%w: failed to commit playlist: %w", shared.ErrStorage, err)
	}

	p.ContentHash = hash
	p.LastUpdated = ts
	p.LastFetched = ts
	return hash, changed, nil
}

// PlaylistHash returns the stored content hash for a playlist.
func (r *PlaylistRepository) PlaylistHash(id string) (string, bool, error) {
	var hash string
	err := r.db.QueryRow("SELECT content_hash FROM playlists WHERE id = ?", id).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: failed to read playlist hash: %w", shared.ErrStorage, err)
	}
	return hash, true, nil
}

// MarkPlaylistFetched touches last_fetched only. Unknown ids are ignored.
func (r *PlaylistRepository) MarkPlaylistFetched(id string) error {
	if _, err := r.db.Exec("UPDATE playlists SET last_fetched = ? WHERE id = ?", now(), id); err != nil {
		return fmt.Errorf("%w: failed to mark playlist fetched: %w", shared.ErrStorage, err)
	}
	return nil
}

// GetPlaylist retrieves a stored playlist by id.
func (r *PlaylistRepository) GetPlaylist(id string) (*models.Playlist, error) {
	query := `
		SELECT id, title, description, channel_id, channel_title, item_count, last_updated, last_fetched, content_hash
		FROM playlists
		WHERE id = ?
	`
	p, err := r.scanPlaylist(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get playlist: %w", shared.ErrStorage, err)
	}
	return p, nil
}

// ListKnownPlaylists returns every locally stored playlist ordered by title.
func (r *PlaylistRepository) ListKnownPlaylists() ([]models.PlaylistRef, error) {
	rows, err := r.db.Query("SELECT id, title, description FROM playlists ORDER BY title, id")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list playlists: %w", shared.ErrStorage, err)
	}
	defer rows.Close()

	refs := []models.PlaylistRef{}
	for rows.Next() {
		var ref models.PlaylistRef
		if err := rows.Scan(&ref.ID, &ref.Title, &ref.Description); err != nil {
			return nil, fmt.Errorf("%w: failed to scan playlist: %w", shared.ErrStorage, err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to iterate playlists: %w", shared.ErrStorage, err)
	}
	return refs, nil
}

func (r *PlaylistRepository) scanPlaylist(row *sql.Row) (*models.Playlist, error) {
	var p models.Playlist
	var lastFetched sql.NullTime

	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&p.ChannelID,
		&p.ChannelTitle,
		&p.ItemCount,
		&p.LastUpdated,
		&lastFetched,
		&p.ContentHash,
	)
	if err != nil {
		return nil, err
	}

	if lastFetched.Valid {
		p.LastFetched = lastFetched.Time
	}
	return &p, nil
}
