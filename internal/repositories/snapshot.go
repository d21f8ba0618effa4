package repositories

import (
	"crypto/md5"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/desertthunder/stasher/internal/models"
	"github.com/desertthunder/stasher/internal/shared"
)

// LatestSnapshot selects the most recent snapshot in [SnapshotRepository.LoadSnapshot].
const LatestSnapshot = "latest"

// SnapshotRepository stores immutable delta snapshots.
type SnapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository creates a new SnapshotRepository with the given database connection
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// SaveDeltaSnapshot persists payload and returns the new snapshot id.
func (r *SnapshotRepository) SaveDeltaSnapshot(payload models.DeltaPayload) (int64, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to encode delta payload: %w", err)
	}
	sum := md5.Sum(data)

	result, err := r.db.Exec(
		"INSERT INTO delta_jobs (timestamp, content_hash, delta_data) VALUES (?, ?, ?)",
		now(), hex.EncodeToString(sum[:]), string(data),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to save snapshot: %w", shared.ErrStorage, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to read snapshot id: %w", shared.ErrStorage, err)
	}
	return id, nil
}

// LoadSnapshot loads a snapshot by numeric id or [LatestSnapshot].
//
// Returns [shared.ErrSnapshotNotFound] when nothing matches.
func (r *SnapshotRepository) LoadSnapshot(selector string) (*models.DeltaSnapshot, error) {
	var row *sql.Row
	if selector == "" || selector == LatestSnapshot {
		row = r.db.QueryRow("SELECT id, timestamp, content_hash, delta_data FROM delta_jobs ORDER BY timestamp DESC, id DESC LIMIT 1")
	} else {
		id, err := strconv.ParseInt(selector, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: snapshot selector %q", shared.ErrInvalidArgument, selector)
		}
		row = r.db.QueryRow("SELECT id, timestamp, content_hash, delta_data FROM delta_jobs WHERE id = ?", id)
	}

	snap, err := r.scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrSnapshotNotFound, selector)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load snapshot: %w", shared.ErrStorage, err)
	}
	return snap, nil
}

// ListSnapshots returns up to limit snapshots, newest first.
func (r *SnapshotRepository) ListSnapshots(limit int) ([]models.DeltaSnapshot, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query("SELECT id, timestamp, content_hash, delta_data FROM delta_jobs ORDER BY timestamp DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list snapshots: %w", shared.ErrStorage, err)
	}
	defer rows.Close()

	snapshots := []models.DeltaSnapshot{}
	for rows.Next() {
		snap, err := r.scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan snapshot: %w", shared.ErrStorage, err)
		}
		snapshots = append(snapshots, *snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to iterate snapshots: %w", shared.ErrStorage, err)
	}
	return snapshots, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *SnapshotRepository) scanSnapshot(row scanner) (*models.DeltaSnapshot, error) {
	var snap models.DeltaSnapshot
	var data string

	if err := row.Scan(&snap.ID, &snap.Timestamp, &snap.ContentHash, &data); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(data), &snap.Payload); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %d: %w", snap.ID, err)
	}
	return &snap, nil
}
