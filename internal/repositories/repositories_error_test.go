package repositories

import (
	"errors"
	"testing"

	"github.com/desertthunder/stasher/internal/models"
	"github.com/desertthunder/stasher/internal/shared"
)

// closedStore returns a store whose database handle has already been closed.
func closedStore(t *testing.T) *Store {
	t.Helper()
	db := setupTestDB(t)
	store := NewStore(db)
	db.Close()
	return store
}

func TestStoreErrors(t *testing.T) {
	tc := []struct {
		name string
		call func(s *Store) error
	}{
		{"UpsertPlaylist", func(s *Store) error { _, _, err := s.UpsertPlaylist(samplePlaylist()); return err }},
		{"UpsertVideo", func(s *Store) error { _, _, err := s.UpsertVideo(sampleVideo("v1")); return err }},
		{"PlaylistHash", func(s *Store) error { _, _, err := s.EntityHash(models.EntityPlaylist, "PL1"); return err }},
		{"VideoHash", func(s *Store) error { _, _, err := s.EntityHash(models.EntityVideo, "v1"); return err }},
		{"MarkPlaylistFetched", func(s *Store) error { return s.MarkPlaylistFetched("PL1") }},
		{"GetPlaylist", func(s *Store) error { _, err := s.GetPlaylist("PL1"); return err }},
		{"ListKnownPlaylists", func(s *Store) error { _, err := s.ListKnownPlaylists(); return err }},
		{"ListVideos", func(s *Store) error { _, err := s.ListVideos("PL1"); return err }},
		{"RecordDownload", func(s *Store) error { _, err := s.RecordDownload("v1", "/tmp/a", "h"); return err }},
		{"ExistingDownloads", func(s *Store) error { _, err := s.ExistingDownloads("v1"); return err }},
		{"DownloadStatus", func(s *Store) error { _, _, err := s.DownloadStatus("v1"); return err }},
		{"SaveDeltaSnapshot", func(s *Store) error { _, err := s.SaveDeltaSnapshot(models.DeltaPayload{}); return err }},
		{"LoadSnapshot", func(s *Store) error { _, err := s.LoadSnapshot(LatestSnapshot); return err }},
		{"ListSnapshots", func(s *Store) error { _, err := s.ListSnapshots(5); return err }},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call(closedStore(t))
			if err == nil {
				t.Fatal("expected error from closed database")
			}
			if !errors.Is(err, shared.ErrStorage) {
				t.Errorf("expected ErrStorage, got %v", err)
			}
		})
	}
}

func TestSnapshotDecodeError(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	if _, err := db.Exec("INSERT INTO delta_jobs (timestamp, content_hash, delta_data) VALUES (CURRENT_TIMESTAMP, 'x', 'not json')"); err != nil {
		t.Fatalf("failed to seed bad snapshot: %v", err)
	}

	_, err := NewStore(db).LoadSnapshot(LatestSnapshot)
	if !errors.Is(err, shared.ErrStorage) {
		t.Errorf("expected ErrStorage for undecodable payload, got %v", err)
	}
}
