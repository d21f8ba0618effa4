package tasks

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/desertthunder/stasher/internal/models"
	"github.com/desertthunder/stasher/internal/shared"
)

func TestSyncService(t *testing.T) {
	ctx := context.Background()

	t.Run("first sync reports everything changed", func(t *testing.T) {
		remote := newFakeRemote()
		remote.addPlaylist("P1", "Mix", "a", "b")
		store := setupTestStore(t)
		svc := NewSyncService(remote, store, testLogger())

		progress := make(chan ProgressUpdate, 10)
		res, err := svc.RefreshAll(ctx, progress, "P1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.PlaylistChanged || res.Playlist == nil {
			t.Error("expected playlist to be new")
		}
		if !slices.Equal(res.ChangedVideoIDs, []string{"a", "b"}) {
			t.Errorf("expected [a b], got %v", res.ChangedVideoIDs)
		}
		if len(res.Videos) != 2 || res.Videos[0].PlaylistID != "P1" {
			t.Errorf("unexpected videos %+v", res.Videos)
		}

		stored, err := store.GetPlaylist("P1")
		if err != nil {
			t.Fatalf("expected playlist in store: %v", err)
		}
		if stored.LastFetched.IsZero() {
			t.Error("expected playlist to be marked fetched")
		}
		if len(progress) == 0 {
			t.Error("expected progress updates")
		}
	})

	t.Run("unchanged remote is a no-op", func(t *testing.T) {
		remote := newFakeRemote()
		remote.addPlaylist("P1", "Mix", "a", "b")
		store := setupTestStore(t)
		svc := NewSyncService(remote, store, testLogger())

		if _, err := svc.RefreshAll(ctx, nil, "P1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		before, _, _ := store.PlaylistHash("P1")

		changed, err := svc.RefreshPlaylistMetadata(ctx, "P1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if changed {
			t.Error("expected no metadata change")
		}
		after, _, _ := store.PlaylistHash("P1")
		if before != after {
			t.Errorf("expected hash to stay %s, got %s", before, after)
		}

		ids, err := svc.RefreshPlaylistItems(ctx, "P1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(ids) != 0 {
			t.Errorf("expected no changed videos, got %v", ids)
		}
	})

	t.Run("reports only the edited video", func(t *testing.T) {
		remote := newFakeRemote()
		remote.addPlaylist("P1", "Mix", "a", "b", "c")
		store := setupTestStore(t)
		svc := NewSyncService(remote, store, testLogger())
		svc.RefreshAll(ctx, nil, "P1")

		v := remote.videos["b"]
		v.LikeCount = 42
		remote.videos["b"] = v

		ids, err := svc.RefreshPlaylistItems(ctx, "P1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !slices.Equal(ids, []string{"b"}) {
			t.Errorf("expected [b], got %v", ids)
		}
	})

	t.Run("missing playlist leaves the store untouched", func(t *testing.T) {
		store := setupTestStore(t)
		svc := NewSyncService(newFakeRemote(), store, testLogger())

		changed, err := svc.RefreshPlaylistMetadata(ctx, "gone")
		if err != nil || changed {
			t.Fatalf("expected (false, nil), got (%v, %v)", changed, err)
		}
		if _, err := store.GetPlaylist("gone"); !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected nothing stored, got %v", err)
		}

		res, err := svc.RefreshAll(ctx, nil, "gone")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Playlist != nil || len(res.Videos) != 0 {
			t.Errorf("expected empty result, got %+v", res)
		}
	})

	t.Run("skips vanished videos", func(t *testing.T) {
		remote := newFakeRemote()
		remote.addPlaylist("P1", "Mix", "a", "b")
		delete(remote.videos, "a")
		svc := NewSyncService(remote, setupTestStore(t), testLogger())

		ids, err := svc.RefreshPlaylistItems(ctx, "P1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !slices.Equal(ids, []string{"b"}) {
			t.Errorf("expected [b], got %v", ids)
		}
	})

	t.Run("quota exhaustion propagates", func(t *testing.T) {
		remote := newFakeRemote()
		remote.addPlaylist("P1", "Mix", "a")
		remote.errs["VideoDetails"] = fmt.Errorf("%w: videos.list", shared.ErrQuotaExhausted)
		store := setupTestStore(t)
		svc := NewSyncService(remote, store, testLogger())

		_, err := svc.RefreshAll(ctx, nil, "P1")
		if !errors.Is(err, shared.ErrQuotaExhausted) {
			t.Fatalf("expected ErrQuotaExhausted, got %v", err)
		}
		if _, err := store.GetPlaylist("P1"); err != nil {
			t.Fatalf("expected metadata to be stored before the failure: %v", err)
		}
		if remote.calls["VideoDetails"] != 1 {
			t.Errorf("expected the walk to stop at the first failure, got %d calls", remote.calls["VideoDetails"])
		}
	})
}

func TestSyncServiceRefreshMine(t *testing.T) {
	ctx := context.Background()

	t.Run("refreshes every playlist", func(t *testing.T) {
		remote := newFakeRemote()
		remote.channels = []string{"UC1"}
		remote.addPlaylist("P1", "One", "a")
		remote.addPlaylist("P2", "Two", "b")
		remote.channelPlaylists["UC1"] = []models.Playlist{remote.playlists["P1"], remote.playlists["P2"]}

		res, err := NewSyncService(remote, setupTestStore(t), testLogger()).RefreshMine(ctx, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(res.Results) != 2 || len(res.Failed) != 0 {
			t.Errorf("expected 2 results, got %+v", res)
		}
	})

	t.Run("stops on quota exhaustion", func(t *testing.T) {
		remote := newFakeRemote()
		remote.channels = []string{"UC1"}
		remote.addPlaylist("P1", "One", "a")
		remote.addPlaylist("P2", "Two", "b")
		remote.channelPlaylists["UC1"] = []models.Playlist{remote.playlists["P1"], remote.playlists["P2"]}
		remote.errs["PlaylistDetails"] = fmt.Errorf("%w: playlists.list", shared.ErrQuotaExhausted)

		res, err := NewSyncService(remote, setupTestStore(t), testLogger()).RefreshMine(ctx, nil)
		if !errors.Is(err, shared.ErrQuotaExhausted) {
			t.Fatalf("expected ErrQuotaExhausted, got %v", err)
		}
		if remote.calls["PlaylistDetails"] != 1 {
			t.Errorf("expected the run to stop after the first playlist, got %d calls", remote.calls["PlaylistDetails"])
		}
		if len(res.Results) != 0 {
			t.Errorf("expected no results, got %d", len(res.Results))
		}
	})

	t.Run("continues past other failures", func(t *testing.T) {
		remote := newFakeRemote()
		remote.channels = []string{"UC1"}
		remote.addPlaylist("P1", "One", "a")
		remote.addPlaylist("P2", "Two", "b")
		remote.channelPlaylists["UC1"] = []models.Playlist{remote.playlists["P1"], remote.playlists["P2"]}
		remote.errs["PlaylistVideoIDs"] = fmt.Errorf("%w: forbidden", shared.ErrPermanentRemote)

		res, err := NewSyncService(remote, setupTestStore(t), testLogger()).RefreshMine(ctx, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(res.Failed) != 2 {
			t.Errorf("expected both playlists to fail, got %+v", res.Failed)
		}
	})
}

func TestSyncResultMessages(t *testing.T) {
	t.Run("changed", func(t *testing.T) {
		r := &SyncResult{PlaylistID: "P1", PlaylistChanged: true, ChangedVideoIDs: []string{"a", "b"}}
		want := []string{
			"Playlist P1 metadata has been updated.",
			"Updated 2 videos in playlist P1:",
			"  • a",
			"  • b",
			"Playlist P1 update process completed.",
		}
		if !slices.Equal(r.Messages(), want) {
			t.Errorf("expected %q, got %q", want, r.Messages())
		}
		if !r.Changed() {
			t.Error("expected changed")
		}
	})

	t.Run("unchanged", func(t *testing.T) {
		r := &SyncResult{PlaylistID: "P1"}
		want := []string{
			"No changes detected in playlist P1 metadata.",
			"No changes detected in videos for playlist P1.",
			"Playlist P1 update process completed.",
		}
		if !slices.Equal(r.Messages(), want) {
			t.Errorf("expected %q, got %q", want, r.Messages())
		}
		if r.Changed() {
			t.Error("expected unchanged")
		}
	})
}
