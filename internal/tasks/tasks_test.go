package tasks

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/stasher/internal/models"
	"github.com/desertthunder/stasher/internal/repositories"
	"github.com/desertthunder/stasher/internal/services"
	"github.com/desertthunder/stasher/internal/shared"
)

type fakeRemote struct {
	mu               sync.Mutex
	playlists        map[string]models.Playlist
	items            map[string][]string
	videos           map[string]models.Video
	channels         []string
	channelPlaylists map[string][]models.Playlist
	errs             map[string]error
	calls            map[string]int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		playlists:        map[string]models.Playlist{},
		items:            map[string][]string{},
		videos:           map[string]models.Video{},
		channelPlaylists: map[string][]models.Playlist{},
		errs:             map[string]error{},
		calls:            map[string]int{},
	}
}

func (f *fakeRemote) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	return f.errs[op]
}

func (f *fakeRemote) PlaylistDetails(ctx context.Context, id string) (*models.Playlist, error) {
	if err := f.record("PlaylistDetails"); err != nil {
		return nil, err
	}
	p, ok := f.playlists[id]
	if !ok {
		return nil, fmt.Errorf("%w: playlist %s", shared.ErrEntityNotFound, id)
	}
	return &p, nil
}

func (f *fakeRemote) PlaylistVideoIDs(ctx context.Context, id string) ([]string, error) {
	if err := f.record("PlaylistVideoIDs"); err != nil {
		return nil, err
	}
	ids, ok := f.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: playlist %s", shared.ErrEntityNotFound, id)
	}
	return ids, nil
}

func (f *fakeRemote) VideoDetails(ctx context.Context, id string) (*models.Video, error) {
	if err := f.record("VideoDetails"); err != nil {
		return nil, err
	}
	v, ok := f.videos[id]
	if !ok {
		return nil, fmt.Errorf("%w: video %s", shared.ErrEntityNotFound, id)
	}
	return &v, nil
}

func (f *fakeRemote) MyChannelIDs(ctx context.Context) ([]string, error) {
	if err := f.record("MyChannelIDs"); err != nil {
		return nil, err
	}
	return f.channels, nil
}

func (f *fakeRemote) ChannelPlaylists(ctx context.Context, channelID string) ([]models.Playlist, error) {
	if err := f.record("ChannelPlaylists"); err != nil {
		return nil, err
	}
	return f.channelPlaylists[channelID], nil
}

func (f *fakeRemote) MyPlaylists(ctx context.Context) ([]models.Playlist, error) {
	if err := f.record("MyPlaylists"); err != nil {
		return nil, err
	}
	out := []models.Playlist{}
	for _, ch := range f.channels {
		out = append(out, f.channelPlaylists[ch]...)
	}
	return out, nil
}

// addPlaylist registers a playlist and its videos with the fake.
func (f *fakeRemote) addPlaylist(id, title string, videoIDs ...string) {
	f.playlists[id] = models.Playlist{ID: id, Title: title, ChannelID: "UC1", ChannelTitle: "Me", ItemCount: int64(len(videoIDs))}
	f.items[id] = videoIDs
	for i, vid := range videoIDs {
		f.videos[vid] = models.Video{
			ID:          vid,
			Title:       "Video " + vid,
			PublishedAt: time.Date(2024, 1, i+1, 0, 0, 0, 0, time.UTC),
			ChannelID:   "UC1",
			Duration:    "PT3M",
		}
	}
}

// fakeStasher records every request and writes a download record for successful outcomes.
type fakeStasher struct {
	mu       sync.Mutex
	store    *repositories.Store
	outcomes map[string]models.StashOutcome
	requests []services.StashRequest
	onStash  func(req services.StashRequest)
	err      error
	failOn   map[string]error
	delay    time.Duration
}

func (f *fakeStasher) Stash(ctx context.Context, req services.StashRequest) (services.StashResult, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	onStash := f.onStash
	f.mu.Unlock()

	if onStash != nil {
		onStash(req)
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return services.StashResult{}, f.err
	}
	if err := f.failOn[req.VideoID]; err != nil {
		return services.StashResult{}, err
	}

	outcome := f.outcomes[req.VideoID]
	if outcome != models.OutcomeDownloaded {
		return services.StashResult{Outcome: outcome, Err: fmt.Errorf("%s", outcome)}, nil
	}

	path := req.OutputDir + "/" + req.VideoID + ".mp4"
	rec, err := f.store.RecordDownload(req.VideoID, path, "hash-"+req.VideoID)
	if err != nil {
		return services.StashResult{Outcome: outcome}, err
	}
	return services.StashResult{Outcome: outcome, FilePath: path, FileHash: rec.FileHash, Record: rec}, nil
}

func (f *fakeStasher) requested() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := []string{}
	for _, r := range f.requests {
		ids = append(ids, r.VideoID)
	}
	return ids
}

type fakePacer struct {
	delays []time.Duration
	pace   func(ctx context.Context, tick func()) error
}

func (f *fakePacer) Pace(ctx context.Context, delay, interval time.Duration, tick func()) error {
	f.delays = append(f.delays, delay)
	if f.pace != nil {
		return f.pace(ctx, tick)
	}
	return nil
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func testLogger() *log.Logger {
	return shared.NewLogger(&bytes.Buffer{})
}

func setupTestStore(t *testing.T) *repositories.Store {
	t.Helper()
	db, err := shared.OpenStore(shared.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return repositories.NewStore(db)
}

func TestSendProgress(t *testing.T) {
	t.Run("nil channel is ignored", func(t *testing.T) {
		sendProgress(nil, ProgressUpdate{Phase: StashDone})
	})

	t.Run("full channel does not block", func(t *testing.T) {
		ch := make(chan ProgressUpdate, 1)
		sendProgress(ch, ProgressUpdate{Step: 1})
		sendProgress(ch, ProgressUpdate{Step: 2})
		if got := <-ch; got.Step != 1 {
			t.Errorf("expected first update to be kept, got %d", got.Step)
		}
	})

	t.Run("phase names", func(t *testing.T) {
		if StashSummary.String() != "stash_summary" || SyncVideos.String() != "sync_videos" || Phase(99).String() != "" {
			t.Error("unexpected phase names")
		}
	})
}
