package ui

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/stasher/internal/models"
	"github.com/desertthunder/stasher/internal/repositories"
	"github.com/desertthunder/stasher/internal/services"
	"github.com/desertthunder/stasher/internal/shared"
	"github.com/desertthunder/stasher/internal/tasks"
)

type fakeRemote struct {
	playlist models.Playlist
	videos   []models.Video
}

func (f *fakeRemote) PlaylistDetails(ctx context.Context, id string) (*models.Playlist, error) {
	if id != f.playlist.ID {
		return nil, fmt.Errorf("%w: %s", shared.ErrEntityNotFound, id)
	}
	p := f.playlist
	return &p, nil
}

func (f *fakeRemote) PlaylistVideoIDs(ctx context.Context, id string) ([]string, error) {
	ids := []string{}
	for _, v := range f.videos {
		ids = append(ids, v.ID)
	}
	return ids, nil
}

func (f *fakeRemote) VideoDetails(ctx context.Context, id string) (*models.Video, error) {
	for _, v := range f.videos {
		if v.ID == id {
			return &v, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", shared.ErrEntityNotFound, id)
}

func (f *fakeRemote) MyChannelIDs(ctx context.Context) ([]string, error) { return []string{"UC1"}, nil }

func (f *fakeRemote) ChannelPlaylists(ctx context.Context, id string) ([]models.Playlist, error) {
	return []models.Playlist{f.playlist}, nil
}

func (f *fakeRemote) MyPlaylists(ctx context.Context) ([]models.Playlist, error) {
	return []models.Playlist{f.playlist}, nil
}

type fakeStasher struct {
	store *repositories.Store
}

func (f *fakeStasher) Stash(ctx context.Context, req services.StashRequest) (services.StashResult, error) {
	if req.VideoID == "bad" {
		return services.StashResult{Outcome: models.OutcomeDownloadError, Err: shared.ErrDownloadFailed}, nil
	}
	rec, err := f.store.RecordDownload(req.VideoID, req.OutputDir+"/"+req.VideoID+".mp4", "h")
	if err != nil {
		return services.StashResult{}, err
	}
	return services.StashResult{Outcome: models.OutcomeDownloaded, FilePath: rec.FilePath, Record: rec}, nil
}

func newTestModel(t *testing.T) (*Model, *repositories.Store) {
	t.Helper()
	db, err := shared.OpenStore(shared.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	store := repositories.NewStore(db)

	remote := &fakeRemote{
		playlist: models.Playlist{ID: "PL1", Title: "Road Trip", ItemCount: 2},
		videos: []models.Video{
			{ID: "good", Title: "Good Song", ChannelTitle: "Band"},
			{ID: "bad", Title: "Blocked Song", ChannelTitle: "Band"},
		},
	}
	logger := log.New(&bytes.Buffer{})
	syncer := tasks.NewSyncService(remote, store, logger)
	orchestrator := tasks.NewStashOrchestrator(syncer, store, &fakeStasher{store: store}, logger)

	opts := tasks.StashOptions{OutputPath: t.TempDir(), BatchSize: 10}
	m := NewModel(context.Background(), remote, orchestrator, opts)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m, store
}

// drain runs cmd and feeds its messages back into the model until want arrives.
func drain(t *testing.T, m *Model, cmd tea.Cmd, want MsgKind) tea.Cmd {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for cmd != nil {
		got := make(chan tea.Msg, 1)
		go func(c tea.Cmd) { got <- c() }(cmd)

		select {
		case msg := <-got:
			_, cmd = m.Update(msg)
			if ui, ok := msg.(Msg); ok && ui.kind == want {
				return cmd
			}
		case <-deadline:
			t.Fatalf("timed out waiting for message kind %d", want)
		}
	}
	t.Fatalf("command chain ended before message kind %d", want)
	return nil
}

func press(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel(t *testing.T) {
	t.Run("confirmed stash runs to the result view", func(t *testing.T) {
		m, store := newTestModel(t)

		drain(t, m, m.Init(), MsgPlaylistsFetched)
		if !strings.Contains(m.View(), "Road Trip") {
			t.Fatalf("expected playlist in list view:\n%s", m.View())
		}

		_, cmd := m.Update(press("enter"))
		if m.view != PlanningView {
			t.Fatalf("expected planning view, got %d", m.view)
		}

		cmd = drain(t, m, cmd, MsgPlanReady)
		if m.view != ConfirmView {
			t.Fatalf("expected confirm view, got %d", m.view)
		}
		if !strings.Contains(m.View(), "Number of videos to stash") {
			t.Errorf("expected plan summary in confirm view:\n%s", m.View())
		}

		m.Update(press("y"))
		drain(t, m, cmd, MsgStashComplete)

		if m.view != ResultView {
			t.Fatalf("expected result view, got %d", m.view)
		}
		if m.err != nil {
			t.Fatalf("unexpected error: %v", m.err)
		}
		if m.result.State != tasks.StateDone {
			t.Errorf("expected done state, got %s", m.result.State)
		}
		if m.result.Report.Stashed != 1 || m.result.Report.Failed != 1 {
			t.Errorf("unexpected report: %+v", m.result.Report)
		}
		view := m.View()
		if !strings.Contains(view, "Playlist stashing completed.") || !strings.Contains(view, "Failed videos:") {
			t.Errorf("unexpected result view:\n%s", view)
		}

		downloaded, _, err := store.DownloadStatus("good")
		if err != nil || !downloaded {
			t.Errorf("expected good to be recorded, got %v, %v", downloaded, err)
		}

		m.Update(press("r"))
		if m.view != PlaylistListView || m.result != nil {
			t.Error("expected restart to return to the playlist list")
		}
	})

	t.Run("declined stash is cancelled", func(t *testing.T) {
		m, store := newTestModel(t)
		drain(t, m, m.Init(), MsgPlaylistsFetched)

		_, cmd := m.Update(press("enter"))
		cmd = drain(t, m, cmd, MsgPlanReady)
		m.Update(press("n"))
		drain(t, m, cmd, MsgStashComplete)

		if m.result.State != tasks.StateAborted {
			t.Errorf("expected aborted state, got %s", m.result.State)
		}
		if !strings.Contains(m.View(), "Stashing cancelled.") {
			t.Errorf("unexpected result view:\n%s", m.View())
		}
		if downloaded, _, _ := store.DownloadStatus("good"); downloaded {
			t.Error("declined stash should not download anything")
		}
	})

	t.Run("fetch errors are shown", func(t *testing.T) {
		m, _ := newTestModel(t)
		m.Update(playlistsFetchedMsg(nil, shared.ErrNotAuthenticated))
		if !strings.Contains(m.View(), "not authenticated") {
			t.Errorf("expected error view, got:\n%s", m.View())
		}
	})
}

func TestConfirmModel(t *testing.T) {
	tests := []struct {
		name string
		def  bool
		keys []string
		want bool
	}{
		{"yes", false, []string{"y"}, true},
		{"no", true, []string{"n"}, false},
		{"enter takes default yes", true, []string{"enter"}, true},
		{"enter takes default no", false, []string{"enter"}, false},
		{"escape declines", true, []string{"esc"}, false},
		{"other keys are ignored", false, []string{"x", "y"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var model tea.Model = NewConfirmModel("Proceed?", tt.def)
			var cmd tea.Cmd
			for _, k := range tt.keys {
				model, cmd = model.Update(press(k))
			}
			if cmd == nil {
				t.Fatal("expected quit command after an answer")
			}
			if got := model.(ConfirmModel).Answer(); got != tt.want {
				t.Errorf("Answer() = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("view shows default hint", func(t *testing.T) {
		if v := NewConfirmModel("Proceed?", true).View(); !strings.Contains(v, "[Y/n]") {
			t.Errorf("unexpected view: %q", v)
		}
	})
}

func TestConfirm(t *testing.T) {
	var out bytes.Buffer
	ok, err := Confirm(context.Background(), strings.NewReader("y"), &out, "Proceed?", false)
	if err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	if !ok {
		t.Error("expected confirmation")
	}
}

func TestRender(t *testing.T) {
	plan := &tasks.StashPlan{
		Playlist:        models.Playlist{Title: "Road Trip"},
		ToDownload:      []models.Video{{ID: "a"}, {ID: "b"}},
		AlreadyStashed:  []models.Video{{ID: "c"}},
		OutputPath:      "downloads/Road Trip",
		AudioOnly:       true,
		BatchSize:       3,
		Batches:         1,
		BatchDelay:      1200 * time.Second,
		SummaryInterval: 300 * time.Second,
	}

	t.Run("plan", func(t *testing.T) {
		out := RenderPlan(plan)
		for _, want := range []string{"Stash Summary", "Road Trip", "downloads/Road Trip", "Yes", "1200 seconds (20.0 minutes)", "300 seconds (5.0 minutes)"} {
			if !strings.Contains(out, want) {
				t.Errorf("plan missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("report", func(t *testing.T) {
		start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
		r := tasks.NewStashReport(start, start.Add(time.Hour), 2, 1, 1, 6)
		out := RenderReport(r)
		for _, want := range []string{"Stashing Progress", "3/6", "Failed", "3.00 videos/hour"} {
			if !strings.Contains(out, want) {
				t.Errorf("report missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("items", func(t *testing.T) {
		cases := map[models.StashOutcome]string{
			models.OutcomeDownloaded:      "Successfully stashed video v",
			models.OutcomeAlreadyStashed:  "already exists in the database",
			models.OutcomeFileNotFound:    "File not found after stashing",
			models.OutcomeDownloadError:   "yt-dlp stashing error",
			models.OutcomeUnexpectedError: "Unexpected error stashing video",
		}
		for outcome, want := range cases {
			got := RenderItem(tasks.ItemResult{Video: models.Video{ID: "v"}, Outcome: outcome})
			if !strings.Contains(got, want) {
				t.Errorf("RenderItem(%s) = %q, want %q", outcome, got, want)
			}
		}
	})

	t.Run("progress lines", func(t *testing.T) {
		plain := tasks.ProgressUpdate{Phase: tasks.Reconcile, Message: "Listing playlists of channel UC1..."}
		if got := RenderProgress(plain); got != plain.Message {
			t.Errorf("expected uncolored phase to pass through, got %q", got)
		}

		for _, phase := range []tasks.Phase{tasks.StashSkip, tasks.StashBatch, tasks.StashPace, tasks.StashDone} {
			got := RenderProgress(tasks.ProgressUpdate{Phase: phase, Message: "msg " + phase.String()})
			if !strings.Contains(got, "msg "+phase.String()) {
				t.Errorf("RenderProgress(%s) = %q", phase, got)
			}
		}

		item := tasks.ItemResult{Video: models.Video{ID: "v"}, Outcome: models.OutcomeDownloaded}
		if got := RenderProgress(tasks.ProgressUpdate{Phase: tasks.StashItem, Data: item}); !strings.Contains(got, "Successfully stashed video v") {
			t.Errorf("expected item line, got %q", got)
		}
	})
}

func TestKeyMap(t *testing.T) {
	keys := newKeyMap()

	upper := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("Y")}
	if !key.Matches(upper, keys.accept) || key.Matches(upper, keys.decline) {
		t.Error("expected Y to accept")
	}
	if !key.Matches(tea.KeyMsg{Type: tea.KeyEnter}, keys.stash) {
		t.Error("expected enter to stash the selected playlist")
	}

	for name, set := range map[string][]key.Binding{
		"pick":    keys.pickHelp(),
		"confirm": keys.confirmHelp(),
		"prompt":  keys.promptHelp(),
		"running": keys.runningHelp(),
		"result":  keys.resultHelp(),
	} {
		if len(set) == 0 {
			t.Errorf("expected %s help keys", name)
		}
	}
}
