package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/stasher/internal/models"
	"github.com/desertthunder/stasher/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlaylistListView ViewState = iota
	PlanningView
	ConfirmView
	StashView
	ResultView
)

// logLines is how many progress lines the stash views keep on screen.
const logLines = 8

// PlaylistLister lists the playlists owned by the user.
type PlaylistLister interface {
	MyPlaylists(ctx context.Context) ([]models.Playlist, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	cancel       context.CancelFunc
	view         ViewState
	lister       PlaylistLister
	orchestrator *tasks.StashOrchestrator
	opts         tasks.StashOptions
	width        int
	height       int
	playlistList list.Model
	videoList    list.Model
	plan         *tasks.StashPlan
	events       chan Msg
	answers      chan bool
	progress     tasks.ProgressUpdate
	lines        []string
	result       *tasks.StashResult
	quitting     bool
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model. opts carries everything but the playlist id, which the
// user picks.
func NewModel(ctx context.Context, lister PlaylistLister, orchestrator *tasks.StashOrchestrator, opts tasks.StashOptions) *Model {
	return &Model{
		ctx:          ctx,
		view:         PlaylistListView,
		lister:       lister,
		orchestrator: orchestrator,
		opts:         opts,
		playlistList: list.New(nil, list.NewDefaultDelegate(), 0, 0),
		videoList:    list.New(nil, list.NewDefaultDelegate(), 0, 0),
		help:         help.New(),
		keys:         newKeyMap(),
	}
}

// Init initializes the TUI by fetching the user's playlists.
func (m *Model) Init() tea.Cmd {
	return m.fetchPlaylists()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		m.videoList.SetSize(msg.Width-4, msg.Height-16)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case PlanningView, StashView:
			return m.handleRunningKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgPlaylistsFetched:
		data := msg.data.(playlistsFetched)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.playlistList.SetItems(playlistItems(data.playlists))
		m.playlistList.Title = "Your Playlists"
		return m, nil

	case MsgProgressUpdate:
		update := msg.data.(tasks.ProgressUpdate)
		m.progress = update
		m.appendLine(RenderProgress(update))
		return m, m.waitForEvent()

	case MsgPlanReady:
		m.plan = msg.data.(*tasks.StashPlan)
		m.videoList.SetItems(videoItems(m.plan.ToDownload))
		m.videoList.Title = fmt.Sprintf("Videos to stash from '%s'", m.plan.Playlist.Title)
		m.view = ConfirmView
		return m, m.waitForEvent()

	case MsgStashComplete:
		data := msg.data.(stashComplete)
		m.result = data.result
		m.err = data.err
		m.view = ResultView
		m.events = nil
		if m.cancel != nil {
			m.cancel()
			m.cancel = nil
		}
		if m.quitting {
			return m, tea.Quit
		}
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view == PlaylistListView {
		return styles.Error(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case PlaylistListView:
		return m.renderPlaylistList()
	case PlanningView:
		return m.renderRunning("Preparing Stash")
	case ConfirmView:
		return m.renderConfirm()
	case StashView:
		return m.renderRunning("Stashing Playlist")
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.playlistList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.playlistList, cmd = m.playlistList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.stash):
		if pl, ok := m.playlistList.SelectedItem().(playlistItem); ok {
			return m, m.startStash(pl.playlist.ID)
		}
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.accept):
		m.answer(true)
		m.view = StashView
		return m, nil
	case key.Matches(msg, m.keys.decline), key.Matches(msg, m.keys.back):
		m.answer(false)
		m.view = StashView
		return m, nil
	case key.Matches(msg, m.keys.quit):
		m.answer(false)
		m.quitting = true
		m.view = StashView
		return m, nil
	}

	var cmd tea.Cmd
	m.videoList, cmd = m.videoList.Update(msg)
	return m, cmd
}

// handleRunningKeys cancels the run on quit; the orchestrator stops before its next batch.
func (m *Model) handleRunningKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) {
		m.quitting = true
		if m.cancel != nil {
			m.cancel()
		}
		m.appendLine(styles.Warning("Stopping after the current batch..."))
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.again):
		m.view = PlaylistListView
		m.plan = nil
		m.result = nil
		m.err = nil
		m.lines = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case ConfirmView:
		m.videoList, cmd = m.videoList.Update(msg)
	}
	return m, cmd
}

func (m *Model) answer(ok bool) {
	if m.answers != nil {
		m.answers <- ok
		m.answers = nil
	}
}

func (m *Model) appendLine(line string) {
	if line == "" {
		return
	}
	m.lines = append(m.lines, line)
	if len(m.lines) > logLines {
		m.lines = m.lines[len(m.lines)-logLines:]
	}
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		playlists, err := m.lister.MyPlaylists(m.ctx)
		return playlistsFetchedMsg(playlists, err)
	}
}

// startStash runs the orchestrator in the background. Its progress updates, its confirmation
// request and its final result are all delivered through m.events.
func (m *Model) startStash(playlistID string) tea.Cmd {
	ctx, cancel := context.WithCancel(m.ctx)
	events := make(chan Msg, 64)
	answers := make(chan bool, 1)
	progress := make(chan tasks.ProgressUpdate, 64)

	m.cancel = cancel
	m.events = events
	m.answers = answers
	m.lines = nil
	m.view = PlanningView

	confirmer := tasks.ConfirmFunc(func(ctx context.Context, plan *tasks.StashPlan) (bool, error) {
		events <- planReadyMsg(plan)
		select {
		case ok := <-answers:
			return ok, nil
		case <-ctx.Done():
			return false, ctx.Err()
		}
	})

	opts := m.opts
	opts.PlaylistID = playlistID
	orchestrator := m.orchestrator.Confirming(confirmer)

	forwarded := make(chan struct{})
	go func() {
		defer close(forwarded)
		for u := range progress {
			events <- progressUpdateMsg(u)
		}
	}()

	go func() {
		result, err := orchestrator.Run(ctx, progress, opts)
		close(progress)
		<-forwarded
		events <- stashCompleteMsg(result, err)
	}()

	return m.waitForEvent()
}

func (m *Model) waitForEvent() tea.Cmd {
	events := m.events
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		return <-events
	}
}

func (m *Model) renderPlaylistList() string {
	helpView := m.help.ShortHelpView(m.keys.pickHelp())
	return fmt.Sprintf("%s\n\n%s", m.playlistList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	helpView := m.help.ShortHelpView(m.keys.confirmHelp())
	prompt := styles.Title("Do you want to proceed with the stashing?")
	return fmt.Sprintf("%s\n\n%s\n\n%s\n%s", RenderPlan(m.plan), m.videoList.View(), prompt, helpView)
}

func (m *Model) renderRunning(title string) string {
	var step string
	if m.progress.Total > 0 {
		step = fmt.Sprintf("%s (%d/%d)", m.progress.Phase, m.progress.Step, m.progress.Total)
	}
	helpView := m.help.ShortHelpView(m.keys.runningHelp())
	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s", styles.Title(title), step, strings.Join(m.lines, "\n"), helpView)
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView(m.keys.resultHelp())

	if m.result == nil {
		return styles.Error(fmt.Sprintf("Stash failed: %v\n\n%s", m.err, helpView))
	}

	var title string
	switch {
	case m.err != nil:
		title = styles.Error(fmt.Sprintf("Stash stopped: %v", m.err))
	case m.result.State == tasks.StateAborted:
		title = styles.Warning("Stashing cancelled.")
	case m.result.Plan != nil && len(m.result.Plan.ToDownload) == 0:
		title = styles.OK("All videos in this playlist have already been stashed.")
	default:
		title = styles.OK("✓ Playlist stashing completed.")
	}

	var failed string
	for _, item := range m.result.Items {
		if item.Outcome.Failed() {
			failed += "\n  • " + RenderItem(item)
		}
	}
	if failed != "" {
		failed = "\n" + styles.Warning("Failed videos:") + failed
	}

	return fmt.Sprintf("%s\n\n%s%s\n\n%s", title, RenderReport(m.result.Report), failed, helpView)
}
