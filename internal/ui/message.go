package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/stasher/internal/models"
	"github.com/desertthunder/stasher/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgPlaylistsFetched MsgKind = iota
	MsgProgressUpdate
	MsgPlanReady
	MsgStashComplete
)

type playlistsFetched struct {
	playlists []models.Playlist
	err       error
}

type stashComplete struct {
	result *tasks.StashResult
	err    error
}

// playlistsFetchedMsg is the constructor for [MsgPlaylistsFetched]
func playlistsFetchedMsg(playlists []models.Playlist, err error) Msg {
	return Msg{kind: MsgPlaylistsFetched, data: playlistsFetched{playlists, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// planReadyMsg is the constructor for [MsgPlanReady]
func planReadyMsg(plan *tasks.StashPlan) Msg {
	return Msg{kind: MsgPlanReady, data: plan}
}

// stashCompleteMsg is the constructor for [MsgStashComplete]
func stashCompleteMsg(result *tasks.StashResult, err error) Msg {
	return Msg{kind: MsgStashComplete, data: stashComplete{result, err}}
}
