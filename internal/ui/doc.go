// Package ui implements the terminal interface using bubbletea's Elm architecture.
//
// The stash TUI walks through one playlist stash:
//  1. [PlaylistListView] : Browse the account's playlists
//  2. [PlanningView] : Watch the playlist sync while the plan is built
//  3. [ConfirmView] : Review the videos to fetch and confirm
//  4. [StashView] : Monitor batches, pacing and periodic summaries
//  5. [ResultView] : Final report with any failed videos
//
// The (view) [Model] implements bubbletea's Init/Update/View pattern. The orchestrator runs in
// a goroutine; its progress updates and its confirmation request arrive as [Msg] values on one
// event channel, and the answer goes back on another.
//
// [Confirm] is the one-question form of the same thing, used by the non-interactive commands.
package ui
