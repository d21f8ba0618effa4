// package models defines the data model shared by the store, the API client and the stash tasks
package models

import (
	"time"
)

// EntityKind names a hashed entity table.
type EntityKind string

const (
	EntityPlaylist EntityKind = "playlist"
	EntityVideo    EntityKind = "video"
)

// Playlist is a remote playlist as mirrored in the local store.
type Playlist struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ChannelID    string    `json:"channel_id"`
	ChannelTitle string    `json:"channel_title"`
	ItemCount    int64     `json:"item_count"`
	LastUpdated  time.Time `json:"last_updated"`
	LastFetched  time.Time `json:"last_fetched,omitzero"`
	ContentHash  string    `json:"content_hash"`
}

// Ref projects the playlist to its identifying fields.
func (p Playlist) Ref() PlaylistRef {
	return PlaylistRef{ID: p.ID, Title: p.Title, Description: p.Description}
}

// Video is one video within one playlist.
//
// The same remote video appears once per playlist it was synced under.
type Video struct {
	ID           string    `json:"id"`
	PlaylistID   string    `json:"playlist_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	PublishedAt  time.Time `json:"published_at"`
	ChannelID    string    `json:"channel_id"`
	ChannelTitle string    `json:"channel_title"`
	ViewCount    int64     `json:"view_count"`
	LikeCount    int64     `json:"like_count"`
	CommentCount int64     `json:"comment_count"`
	Duration     string    `json:"duration"` // ISO 8601, as reported by the API
	LastUpdated  time.Time `json:"last_updated"`
	ContentHash  string    `json:"content_hash"`
	Downloaded   bool      `json:"downloaded"`
	FileHash     string    `json:"file_hash,omitempty"`
}

// WatchURL returns the canonical watch page for the video.
func (v Video) WatchURL() string {
	return WatchURL(v.ID)
}

// WatchURL returns the canonical watch page for a video id.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// PlaylistExport is a stored playlist with its stored videos.
type PlaylistExport struct {
	Playlist Playlist `json:"playlist"`
	Videos   []Video  `json:"videos"`
}

// PlaylistRef is the {id, title} projection used by reconciliation snapshots.
type PlaylistRef struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// DownloadRecord is one successful stash of a video. Records are append-only.
type DownloadRecord struct {
	ID           int64     `json:"id"`
	VideoID      string    `json:"video_id"`
	FilePath     string    `json:"file_path"`
	FileHash     string    `json:"file_hash"`
	DownloadedAt time.Time `json:"download_date"`
}

// DeltaPayload partitions the remote playlist enumeration against local presence.
type DeltaPayload struct {
	All     []PlaylistRef `json:"all"`
	Known   []PlaylistRef `json:"known"`
	Unknown []PlaylistRef `json:"unknown"`
}

// DeltaSnapshot is an immutable, persisted [DeltaPayload].
type DeltaSnapshot struct {
	ID          int64        `json:"id"`
	Timestamp   time.Time    `json:"timestamp"`
	ContentHash string       `json:"content_hash"`
	Payload     DeltaPayload `json:"payload"`
}

// StashOutcome classifies the result of a single stash attempt.
type StashOutcome int

const (
	OutcomeDownloaded StashOutcome = iota
	OutcomeFileNotFound
	OutcomeDownloadError
	OutcomeUnexpectedError
	OutcomeAlreadyStashed
)

func (o StashOutcome) String() string {
	switch o {
	case OutcomeDownloaded:
		return "downloaded"
	case OutcomeFileNotFound:
		return "file_not_found"
	case OutcomeDownloadError:
		return "download_error"
	case OutcomeUnexpectedError:
		return "unexpected_error"
	case OutcomeAlreadyStashed:
		return "already_stashed"
	default:
		return ""
	}
}

// Failed reports whether the outcome is one of the per-item failure variants.
func (o StashOutcome) Failed() bool {
	return o == OutcomeFileNotFound || o == OutcomeDownloadError || o == OutcomeUnexpectedError
}

// CommandPlan is a structured command produced from free text by the planner.
type CommandPlan struct {
	Command    string         `json:"command"`
	Parameters map[string]any `json:"parameters"`
}
