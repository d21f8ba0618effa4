// Package models defines the entities persisted by stasher and passed between its layers.
//
//   - [Playlist] : playlist metadata with its content hash and freshness timestamps
//   - [Video] : per-playlist video metadata, statistics and download state
//   - [DownloadRecord] : append-only history of stashed files
//   - [DeltaSnapshot] : a saved remote-vs-local playlist reconciliation
//
// [StashOutcome] enumerates the per-item results of a stash attempt.
package models
