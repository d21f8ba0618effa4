// Package tasks orchestrates playlist sync, reconciliation and stashing with real-time progress reporting.
//
// # Core Operations
//
//  1. [SyncService] : pulls playlist and video metadata into the store
//     - [SyncService.RefreshPlaylistMetadata] reports whether the playlist content changed
//     - [SyncService.RefreshPlaylistItems] returns the ids of changed videos, in playlist order
//     - [SyncService.RefreshAll] composes both and marks the playlist fetched
//
//  2. [Reconciler] : compares the user's remote playlists with what the store knows
//     - Known and Unknown partition All by local presence only, not by content
//     - [Reconciler.Persist] saves the result as an immutable snapshot
//
//  3. [StashOrchestrator] : downloads a playlist in paced batches
//     - PLANNING syncs the playlist and splits videos into to-download and already-stashed
//     - CONFIRMING asks a [Confirmer]; declining aborts with nothing written
//     - BATCHING re-checks download history before each item, then waits out the batch delay
//     - DONE emits a final [StashReport]
//
// # Progress Reporting
//
// All operations take an optional channel of [ProgressUpdate].
// Updates use select with default to prevent blocking.
//
// # Errors
//
// Per-item download failures are converted to outcomes. Quota exhaustion, other remote
// failures and storage failures propagate to the caller.
package tasks
