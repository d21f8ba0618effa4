// Package repositories implements the SQLite change-detection store.
//
// Every upsert recomputes a content hash over the entity's meaningful fields (timestamps and
// hashes excluded), compares it with the stored value and reports whether it changed. Callers
// never compute hashes themselves.
//
// Key Implementations:
//   - [PlaylistRepository] : playlist metadata and fetch freshness
//   - [VideoRepository] : per-playlist video metadata
//   - [DownloadRepository] : append-only download history, the stash dedup signal
//   - [SnapshotRepository] : saved reconciliation snapshots
//
// [Store] composes the four and is what the tasks package depends on.
package repositories
