package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/stasher/internal/models"
	"github.com/desertthunder/stasher/internal/shared"
)

// Delta partitions the remote playlist enumeration by local presence.
//
// Every playlist in All lands in exactly one of Known or Unknown, in enumeration order.
type Delta struct {
	All     []models.Playlist
	Known   []models.Playlist
	Unknown []models.Playlist
}

// Payload projects the delta to the persisted {id, title} form.
func (d *Delta) Payload() models.DeltaPayload {
	return models.DeltaPayload{All: refs(d.All), Known: refs(d.Known), Unknown: refs(d.Unknown)}
}

func refs(playlists []models.Playlist) []models.PlaylistRef {
	out := make([]models.PlaylistRef, 0, len(playlists))
	for _, p := range playlists {
		out = append(out, models.PlaylistRef{ID: p.ID, Title: p.Title})
	}
	return out
}

// Reconciler compares the user's remote playlists with the local store.
type Reconciler struct {
	remote Remote
	store  DeltaStore
	logger *log.Logger
}

// NewReconciler creates a new Reconciler.
func NewReconciler(remote Remote, store DeltaStore, logger *log.Logger) *Reconciler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Reconciler{remote: remote, store: store, logger: logger}
}

// Reconcile enumerates every playlist of every channel the user owns and partitions them.
func (r *Reconciler) Reconcile(ctx context.Context, progress chan<- ProgressUpdate) (*Delta, error) {
	channels, err := r.remote.MyChannelIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}

	known, err := r.store.ListKnownPlaylists()
	if err != nil {
		return nil, err
	}
	local := make(map[string]bool, len(known))
	for _, ref := range known {
		local[ref.ID] = true
	}

	delta := &Delta{All: []models.Playlist{}, Known: []models.Playlist{}, Unknown: []models.Playlist{}}
	for i, ch := range channels {
		sendProgress(progress, reconcileUpdate(i+1, len(channels), ch))

		playlists, err := r.remote.ChannelPlaylists(ctx, ch)
		if err != nil {
			return nil, fmt.Errorf("failed to list playlists of channel %s: %w", ch, err)
		}
		for _, p := range playlists {
			delta.All = append(delta.All, p)
			if local[p.ID] {
				delta.Known = append(delta.Known, p)
			} else {
				delta.Unknown = append(delta.Unknown, p)
			}
		}
	}

	r.logger.Info("reconciled playlists", "channels", len(channels), "all", len(delta.All), "known", len(delta.Known), "unknown", len(delta.Unknown))
	return delta, nil
}

// Persist saves the delta as a snapshot and returns its id.
func (r *Reconciler) Persist(delta *Delta) (int64, error) {
	id, err := r.store.SaveDeltaSnapshot(delta.Payload())
	if err != nil {
		return 0, err
	}
	r.logger.Info("saved delta snapshot", "id", id)
	return id, nil
}
