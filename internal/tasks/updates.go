package tasks

import (
	"fmt"

	"github.com/desertthunder/stasher/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	SyncPlaylist Phase = iota
	SyncVideos
	Reconcile
	StashPlanning
	StashSkip
	StashConfirm
	StashBatch
	StashItem
	StashPace
	StashSummary
	StashDone
)

func (p Phase) String() string {
	switch p {
	case SyncPlaylist:
		return "sync_playlist"
	case SyncVideos:
		return "sync_videos"
	case Reconcile:
		return "reconcile"
	case StashPlanning:
		return "stash_plan"
	case StashSkip:
		return "stash_skip"
	case StashConfirm:
		return "stash_confirm"
	case StashBatch:
		return "stash_batch"
	case StashItem:
		return "stash_item"
	case StashPace:
		return "stash_pace"
	case StashSummary:
		return "stash_summary"
	case StashDone:
		return "stash_done"
	default:
		return ""
	}
}

func syncPlaylistUpdate(id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SyncPlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching playlist metadata (%s)...", id),
	}
}

func syncVideoUpdate(step, total int, v *models.Video, changed bool) ProgressUpdate {
	msg := fmt.Sprintf("Unchanged: %s", v.Title)
	if changed {
		msg = fmt.Sprintf("Updated: %s", v.Title)
	}
	return ProgressUpdate{Phase: SyncVideos, Step: step, Total: total, Message: msg, Data: v}
}

func reconcileUpdate(step, total int, channelID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Reconcile,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Listing playlists of channel %s...", channelID),
	}
}

func stashPlanUpdate(p *models.Playlist, videos int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   StashPlanning,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist %s has %d videos", p.Title, videos),
		Data:    p,
	}
}

func stashSkipUpdate(step, total int, v models.Video) ProgressUpdate {
	return ProgressUpdate{
		Phase:   StashSkip,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Skipping %s (already stashed)", v.Title),
		Data:    v,
	}
}

func stashConfirmUpdate(plan *StashPlan) ProgressUpdate {
	return ProgressUpdate{
		Phase:   StashConfirm,
		Message: fmt.Sprintf("Ready to stash %d videos in %d batches", len(plan.ToDownload), plan.Batches),
		Data:    plan,
	}
}

func stashBatchUpdate(step, total, size int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   StashBatch,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Processing batch %d/%d (%d videos)", step, total, size),
	}
}

func stashItemUpdate(step, total int, item ItemResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   StashItem,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("%s: %s", item.Outcome, item.Video.Title),
		Data:    item,
	}
}

func stashPaceUpdate(step, total int, delay string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   StashPace,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Waiting %s before the next batch...", delay),
	}
}

func stashSummaryUpdate(report StashReport) ProgressUpdate {
	return ProgressUpdate{
		Phase:   StashSummary,
		Step:    report.Completed,
		Total:   report.Total,
		Message: fmt.Sprintf("Progress %d/%d", report.Completed, report.Total),
		Data:    report,
	}
}

func stashDoneUpdate(result *StashResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   StashDone,
		Step:    result.Report.Completed,
		Total:   result.Report.Total,
		Message: fmt.Sprintf("Stash %s", result.State),
		Data:    result,
	}
}
