package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/stasher/internal/models"
	"github.com/desertthunder/stasher/internal/shared"
	"github.com/desertthunder/stasher/internal/tasks"
)

const rule = "=================================================="

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func minutes(d time.Duration) string {
	return fmt.Sprintf("%d seconds (%.1f minutes)", int(d.Seconds()), d.Minutes())
}

// RenderPlan formats the summary shown before a stash is confirmed.
func RenderPlan(plan *tasks.StashPlan) string {
	var b strings.Builder
	b.WriteString(rule + "\n")
	b.WriteString(styles.Title("Stash Summary") + "\n")
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Playlist: %s\n", styles.OK(plan.Playlist.Title))
	fmt.Fprintf(&b, "Number of videos to stash: %s\n", styles.OK(fmt.Sprint(len(plan.ToDownload))))
	if n := len(plan.AlreadyStashed); n > 0 {
		fmt.Fprintf(&b, "Already stashed: %s\n", styles.Warning(fmt.Sprint(n)))
	}
	fmt.Fprintf(&b, "Output path: %s\n", styles.OK(plan.OutputPath))
	fmt.Fprintf(&b, "Audio only: %s\n", styles.OK(yesNo(plan.AudioOnly)))
	fmt.Fprintf(&b, "Batch size: %s (%d batches)\n", styles.OK(fmt.Sprint(plan.BatchSize)), plan.Batches)
	fmt.Fprintf(&b, "Delay between batches: %s\n", styles.OK(minutes(plan.BatchDelay)))
	fmt.Fprintf(&b, "Summary interval: %s\n", styles.OK(minutes(plan.SummaryInterval)))
	b.WriteString(rule)
	return b.String()
}

// RenderReport formats a progress snapshot of a stash run.
func RenderReport(r tasks.StashReport) string {
	var b strings.Builder
	b.WriteString(rule + "\n")
	b.WriteString(styles.Title("Stashing Progress") + "\n")
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Progress: %s videos\n", styles.OK(fmt.Sprintf("%d/%d", r.Completed, r.Total)))
	fmt.Fprintf(&b, "Stashed: %s\n", styles.OK(fmt.Sprint(r.Stashed)))
	fmt.Fprintf(&b, "Skipped (already present): %s\n", styles.Warning(fmt.Sprint(r.Skipped)))
	if r.Failed > 0 {
		fmt.Fprintf(&b, "Failed: %s\n", styles.Error(fmt.Sprint(r.Failed)))
	}
	fmt.Fprintf(&b, "Elapsed time: %s\n", shared.FormatDuration(r.Elapsed))
	fmt.Fprintf(&b, "Average speed: %.2f videos/hour\n", r.PerHour)
	fmt.Fprintf(&b, "Estimated completion time: %s\n", r.ETA.Local().Format(time.DateTime))
	b.WriteString(rule)
	return b.String()
}

// RenderItem formats the outcome of one video.
func RenderItem(item tasks.ItemResult) string {
	id := item.Video.ID
	var msg string
	switch item.Outcome {
	case models.OutcomeDownloaded:
		msg = "Successfully stashed video " + id
	case models.OutcomeAlreadyStashed:
		msg = fmt.Sprintf("Video %s already exists in the database", id)
	case models.OutcomeFileNotFound:
		msg = fmt.Sprintf("File not found after stashing for video %s. This might be due to an issue with file conversion or permissions.", id)
	case models.OutcomeDownloadError:
		msg = fmt.Sprintf("yt-dlp stashing error for video %s. The video might be unavailable or restricted.", id)
	default:
		msg = fmt.Sprintf("Unexpected error stashing video %s. Please check the logs for more details.", id)
	}
	return styles.ForOutcome(item.Outcome, msg)
}

// RenderProgress formats a progress update as a single line.
func RenderProgress(u tasks.ProgressUpdate) string {
	switch u.Phase {
	case tasks.StashItem:
		if item, ok := u.Data.(tasks.ItemResult); ok {
			return RenderItem(item)
		}
	case tasks.StashSummary:
		if r, ok := u.Data.(tasks.StashReport); ok {
			return RenderReport(r)
		}
	}
	return styles.ForPhase(u.Phase, u.Message)
}
