package tasks

import (
	"time"
)

// StashReport is a progress snapshot of a stash run.
//
// Completed counts stashed and skipped items only; failures do not advance the ETA.
type StashReport struct {
	Start     time.Time     `json:"start"`
	Elapsed   time.Duration `json:"elapsed"`
	Stashed   int           `json:"stashed"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Completed int           `json:"completed"`
	Total     int           `json:"total"`
	PerHour   float64       `json:"per_hour"`
	ETA       time.Time     `json:"eta"`
}

// NewStashReport computes throughput and a linear completion estimate. With nothing completed
// the ETA is the start time.
func NewStashReport(start, now time.Time, stashed, skipped, failed, total int) StashReport {
	elapsed := max(now.Sub(start), 0)
	completed := stashed + skipped

	r := StashReport{
		Start:     start,
		Elapsed:   elapsed,
		Stashed:   stashed,
		Skipped:   skipped,
		Failed:    failed,
		Completed: completed,
		Total:     total,
		ETA:       start,
	}
	if hours := elapsed.Hours(); hours > 0 {
		r.PerHour = float64(completed) / hours
	}
	if completed > 0 {
		r.ETA = start.Add(time.Duration(float64(elapsed) / float64(completed) * float64(total)))
	}
	return r
}
