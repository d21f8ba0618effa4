package tasks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/stasher/internal/models"
	"github.com/desertthunder/stasher/internal/services"
	"github.com/desertthunder/stasher/internal/shared"
)

// StashState is the lifecycle state of a stash run.
type StashState int

const (
	StatePlanning StashState = iota
	StateConfirming
	StateBatching
	StateDone
	StateAborted
)

func (s StashState) String() string {
	switch s {
	case StatePlanning:
		return "planning"
	case StateConfirming:
		return "confirming"
	case StateBatching:
		return "batching"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	default:
		return ""
	}
}

const (
	DefaultBatchSize       = 3
	DefaultBatchDelay      = 1200 * time.Second
	DefaultSummaryInterval = 300 * time.Second
)

// StashOptions configures a playlist stash run.
type StashOptions struct {
	PlaylistID        string
	OutputPath        string
	AudioOnly         bool
	UsePlaylistFolder bool
	BatchSize         int
	BatchDelay        time.Duration
	SummaryInterval   time.Duration
	Concurrency       int // downloads in flight within a batch
}

func (o *StashOptions) withDefaults() {
	if o.OutputPath == "" {
		o.OutputPath = "downloads"
	}
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.BatchDelay < 0 {
		o.BatchDelay = 0
	}
	if o.SummaryInterval <= 0 {
		o.SummaryInterval = DefaultSummaryInterval
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 1
	}
}

// StashPlan is what the user is asked to confirm.
type StashPlan struct {
	RunID           string
	Playlist        models.Playlist
	ToDownload      []models.Video
	AlreadyStashed  []models.Video
	OutputPath      string
	AudioOnly       bool
	BatchSize       int
	Batches         int
	BatchDelay      time.Duration
	SummaryInterval time.Duration
}

// Confirmer decides whether a planned run proceeds.
type Confirmer interface {
	Confirm(ctx context.Context, plan *StashPlan) (bool, error)
}

// ConfirmFunc adapts a function to [Confirmer].
type ConfirmFunc func(ctx context.Context, plan *StashPlan) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, plan *StashPlan) (bool, error) {
	return f(ctx, plan)
}

// ItemResult is the outcome of one video in a batch.
type ItemResult struct {
	Batch    int
	Video    models.Video
	Outcome  models.StashOutcome
	FilePath string
	Err      error
}

// StashResult reports a finished, declined or interrupted run.
type StashResult struct {
	RunID     string
	State     StashState
	Plan      *StashPlan
	Items     []ItemResult
	Summaries []StashReport
	Report    StashReport
}

// StashOrchestrator stashes a playlist in paced batches.
type StashOrchestrator struct {
	sync      *SyncService
	ledger    DownloadLedger
	stasher   Stasher
	confirmer Confirmer
	pacer     Pacer
	now       func() time.Time
	logger    *log.Logger
}

// StashOption customizes a [StashOrchestrator].
type StashOption func(*StashOrchestrator)

// WithConfirmer sets the confirmation gate. Without one every run is declined.
func WithConfirmer(c Confirmer) StashOption {
	return func(o *StashOrchestrator) { o.confirmer = c }
}

// WithPacer replaces the inter-batch wait.
func WithPacer(p Pacer) StashOption {
	return func(o *StashOrchestrator) { o.pacer = p }
}

// WithClock replaces the clock used for progress reports.
func WithClock(now func() time.Time) StashOption {
	return func(o *StashOrchestrator) { o.now = now }
}

// NewStashOrchestrator creates a new StashOrchestrator.
func NewStashOrchestrator(syncer *SyncService, ledger DownloadLedger, stasher Stasher, logger *log.Logger, opts ...StashOption) *StashOrchestrator {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	o := &StashOrchestrator{
		sync:    syncer,
		ledger:  ledger,
		stasher: stasher,
		pacer:   TickerPacer{},
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Confirming returns a copy of the orchestrator that asks c before each run.
func (o *StashOrchestrator) Confirming(c Confirmer) *StashOrchestrator {
	cp := *o
	cp.confirmer = c
	return &cp
}

// Run plans, confirms and executes a stash of one playlist.
//
// A declined confirmation ends in [StateAborted] with no error. Cancellation is honoured
// before each batch and during pacing, never mid-download. Per-item failures are reported in
// the result; only remote and storage failures are returned as errors.
func (o *StashOrchestrator) Run(ctx context.Context, progress chan<- ProgressUpdate, opts StashOptions) (*StashResult, error) {
	opts.withDefaults()
	result := &StashResult{RunID: shared.GenerateID(), State: StatePlanning, Items: []ItemResult{}, Summaries: []StashReport{}}
	logger := o.logger.With("run", result.RunID, "playlist", opts.PlaylistID)

	plan, err := o.plan(ctx, progress, opts, result.RunID)
	if err != nil {
		result.State = StateAborted
		return result, err
	}
	result.Plan = plan

	if len(plan.ToDownload) == 0 {
		logger.Info("nothing to stash", "already_stashed", len(plan.AlreadyStashed))
		result.State = StateDone
		result.Report = NewStashReport(o.now(), o.now(), 0, 0, 0, 0)
		sendProgress(progress, stashDoneUpdate(result))
		return result, nil
	}

	result.State = StateConfirming
	sendProgress(progress, stashConfirmUpdate(plan))
	ok := false
	if o.confirmer != nil {
		if ok, err = o.confirmer.Confirm(ctx, plan); err != nil {
			result.State = StateAborted
			return result, fmt.Errorf("confirmation failed: %w", err)
		}
	}
	if !ok {
		logger.Info("stash declined")
		result.State = StateAborted
		sendProgress(progress, stashDoneUpdate(result))
		return result, nil
	}

	if err := os.MkdirAll(plan.OutputPath, 0o755); err != nil {
		result.State = StateAborted
		return result, fmt.Errorf("failed to create output directory: %w", err)
	}

	result.State = StateBatching
	err = o.runBatches(ctx, progress, plan, opts, result, logger)
	if err != nil {
		result.State = StateAborted
	} else {
		result.State = StateDone
	}
	sendProgress(progress, stashDoneUpdate(result))
	logger.Info("stash finished", "state", result.State, "stashed", result.Report.Stashed, "skipped", result.Report.Skipped, "failed", result.Report.Failed)
	return result, err
}

func (o *StashOrchestrator) plan(ctx context.Context, progress chan<- ProgressUpdate, opts StashOptions, runID string) (*StashPlan, error) {
	sendProgress(progress, syncPlaylistUpdate(opts.PlaylistID))
	p, err := o.sync.fetchPlaylist(ctx, opts.PlaylistID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, opts.PlaylistID)
	}

	synced, err := o.sync.refresh(ctx, progress, opts.PlaylistID, p)
	if err != nil {
		return nil, err
	}
	sendProgress(progress, stashPlanUpdate(synced.Playlist, len(synced.Videos)))

	plan := &StashPlan{
		RunID:           runID,
		Playlist:        *synced.Playlist,
		ToDownload:      []models.Video{},
		AlreadyStashed:  []models.Video{},
		OutputPath:      opts.OutputPath,
		AudioOnly:       opts.AudioOnly,
		BatchSize:       opts.BatchSize,
		BatchDelay:      opts.BatchDelay,
		SummaryInterval: opts.SummaryInterval,
	}
	if opts.UsePlaylistFolder {
		plan.OutputPath = filepath.Join(opts.OutputPath, shared.SanitizeFilename(synced.Playlist.Title))
	}

	// playlists may list a video more than once
	seen := make(map[string]bool, len(synced.Videos))
	for i, v := range synced.Videos {
		downloaded, _, err := o.ledger.DownloadStatus(v.ID)
		if err != nil {
			return nil, err
		}
		if downloaded || seen[v.ID] {
			plan.AlreadyStashed = append(plan.AlreadyStashed, v)
			sendProgress(progress, stashSkipUpdate(i+1, len(synced.Videos), v))
			continue
		}
		seen[v.ID] = true
		plan.ToDownload = append(plan.ToDownload, v)
	}
	plan.Batches = (len(plan.ToDownload) + plan.BatchSize - 1) / plan.BatchSize
	return plan, nil
}

func (o *StashOrchestrator) runBatches(ctx context.Context, progress chan<- ProgressUpdate, plan *StashPlan, opts StashOptions, result *StashResult, logger *log.Logger) error {
	start := o.now()
	lastSummary := start
	total := len(plan.ToDownload)
	var stashed, skipped, failed int

	report := func() StashReport {
		return NewStashReport(start, o.now(), stashed, skipped, failed, total)
	}
	summarize := func() {
		r := report()
		lastSummary = o.now()
		result.Summaries = append(result.Summaries, r)
		sendProgress(progress, stashSummaryUpdate(r))
		logger.Info("stash progress", "completed", r.Completed, "total", r.Total, "stashed", r.Stashed, "skipped", r.Skipped, "elapsed", shared.FormatDuration(r.Elapsed))
	}

	batches := chunk(plan.ToDownload, plan.BatchSize)
	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			result.Report = report()
			return err
		}
		sendProgress(progress, stashBatchUpdate(i+1, len(batches), len(batch)))

		items, err := o.runBatch(ctx, plan, i+1, batch, opts.Concurrency)
		for _, item := range items {
			switch {
			case item.Outcome == models.OutcomeDownloaded:
				stashed++
			case item.Outcome == models.OutcomeAlreadyStashed:
				skipped++
			case item.Outcome.Failed():
				failed++
			}
			result.Items = append(result.Items, item)
			sendProgress(progress, stashItemUpdate(len(result.Items), total, item))
		}
		if err != nil {
			result.Report = report()
			return err
		}

		if i == len(batches)-1 {
			break
		}

		sendProgress(progress, stashPaceUpdate(i+1, len(batches), shared.FormatDuration(plan.BatchDelay)))
		err = o.pacer.Pace(ctx, plan.BatchDelay, plan.SummaryInterval, func() {
			if o.now().Sub(lastSummary) >= plan.SummaryInterval {
				summarize()
			}
		})
		if err != nil {
			result.Report = report()
			return err
		}
	}

	summarize()
	result.Report = report()
	return nil
}

// runBatch stashes one batch with up to concurrency downloads in flight. Items keep batch order.
// Each item re-checks the download history immediately before fetching. Every item that
// completed is returned alongside the first storage error.
func (o *StashOrchestrator) runBatch(ctx context.Context, plan *StashPlan, batchNo int, batch []models.Video, concurrency int) ([]ItemResult, error) {
	items := make([]ItemResult, len(batch))
	errs := make([]error, len(batch))
	sem := make(chan struct{}, max(concurrency, 1))

	var wg sync.WaitGroup
	for i, v := range batch {
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			items[i], errs[i] = o.stashOne(ctx, plan, batchNo, v)
		}()
	}
	wg.Wait()

	done := []ItemResult{}
	var firstErr error
	for i, item := range items {
		if errs[i] != nil {
			if firstErr == nil {
				firstErr = errs[i]
			}
			continue
		}
		done = append(done, item)
	}
	return done, firstErr
}

func (o *StashOrchestrator) stashOne(ctx context.Context, plan *StashPlan, batchNo int, v models.Video) (ItemResult, error) {
	item := ItemResult{Batch: batchNo, Video: v}

	existing, err := o.ledger.ExistingDownloads(v.ID)
	if err != nil {
		return item, err
	}
	if len(existing) > 0 {
		item.Outcome = models.OutcomeAlreadyStashed
		item.FilePath = existing[len(existing)-1].FilePath
		return item, nil
	}

	res, err := o.stasher.Stash(ctx, services.StashRequest{
		VideoID:   v.ID,
		URL:       v.WatchURL(),
		OutputDir: plan.OutputPath,
		AudioOnly: plan.AudioOnly,
	})
	if err != nil {
		return item, err
	}
	item.Outcome = res.Outcome
	item.FilePath = res.FilePath
	item.Err = res.Err
	return item, nil
}

func chunk(videos []models.Video, size int) [][]models.Video {
	batches := [][]models.Video{}
	for start := 0; start < len(videos); start += size {
		batches = append(batches, videos[start:min(start+size, len(videos))])
	}
	return batches
}

// IsAborted reports whether err ended a run early through cancellation.
func IsAborted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
