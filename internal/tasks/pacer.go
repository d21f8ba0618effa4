package tasks

import (
	"context"
	"time"
)

// Pacer waits out the delay between batches, calling tick periodically so progress summaries
// can be emitted during long waits.
type Pacer interface {
	Pace(ctx context.Context, delay, interval time.Duration, tick func()) error
}

// TickerPacer is the wall-clock [Pacer].
type TickerPacer struct{}

// Pace blocks for delay, ticking every interval (capped at delay). Returns ctx.Err() if
// cancelled first.
func (TickerPacer) Pace(ctx context.Context, delay, interval time.Duration, tick func()) error {
	if delay <= 0 {
		return ctx.Err()
	}
	if interval <= 0 || interval > delay {
		interval = delay
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			tick()
			return nil
		case <-ticker.C:
			tick()
		}
	}
}
