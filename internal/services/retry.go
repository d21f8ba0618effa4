package services

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// RetryPolicy controls retries of transient API failures.
//
// Attempt n (zero-based) that fails transiently waits Base^n seconds plus up to JitterFraction
// of that again before the next attempt. Quota, not-found and permanent failures never retry.
type RetryPolicy struct {
	MaxRetries     int
	Base           float64
	JitterFraction float64
	MaxBackoff     time.Duration
	Sleep          Sleeper
}

// DefaultRetryPolicy allows five retries (six attempts) on base 2.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:     5,
		Base:           2,
		JitterFraction: 0.25,
		MaxBackoff:     5 * time.Minute,
		Sleep:          sleepContext,
	}
}

// Backoff returns the wait after the zero-based attempt failed.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	base := p.Base
	if base < 1 {
		base = 2
	}
	d := time.Duration(math.Pow(base, float64(attempt)) * float64(time.Second))
	if p.JitterFraction > 0 {
		d += time.Duration(rand.Float64() * p.JitterFraction * float64(d))
	}
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		d = p.MaxBackoff
	}
	return d
}

func (p RetryPolicy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep == nil {
		return sleepContext(ctx, d)
	}
	return p.Sleep(ctx, d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
