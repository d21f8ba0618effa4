package services

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/stasher/internal/shared"
)

func TestQuotaLedger(t *testing.T) {
	t.Run("warns once when crossing the threshold", func(t *testing.T) {
		var buf bytes.Buffer
		ledger := NewQuotaLedger(100, 0.8, shared.NewLogger(&buf))

		if ledger.Charge(79) {
			t.Error("did not expect warning below threshold")
		}
		if !ledger.Charge(1) {
			t.Error("expected warning at threshold")
		}
		if ledger.Charge(10) {
			t.Error("expected a single warning per window")
		}
		if ledger.Used() != 90 {
			t.Errorf("expected 90 used, got %d", ledger.Used())
		}
		if ledger.Remaining() != 10 {
			t.Errorf("expected 10 remaining, got %d", ledger.Remaining())
		}
		if count := strings.Count(buf.String(), "approaching daily API quota"); count != 1 {
			t.Errorf("expected one warning line, got %d", count)
		}
	})

	t.Run("resets after a day", func(t *testing.T) {
		now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
		ledger := NewQuotaLedger(10, 0.5, shared.NewLogger(&bytes.Buffer{}))
		ledger.SetClock(func() time.Time { return now })

		if !ledger.Charge(6) {
			t.Fatal("expected warning")
		}

		now = now.Add(23 * time.Hour)
		ledger.Charge(1)
		if ledger.Used() != 7 {
			t.Errorf("expected usage to carry within the window, got %d", ledger.Used())
		}

		now = now.Add(time.Hour)
		if !ledger.Charge(5) {
			t.Error("expected warning to re-arm after reset")
		}
		if ledger.Used() != 5 {
			t.Errorf("expected usage to reset, got %d", ledger.Used())
		}
	})

	t.Run("remaining never negative", func(t *testing.T) {
		ledger := NewQuotaLedger(5, 0.8, shared.NewLogger(&bytes.Buffer{}))
		ledger.Charge(9)
		if ledger.Remaining() != 0 {
			t.Errorf("expected 0 remaining, got %d", ledger.Remaining())
		}
	})

	t.Run("defaults invalid settings", func(t *testing.T) {
		ledger := NewQuotaLedger(0, 2, nil)
		if ledger.limit != DefaultDailyQuota || ledger.threshold != DefaultWarningThreshold {
			t.Errorf("expected defaults, got limit=%d threshold=%v", ledger.limit, ledger.threshold)
		}
	})
}

func TestRetryPolicyBackoff(t *testing.T) {
	p := RetryPolicy{MaxRetries: 5, Base: 2}
	for attempt, want := range []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second} {
		if got := p.Backoff(attempt); got != want {
			t.Errorf("attempt %d: expected %v, got %v", attempt, want, got)
		}
	}

	t.Run("jitter is bounded", func(t *testing.T) {
		p := RetryPolicy{Base: 2, JitterFraction: 0.25}
		for range 50 {
			got := p.Backoff(2)
			if got < 4*time.Second || got > 5*time.Second {
				t.Fatalf("expected backoff within [4s, 5s], got %v", got)
			}
		}
	})

	t.Run("capped", func(t *testing.T) {
		p := RetryPolicy{Base: 2, MaxBackoff: 3 * time.Second}
		if got := p.Backoff(4); got != 3*time.Second {
			t.Errorf("expected cap of 3s, got %v", got)
		}
	})
}
