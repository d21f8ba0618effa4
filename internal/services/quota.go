package services

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

const (
	DefaultDailyQuota       = 10000
	DefaultWarningThreshold = 0.8
	quotaWindow             = 24 * time.Hour
)

// QuotaLedger estimates API quota spent in the current daily window.
//
// The API reports exhaustion on its own; the ledger only warns once per window when spending
// crosses the threshold.
type QuotaLedger struct {
	mu        sync.Mutex
	limit     int
	threshold float64
	used      int
	warned    bool
	resetAt   time.Time
	now       func() time.Time
	logger    *log.Logger
}

// NewQuotaLedger creates a ledger with the given daily limit and warning threshold (0..1).
func NewQuotaLedger(limit int, threshold float64, logger *log.Logger) *QuotaLedger {
	if limit <= 0 {
		limit = DefaultDailyQuota
	}
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultWarningThreshold
	}
	if logger == nil {
		logger = log.Default()
	}
	l := &QuotaLedger{limit: limit, threshold: threshold, now: time.Now, logger: logger}
	l.resetAt = l.now()
	return l
}

// SetClock replaces the ledger clock and restarts the window at its current time.
func (l *QuotaLedger) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
	l.resetAt = now()
}

// Charge records cost units and reports whether this charge crossed the warning threshold.
func (l *QuotaLedger) Charge(cost int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.now().Sub(l.resetAt) >= quotaWindow {
		l.used = 0
		l.warned = false
		l.resetAt = l.now()
		l.logger.Debug("quota window reset")
	}

	l.used += cost
	if l.warned || float64(l.used) < l.threshold*float64(l.limit) {
		return false
	}

	l.warned = true
	l.logger.Warn("approaching daily API quota", "used", l.used, "limit", l.limit)
	return true
}

// Used returns the units charged in the current window.
func (l *QuotaLedger) Used() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.used
}

// Remaining returns the estimated units left in the current window.
func (l *QuotaLedger) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return max(l.limit-l.used, 0)
}
