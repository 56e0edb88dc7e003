// Package ratelimit implements a fixed-window request limiter keyed by
// (userId, limitKey). Fixed windows are deliberately simple: across a
// window boundary a key can see up to twice its limit, which is an
// accepted approximation, not a bug.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zlnvch/daybook/models"
	"github.com/zlnvch/daybook/store"
)

var (
	ErrUnknownLimitKey   = errors.New("unknown rate limit key")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

type Config struct {
	Limit         int
	WindowSeconds int
}

// DefaultLimits maps every limit key the routes consume. Unknown keys
// are rejected rather than silently allowed.
var DefaultLimits = map[string]Config{
	"default":          {Limit: 15, WindowSeconds: 60},
	"request_feedback": {Limit: 3, WindowSeconds: 86400}, // 3/day
	"start_chat":       {Limit: 10, WindowSeconds: 3600},
	"send_message":     {Limit: 30, WindowSeconds: 3600},
}

// WindowStore persists rate windows with compare-and-swap semantics.
// Both mutating calls take the state the caller observed; if the stored
// state no longer matches (a concurrent request won the race) they fail
// with store.ErrConditionFailed and the caller re-reads.
type WindowStore interface {
	// GetRateWindow fails with store.ErrItemNotFound when no window
	// exists for the key.
	GetRateWindow(ctx context.Context, userId, limitKey string) (models.RateWindow, error)
	// ResetRateWindow overwrites the window with next. observed is the
	// previously read window, or nil when none existed.
	ResetRateWindow(ctx context.Context, userId, limitKey string, observed *models.RateWindow, next models.RateWindow, window time.Duration) error
	// IncrementRateWindow adds one to the counter of the observed
	// window.
	IncrementRateWindow(ctx context.Context, userId, limitKey string, observed models.RateWindow, window time.Duration) error
}

const maxRetries = 3

type Limiter struct {
	store  WindowStore
	limits map[string]Config

	// now is swappable in tests
	now func() time.Time
}

func NewLimiter(windowStore WindowStore, limits map[string]Config) *Limiter {
	if limits == nil {
		limits = DefaultLimits
	}
	return &Limiter{store: windowStore, limits: limits, now: time.Now}
}

// CheckAndConsume counts one request against (userId, limitKey).
// Returns nil when allowed, ErrRateLimitExceeded when the window is
// full, ErrUnknownLimitKey for an unconfigured key, and
// store.ErrTransactionConflict when CAS retries are exhausted.
func (l *Limiter) CheckAndConsume(ctx context.Context, userId, limitKey string) error {
	cfg, ok := l.limits[limitKey]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownLimitKey, limitKey)
	}
	window := time.Duration(cfg.WindowSeconds) * time.Second

	for attempt := 0; attempt <= maxRetries; attempt++ {
		now := l.now()
		earliestStart := now.Add(-window)

		win, err := l.store.GetRateWindow(ctx, userId, limitKey)
		if err != nil && !errors.Is(err, store.ErrItemNotFound) {
			return err
		}

		if errors.Is(err, store.ErrItemNotFound) || win.WindowStart.Before(earliestStart) {
			// No window yet, or the stored one has fully expired:
			// start fresh with this request counted.
			var observed *models.RateWindow
			if err == nil {
				observed = &win
			}
			next := models.RateWindow{Count: 1, WindowStart: now}
			err = l.store.ResetRateWindow(ctx, userId, limitKey, observed, next, window)
			if errors.Is(err, store.ErrConditionFailed) {
				continue
			}
			return err
		}

		if win.Count >= cfg.Limit {
			return ErrRateLimitExceeded
		}

		err = l.store.IncrementRateWindow(ctx, userId, limitKey, win, window)
		if errors.Is(err, store.ErrConditionFailed) {
			continue
		}
		return err
	}

	return store.ErrTransactionConflict
}
