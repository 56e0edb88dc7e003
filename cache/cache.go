package cache

import (
	"context"
	"time"

	"github.com/zlnvch/daybook/models"
)

// DaybookCache is the Redis-backed side store: rate-limit windows with
// compare-and-swap semantics, and a short-lived streak read cache.
// Window state is ephemeral by design; a flushed cache just restarts
// counting.
type DaybookCache interface {
	// GetRateWindow fails with store.ErrItemNotFound when no window
	// exists.
	GetRateWindow(ctx context.Context, userId, limitKey string) (models.RateWindow, error)
	// ResetRateWindow overwrites the window, but only while the stored
	// state still matches observed (nil = absent); otherwise it fails
	// with store.ErrConditionFailed.
	ResetRateWindow(ctx context.Context, userId, limitKey string, observed *models.RateWindow, next models.RateWindow, window time.Duration) error
	// IncrementRateWindow adds one request to the observed window under
	// the same compare-and-swap rule.
	IncrementRateWindow(ctx context.Context, userId, limitKey string, observed models.RateWindow, window time.Duration) error

	GetStreak(ctx context.Context, userId string) (models.StreakState, bool, error)
	SetStreak(ctx context.Context, userId string, state models.StreakState) error
	InvalidateStreak(ctx context.Context, userId string) error
}
