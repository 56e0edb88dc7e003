// Package streak maintains the per-user daily streak counters. The
// transition function is pure; Engine wraps it in the store's
// compare-and-swap primitive so concurrent log submissions for the same
// user serialize instead of losing updates.
package streak

import (
	"context"
	"errors"
	"fmt"

	"github.com/zlnvch/daybook/clock"
	"github.com/zlnvch/daybook/models"
	"github.com/zlnvch/daybook/store"
)

// Advance computes the streak state after a log for logDate. It reacts
// only to the relationship between logDate and the stored
// LastCompletedDate, not to wall-clock today:
//
//   - first-ever log: streak starts at 1
//   - same date again: unchanged (idempotent re-submission)
//   - the day after LastCompletedDate: streak += 1
//   - anything else, including a date before LastCompletedDate: reset
//     to 1 and LastCompletedDate moves to logDate, even backward
//
// The backdating reset is intentional observed behavior; see DESIGN.md.
func Advance(state models.StreakState, logDate clock.Date) models.StreakState {
	next := state

	switch {
	case state.LastCompletedDate == "":
		next.CurrentStreak = 1
	case logDate.String() == state.LastCompletedDate:
		return state
	default:
		last, err := clock.ParseDate(state.LastCompletedDate)
		if err == nil && logDate == last.Next() {
			next.CurrentStreak = state.CurrentStreak + 1
		} else {
			next.CurrentStreak = 1
		}
	}

	if next.CurrentStreak > next.LongestStreak {
		next.LongestStreak = next.CurrentStreak
	}
	next.LastCompletedDate = logDate.String()
	return next
}

// StreakStore is the slice of the document store the engine needs.
type StreakStore interface {
	GetStreak(ctx context.Context, userId string) (models.StreakState, error)
	UpdateStreak(ctx context.Context, userId string, prev, next models.StreakState) error
}

const maxRetries = 3

type Engine struct {
	store StreakStore
}

func NewEngine(streakStore StreakStore) *Engine {
	return &Engine{store: streakStore}
}

// Advance records a completed log for logDate and returns the resulting
// state. Reads then conditionally writes the full state; a concurrent
// update for the same user fails the condition and the whole
// read-modify-write is retried, so a stale read is never applied.
func (e *Engine) Advance(ctx context.Context, userId string, logDate clock.Date) (models.StreakState, error) {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		cur, err := e.store.GetStreak(ctx, userId)
		if err != nil && !errors.Is(err, store.ErrItemNotFound) {
			return models.StreakState{}, fmt.Errorf("read streak: %w", err)
		}

		next := Advance(cur, logDate)
		if next == cur {
			return cur, nil
		}

		err = e.store.UpdateStreak(ctx, userId, cur, next)
		if errors.Is(err, store.ErrConditionFailed) {
			continue
		}
		if err != nil {
			return models.StreakState{}, fmt.Errorf("write streak: %w", err)
		}
		return next, nil
	}

	return models.StreakState{}, store.ErrTransactionConflict
}
