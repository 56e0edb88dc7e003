package streak_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/zlnvch/daybook/clock"
	"github.com/zlnvch/daybook/models"
	"github.com/zlnvch/daybook/store"
	storemocks "github.com/zlnvch/daybook/store/mocks"
	"github.com/zlnvch/daybook/streak"
)

func date(y int, m time.Month, d int) clock.Date {
	return clock.NewDate(y, m, d)
}

func TestAdvance(t *testing.T) {
	tests := []struct {
		name  string
		state models.StreakState
		log   clock.Date
		want  models.StreakState
	}{
		{
			"First Log",
			models.StreakState{},
			date(2025, time.December, 18),
			models.StreakState{CurrentStreak: 1, LongestStreak: 1, LastCompletedDate: "2025-12-18"},
		},
		{
			"Same Date Is NoOp",
			models.StreakState{CurrentStreak: 4, LongestStreak: 7, LastCompletedDate: "2025-12-18"},
			date(2025, time.December, 18),
			models.StreakState{CurrentStreak: 4, LongestStreak: 7, LastCompletedDate: "2025-12-18"},
		},
		{
			"Consecutive Day",
			models.StreakState{CurrentStreak: 4, LongestStreak: 7, LastCompletedDate: "2025-12-18"},
			date(2025, time.December, 19),
			models.StreakState{CurrentStreak: 5, LongestStreak: 7, LastCompletedDate: "2025-12-19"},
		},
		{
			"Consecutive Day Sets New Longest",
			models.StreakState{CurrentStreak: 7, LongestStreak: 7, LastCompletedDate: "2025-12-18"},
			date(2025, time.December, 19),
			models.StreakState{CurrentStreak: 8, LongestStreak: 8, LastCompletedDate: "2025-12-19"},
		},
		{
			"Gap Resets",
			models.StreakState{CurrentStreak: 4, LongestStreak: 7, LastCompletedDate: "2025-12-18"},
			date(2025, time.December, 22),
			models.StreakState{CurrentStreak: 1, LongestStreak: 7, LastCompletedDate: "2025-12-22"},
		},
		{
			"Backdated Log Resets And Moves Date Backward",
			models.StreakState{CurrentStreak: 4, LongestStreak: 7, LastCompletedDate: "2025-12-18"},
			date(2025, time.December, 15),
			models.StreakState{CurrentStreak: 1, LongestStreak: 7, LastCompletedDate: "2025-12-15"},
		},
		{
			"Consecutive Across Year Boundary",
			models.StreakState{CurrentStreak: 2, LongestStreak: 2, LastCompletedDate: "2025-12-31"},
			date(2026, time.January, 1),
			models.StreakState{CurrentStreak: 3, LongestStreak: 3, LastCompletedDate: "2026-01-01"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := streak.Advance(tc.state, tc.log)
			assert.Equal(t, tc.want, got)
			assert.GreaterOrEqual(t, got.LongestStreak, got.CurrentStreak)
		})
	}
}

func TestAdvance_Idempotent(t *testing.T) {
	state := models.StreakState{CurrentStreak: 3, LongestStreak: 5, LastCompletedDate: "2025-12-18"}
	d := date(2025, time.December, 19)

	once := streak.Advance(state, d)
	twice := streak.Advance(once, d)
	assert.Equal(t, once, twice)
}

func TestAdvance_Scenario(t *testing.T) {
	// No prior state, log the 18th, the 19th, then skip to the 22nd.
	state := streak.Advance(models.StreakState{}, date(2025, time.December, 18))
	assert.Equal(t, 1, state.CurrentStreak)
	assert.Equal(t, 1, state.LongestStreak)

	state = streak.Advance(state, date(2025, time.December, 19))
	assert.Equal(t, 2, state.CurrentStreak)
	assert.Equal(t, 2, state.LongestStreak)

	state = streak.Advance(state, date(2025, time.December, 22))
	assert.Equal(t, 1, state.CurrentStreak)
	assert.Equal(t, 2, state.LongestStreak)
}

func TestEngineAdvance_FirstLog(t *testing.T) {
	mockStore := new(storemocks.MockStore)
	engine := streak.NewEngine(mockStore)
	ctx := context.Background()

	mockStore.On("GetStreak", ctx, "user1").Return(models.StreakState{}, store.ErrItemNotFound)
	want := models.StreakState{CurrentStreak: 1, LongestStreak: 1, LastCompletedDate: "2025-12-18"}
	mockStore.On("UpdateStreak", ctx, "user1", models.StreakState{}, want).Return(nil)

	got, err := engine.Advance(ctx, "user1", date(2025, time.December, 18))
	assert.NoError(t, err)
	assert.Equal(t, want, got)
	mockStore.AssertExpectations(t)
}

func TestEngineAdvance_SameDateSkipsWrite(t *testing.T) {
	mockStore := new(storemocks.MockStore)
	engine := streak.NewEngine(mockStore)
	ctx := context.Background()

	current := models.StreakState{CurrentStreak: 3, LongestStreak: 3, LastCompletedDate: "2025-12-18"}
	mockStore.On("GetStreak", ctx, "user1").Return(current, nil)

	got, err := engine.Advance(ctx, "user1", date(2025, time.December, 18))
	assert.NoError(t, err)
	assert.Equal(t, current, got)
	mockStore.AssertNotCalled(t, "UpdateStreak", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEngineAdvance_RetriesLostRace(t *testing.T) {
	mockStore := new(storemocks.MockStore)
	engine := streak.NewEngine(mockStore)
	ctx := context.Background()

	// First read is stale: a concurrent writer already recorded the
	// 18th, so the conditional write fails and the engine re-reads.
	stale := models.StreakState{CurrentStreak: 2, LongestStreak: 2, LastCompletedDate: "2025-12-17"}
	fresh := models.StreakState{CurrentStreak: 3, LongestStreak: 3, LastCompletedDate: "2025-12-18"}

	mockStore.On("GetStreak", ctx, "user1").Return(stale, nil).Once()
	mockStore.On("UpdateStreak", ctx, "user1", stale, mock.Anything).Return(store.ErrConditionFailed).Once()

	mockStore.On("GetStreak", ctx, "user1").Return(fresh, nil).Once()
	want := models.StreakState{CurrentStreak: 4, LongestStreak: 4, LastCompletedDate: "2025-12-19"}
	mockStore.On("UpdateStreak", ctx, "user1", fresh, want).Return(nil).Once()

	got, err := engine.Advance(ctx, "user1", date(2025, time.December, 19))
	assert.NoError(t, err)
	assert.Equal(t, want, got)
	mockStore.AssertExpectations(t)
}

func TestEngineAdvance_ConflictExhausted(t *testing.T) {
	mockStore := new(storemocks.MockStore)
	engine := streak.NewEngine(mockStore)
	ctx := context.Background()

	mockStore.On("GetStreak", ctx, "user1").Return(models.StreakState{}, store.ErrItemNotFound)
	mockStore.On("UpdateStreak", ctx, "user1", mock.Anything, mock.Anything).Return(store.ErrConditionFailed)

	_, err := engine.Advance(ctx, "user1", date(2025, time.December, 18))
	assert.ErrorIs(t, err, store.ErrTransactionConflict)
}
