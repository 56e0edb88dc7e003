package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/zlnvch/daybook/models"
)

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetRateWindow(ctx context.Context, userId, limitKey string) (models.RateWindow, error) {
	args := m.Called(ctx, userId, limitKey)
	return args.Get(0).(models.RateWindow), args.Error(1)
}

func (m *MockCache) ResetRateWindow(ctx context.Context, userId, limitKey string, observed *models.RateWindow, next models.RateWindow, window time.Duration) error {
	args := m.Called(ctx, userId, limitKey, observed, next, window)
	return args.Error(0)
}

func (m *MockCache) IncrementRateWindow(ctx context.Context, userId, limitKey string, observed models.RateWindow, window time.Duration) error {
	args := m.Called(ctx, userId, limitKey, observed, window)
	return args.Error(0)
}

func (m *MockCache) GetStreak(ctx context.Context, userId string) (models.StreakState, bool, error) {
	args := m.Called(ctx, userId)
	return args.Get(0).(models.StreakState), args.Bool(1), args.Error(2)
}

func (m *MockCache) SetStreak(ctx context.Context, userId string, state models.StreakState) error {
	args := m.Called(ctx, userId, state)
	return args.Error(0)
}

func (m *MockCache) InvalidateStreak(ctx context.Context, userId string) error {
	args := m.Called(ctx, userId)
	return args.Error(0)
}
