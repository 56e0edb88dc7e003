package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/zlnvch/daybook/models"
	"github.com/zlnvch/daybook/store"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) EnsureUser(ctx context.Context, user models.User) (models.User, bool, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(models.User), args.Bool(1), args.Error(2)
}

func (m *MockStore) GetUser(ctx context.Context, userId string) (models.User, error) {
	args := m.Called(ctx, userId)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *MockStore) DeleteUser(ctx context.Context, userId string) error {
	args := m.Called(ctx, userId)
	return args.Error(0)
}

func (m *MockStore) AddChatTokens(ctx context.Context, userId string, delta int) error {
	args := m.Called(ctx, userId, delta)
	return args.Error(0)
}

func (m *MockStore) GetStreak(ctx context.Context, userId string) (models.StreakState, error) {
	args := m.Called(ctx, userId)
	return args.Get(0).(models.StreakState), args.Error(1)
}

func (m *MockStore) UpdateStreak(ctx context.Context, userId string, prev, next models.StreakState) error {
	args := m.Called(ctx, userId, prev, next)
	return args.Error(0)
}

func (m *MockStore) CreateLog(ctx context.Context, log models.DailyLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockStore) GetLog(ctx context.Context, logId string) (models.DailyLog, error) {
	args := m.Called(ctx, logId)
	return args.Get(0).(models.DailyLog), args.Error(1)
}

func (m *MockStore) ListLogs(ctx context.Context, userId string, startDate, endDate string, pageSize int, startAfter *store.Position) ([]models.DailyLog, error) {
	args := m.Called(ctx, userId, startDate, endDate, pageSize, startAfter)
	return args.Get(0).([]models.DailyLog), args.Error(1)
}

func (m *MockStore) UpdateLogContent(ctx context.Context, log models.DailyLog) (models.DailyLog, error) {
	args := m.Called(ctx, log)
	return args.Get(0).(models.DailyLog), args.Error(1)
}

func (m *MockStore) MarkLogFeedbackGenerated(ctx context.Context, userId string, date string) error {
	args := m.Called(ctx, userId, date)
	return args.Error(0)
}

func (m *MockStore) CreateGoal(ctx context.Context, goal models.Goal) error {
	args := m.Called(ctx, goal)
	return args.Error(0)
}

func (m *MockStore) GetGoal(ctx context.Context, goalId string) (models.Goal, error) {
	args := m.Called(ctx, goalId)
	return args.Get(0).(models.Goal), args.Error(1)
}

func (m *MockStore) ListGoals(ctx context.Context, userId string, status models.GoalStatus, pageSize int, startAfter *store.Position) ([]models.Goal, error) {
	args := m.Called(ctx, userId, status, pageSize, startAfter)
	return args.Get(0).([]models.Goal), args.Error(1)
}

func (m *MockStore) UpdateGoal(ctx context.Context, goal models.Goal) error {
	args := m.Called(ctx, goal)
	return args.Error(0)
}

func (m *MockStore) DeleteGoal(ctx context.Context, goal models.Goal) error {
	args := m.Called(ctx, goal)
	return args.Error(0)
}

func (m *MockStore) CreateFeedback(ctx context.Context, feedback models.AIFeedback) error {
	args := m.Called(ctx, feedback)
	return args.Error(0)
}

func (m *MockStore) GetFeedbackForLog(ctx context.Context, userId string, logId string) (models.AIFeedback, error) {
	args := m.Called(ctx, userId, logId)
	return args.Get(0).(models.AIFeedback), args.Error(1)
}

func (m *MockStore) GetFeedback(ctx context.Context, feedbackId string) (models.AIFeedback, error) {
	args := m.Called(ctx, feedbackId)
	return args.Get(0).(models.AIFeedback), args.Error(1)
}

func (m *MockStore) CreateChat(ctx context.Context, chat models.Chat) error {
	args := m.Called(ctx, chat)
	return args.Error(0)
}

func (m *MockStore) GetChat(ctx context.Context, chatId string) (models.Chat, error) {
	args := m.Called(ctx, chatId)
	return args.Get(0).(models.Chat), args.Error(1)
}

func (m *MockStore) ListChats(ctx context.Context, userId string, pageSize int, startAfter *store.Position) ([]models.Chat, error) {
	args := m.Called(ctx, userId, pageSize, startAfter)
	return args.Get(0).([]models.Chat), args.Error(1)
}

func (m *MockStore) AddChatMessage(ctx context.Context, chatId string, msg models.ChatMessage) error {
	args := m.Called(ctx, chatId, msg)
	return args.Error(0)
}

func (m *MockStore) GetCalendarMonth(ctx context.Context, userId string, year, month int) (models.CalendarMonth, error) {
	args := m.Called(ctx, userId, year, month)
	return args.Get(0).(models.CalendarMonth), args.Error(1)
}

func (m *MockStore) SetCalendarDay(ctx context.Context, userId string, year, month, day int, logId string, hasFeedback bool) error {
	args := m.Called(ctx, userId, year, month, day, logId, hasFeedback)
	return args.Error(0)
}

func (m *MockStore) MarkCalendarFeedback(ctx context.Context, userId string, year, month, day int) error {
	args := m.Called(ctx, userId, year, month, day)
	return args.Error(0)
}

func (m *MockStore) PurgeUserData(ctx context.Context, userId string) error {
	args := m.Called(ctx, userId)
	return args.Error(0)
}
