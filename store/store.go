package store

import (
	"context"
	"errors"
	"time"

	"github.com/zlnvch/daybook/models"
)

// SortTimeLayout is fixed-width UTC so lexicographic order on sort keys
// matches chronological order. Cursor tokens carry these exact strings;
// reformatting them would lose ordering precision.
const SortTimeLayout = "2006-01-02T15:04:05.000000000Z"

func FormatSortTime(t time.Time) string {
	return t.UTC().Format(SortTimeLayout)
}

// Custom error types for clarity
var (
	ErrItemNotFound    = errors.New("item does not exist")
	ErrItemExists      = errors.New("item already exists")
	ErrConditionFailed = errors.New("condition not met")

	// ErrTransactionConflict is surfaced after a bounded number of
	// compare-and-swap retries keep losing to concurrent writers. It is
	// transient; callers may retry the whole operation.
	ErrTransactionConflict = errors.New("transaction conflict")
)

// Position is a resume point for a range query: the sort-key value and
// document id of the last item already returned. Queries resume strictly
// after it under the listing's (sortField, direction).
type Position struct {
	SortValue string
	DocID     string
}

type DaybookStore interface {
	EnsureUser(ctx context.Context, user models.User) (models.User, bool, error)
	GetUser(ctx context.Context, userId string) (models.User, error)
	DeleteUser(ctx context.Context, userId string) error
	AddChatTokens(ctx context.Context, userId string, delta int) error

	// GetStreak returns the zero StreakState (not an error) for a user
	// who has never logged.
	GetStreak(ctx context.Context, userId string) (models.StreakState, error)
	// UpdateStreak writes next only if the stored state still equals
	// prev (compare-and-swap); a lost race fails with
	// ErrConditionFailed. Creates the state on first write.
	UpdateStreak(ctx context.Context, userId string, prev, next models.StreakState) error

	// CreateLog enforces one log per (user, date); a duplicate date
	// fails with ErrItemExists.
	CreateLog(ctx context.Context, log models.DailyLog) error
	GetLog(ctx context.Context, logId string) (models.DailyLog, error)
	ListLogs(ctx context.Context, userId string, startDate, endDate string, pageSize int, startAfter *Position) ([]models.DailyLog, error)
	UpdateLogContent(ctx context.Context, log models.DailyLog) (models.DailyLog, error)
	MarkLogFeedbackGenerated(ctx context.Context, userId string, date string) error

	CreateGoal(ctx context.Context, goal models.Goal) error
	GetGoal(ctx context.Context, goalId string) (models.Goal, error)
	ListGoals(ctx context.Context, userId string, status models.GoalStatus, pageSize int, startAfter *Position) ([]models.Goal, error)
	UpdateGoal(ctx context.Context, goal models.Goal) error
	DeleteGoal(ctx context.Context, goal models.Goal) error

	CreateFeedback(ctx context.Context, feedback models.AIFeedback) error
	GetFeedbackForLog(ctx context.Context, userId string, logId string) (models.AIFeedback, error)
	GetFeedback(ctx context.Context, feedbackId string) (models.AIFeedback, error)

	CreateChat(ctx context.Context, chat models.Chat) error
	GetChat(ctx context.Context, chatId string) (models.Chat, error)
	ListChats(ctx context.Context, userId string, pageSize int, startAfter *Position) ([]models.Chat, error)
	AddChatMessage(ctx context.Context, chatId string, msg models.ChatMessage) error

	GetCalendarMonth(ctx context.Context, userId string, year, month int) (models.CalendarMonth, error)
	SetCalendarDay(ctx context.Context, userId string, year, month, day int, logId string, hasFeedback bool) error
	MarkCalendarFeedback(ctx context.Context, userId string, year, month, day int) error

	// PurgeUserData deletes every item owned by the user (logs, goals,
	// feedback, chats and their messages, calendar months). Used by the
	// async purge worker after account deletion.
	PurgeUserData(ctx context.Context, userId string) error
}
