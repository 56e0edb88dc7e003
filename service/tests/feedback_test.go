package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/zlnvch/daybook/clock"
	"github.com/zlnvch/daybook/models"
	"github.com/zlnvch/daybook/ratelimit"
	"github.com/zlnvch/daybook/service"
	"github.com/zlnvch/daybook/store"
)

func TestRequestFeedback_Success(t *testing.T) {
	svc, mockStore, mockCache, _, _, mockGen := setupService(t)
	ctx := context.Background()

	timezone, logDateStr := feedbackZoneAndDate(t)
	logDate, err := clock.ParseDate(logDateStr)
	assert.NoError(t, err)

	user := models.User{Id: "user1", Timezone: timezone}
	expectRateAllowed(mockCache, user.Id, "request_feedback")

	dailyLog := models.DailyLog{LogId: "log1", UserId: user.Id, Date: logDateStr, Content: "busy day"}
	prevLogs := []models.DailyLog{
		dailyLog, // excluded from the generation context
		{LogId: "log0", UserId: user.Id, Date: "2025-06-01", Content: "earlier"},
	}
	goals := []models.Goal{{GoalId: "goal1", UserId: user.Id, Text: "sleep more", Tags: []string{"health"}}}

	mockStore.On("GetFeedbackForLog", ctx, user.Id, "log1").
		Return(models.AIFeedback{}, store.ErrItemNotFound)
	mockStore.On("GetLog", ctx, "log1").Return(dailyLog, nil)
	mockStore.On("ListLogs", ctx, user.Id, "", "", 3, (*store.Position)(nil)).
		Return(prevLogs, nil)
	mockStore.On("ListGoals", ctx, user.Id, models.GoalInProgress, 20, (*store.Position)(nil)).
		Return(goals, nil)

	mockGen.On("Generate", ctx, mock.Anything, mock.MatchedBy(func(input string) bool {
		// The generation context carries the log itself but not as a
		// "previous" log, plus the user's in-progress goals.
		return strings.Contains(input, "busy day") &&
			strings.Contains(input, "sleep more") &&
			strings.Count(input, "busy day") == 1
	})).Return("keep at it", nil)
	mockGen.On("ModelVersion").Return("gemini-2.5-flash-lite")

	mockStore.On("CreateFeedback", ctx, mock.MatchedBy(func(f models.AIFeedback) bool {
		return f.LogId == "log1" && f.UserId == user.Id && f.Content == "keep at it" &&
			f.ModelVersion == "gemini-2.5-flash-lite" && f.FeedbackId != ""
	})).Return(nil)
	mockStore.On("MarkLogFeedbackGenerated", ctx, user.Id, logDateStr).Return(nil)
	mockStore.On("MarkCalendarFeedback", ctx, user.Id, logDate.Year, int(logDate.Month), logDate.Day).Return(nil)

	feedback, err := svc.RequestFeedback(ctx, user, "log1", timezone)
	assert.NoError(t, err)
	assert.Equal(t, "keep at it", feedback.Content)
	assert.NotEmpty(t, feedback.FeedbackId)
	mockStore.AssertExpectations(t)
}

func TestRequestFeedback_AlreadyGenerated(t *testing.T) {
	svc, mockStore, mockCache, _, _, mockGen := setupService(t)
	ctx := context.Background()

	user := models.User{Id: "user1"}
	expectRateAllowed(mockCache, user.Id, "request_feedback")

	existing := models.AIFeedback{FeedbackId: "fb1", LogId: "log1", UserId: user.Id, Content: "already here"}
	mockStore.On("GetFeedbackForLog", ctx, user.Id, "log1").Return(existing, nil)

	feedback, err := svc.RequestFeedback(ctx, user, "log1", "UTC")
	assert.NoError(t, err)
	assert.Equal(t, existing, feedback)

	// No second generation for the same log.
	mockGen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
	mockStore.AssertNotCalled(t, "CreateFeedback", mock.Anything, mock.Anything)
}

func TestRequestFeedback_OtherUsersLog(t *testing.T) {
	svc, mockStore, mockCache, _, _, mockGen := setupService(t)
	ctx := context.Background()

	user := models.User{Id: "user1"}
	expectRateAllowed(mockCache, user.Id, "request_feedback")

	mockStore.On("GetFeedbackForLog", ctx, user.Id, "log1").
		Return(models.AIFeedback{}, store.ErrItemNotFound)
	mockStore.On("GetLog", ctx, "log1").
		Return(models.DailyLog{LogId: "log1", UserId: "someone-else"}, nil)

	_, err := svc.RequestFeedback(ctx, user, "log1", "UTC")
	assert.ErrorIs(t, err, service.ErrUnauthorized)
	mockGen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
}

func TestRequestFeedback_OutsideWindow(t *testing.T) {
	svc, mockStore, mockCache, _, _, mockGen := setupService(t)
	ctx := context.Background()

	user := models.User{Id: "user1"}
	expectRateAllowed(mockCache, user.Id, "request_feedback")

	// Feedback opens at noon the day after the log; a log dated two days
	// ahead is outside the window in every timezone.
	future := clock.DateOf(time.Now().UTC()).AddDays(2)
	dailyLog := models.DailyLog{LogId: "log1", UserId: user.Id, Date: future.String()}

	mockStore.On("GetFeedbackForLog", ctx, user.Id, "log1").
		Return(models.AIFeedback{}, store.ErrItemNotFound)
	mockStore.On("GetLog", ctx, "log1").Return(dailyLog, nil)

	_, err := svc.RequestFeedback(ctx, user, "log1", "UTC")

	var windowErr *clock.WindowError
	assert.ErrorAs(t, err, &windowErr)
	assert.Equal(t, clock.OutsideFeedbackWindow, windowErr.Kind)
	mockGen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
}

func TestRequestFeedback_GenerationFails(t *testing.T) {
	svc, mockStore, mockCache, _, _, mockGen := setupService(t)
	ctx := context.Background()

	timezone, logDateStr := feedbackZoneAndDate(t)
	user := models.User{Id: "user1", Timezone: timezone}
	expectRateAllowed(mockCache, user.Id, "request_feedback")

	dailyLog := models.DailyLog{LogId: "log1", UserId: user.Id, Date: logDateStr, Content: "busy day"}

	mockStore.On("GetFeedbackForLog", ctx, user.Id, "log1").
		Return(models.AIFeedback{}, store.ErrItemNotFound)
	mockStore.On("GetLog", ctx, "log1").Return(dailyLog, nil)
	mockStore.On("ListLogs", ctx, user.Id, "", "", 3, (*store.Position)(nil)).
		Return([]models.DailyLog{}, nil)
	mockStore.On("ListGoals", ctx, user.Id, models.GoalInProgress, 20, (*store.Position)(nil)).
		Return([]models.Goal{}, nil)
	mockGen.On("Generate", ctx, mock.Anything, mock.Anything).Return("", assert.AnError)

	_, err := svc.RequestFeedback(ctx, user, "log1", timezone)
	assert.ErrorIs(t, err, service.ErrGenerationFailed)
	mockStore.AssertNotCalled(t, "CreateFeedback", mock.Anything, mock.Anything)
}

func TestRequestFeedback_RateLimited(t *testing.T) {
	svc, mockStore, mockCache, _, _, _ := setupService(t)
	ctx := context.Background()

	user := models.User{Id: "user1"}
	expectRateLimited(mockCache, user.Id, "request_feedback", 3)

	_, err := svc.RequestFeedback(ctx, user, "log1", "UTC")
	assert.ErrorIs(t, err, ratelimit.ErrRateLimitExceeded)
	mockStore.AssertNotCalled(t, "GetFeedbackForLog", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetFeedback_Success(t *testing.T) {
	svc, mockStore, mockCache, _, _, _ := setupService(t)
	ctx := context.Background()

	user := models.User{Id: "user1"}
	expectRateAllowed(mockCache, user.Id, "default")

	feedback := models.AIFeedback{FeedbackId: "fb1", LogId: "log1", UserId: user.Id, Content: "solid work"}
	mockStore.On("GetFeedbackForLog", ctx, user.Id, "log1").Return(feedback, nil)

	got, err := svc.GetFeedback(ctx, user, "log1")
	assert.NoError(t, err)
	assert.Equal(t, feedback, got)
}

func TestGetFeedback_NotFound(t *testing.T) {
	svc, mockStore, mockCache, _, _, _ := setupService(t)
	ctx := context.Background()

	user := models.User{Id: "user1"}
	expectRateAllowed(mockCache, user.Id, "default")

	mockStore.On("GetFeedbackForLog", ctx, user.Id, "log1").
		Return(models.AIFeedback{}, store.ErrItemNotFound)

	_, err := svc.GetFeedback(ctx, user, "log1")
	assert.ErrorIs(t, err, service.ErrNotFound)
}
