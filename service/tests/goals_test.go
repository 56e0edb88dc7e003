package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/zlnvch/daybook/cursor"
	"github.com/zlnvch/daybook/models"
	"github.com/zlnvch/daybook/service"
	"github.com/zlnvch/daybook/store"
)

func TestCreateGoal_Success(t *testing.T) {
	svc, mockStore, mockCache, _, _, _ := setupService(t)
	ctx := context.Background()

	user := models.User{Id: "user1"}
	expectRateAllowed(mockCache, user.Id, "default")

	mockStore.On("CreateGoal", ctx, mock.MatchedBy(func(g models.Goal) bool {
		return g.UserId == user.Id && g.Text == "run every morning" &&
			g.Status == models.GoalInProgress && g.GoalId != ""
	})).Return(nil)

	goal, err := svc.CreateGoal(ctx, user, "run every morning", []string{"health"})
	assert.NoError(t, err)
	assert.Equal(t, models.GoalInProgress, goal.Status)
	assert.Equal(t, []string{"health"}, goal.Tags)
	assert.False(t, goal.CreatedAt.IsZero())
}

func TestListGoals_DefaultsToInProgress(t *testing.T) {
	svc, mockStore, mockCache, _, _, _ := setupService(t)
	ctx := context.Background()

	user := models.User{Id: "user1"}
	expectRateAllowed(mockCache, user.Id, "default")

	mockStore.On("ListGoals", ctx, user.Id, models.GoalInProgress, 20, (*store.Position)(nil)).
		Return([]models.Goal{}, nil)

	_, token, err := svc.ListGoals(ctx, user, "", 0, "")
	assert.NoError(t, err)
	assert.Empty(t, token)
	mockStore.AssertExpectations(t)
}

func TestListGoals_FullPageEmitsToken(t *testing.T) {
	svc, mockStore, mockCache, _, _, _ := setupService(t)
	ctx := context.Background()

	user := models.User{Id: "user1"}
	expectRateAllowed(mockCache, user.Id, "default")

	pageSize := 3
	base := time.Date(2025, time.June, 1, 9, 30, 0, 123456789, time.UTC)
	goals := make([]models.Goal, pageSize)
	for i := range goals {
		goals[i] = models.Goal{
			GoalId:    fmt.Sprintf("goal%d", i),
			UserId:    user.Id,
			CreatedAt: base.Add(-time.Duration(i) * time.Hour),
		}
	}

	mockStore.On("ListGoals", ctx, user.Id, models.GoalCompleted, pageSize, (*store.Position)(nil)).
		Return(goals, nil)

	got, token, err := svc.ListGoals(ctx, user, models.GoalCompleted, pageSize, "")
	assert.NoError(t, err)
	assert.Len(t, got, pageSize)

	// The token carries the stored sort-key string verbatim so the next
	// page resumes at exactly the right row.
	pos, err := cursor.Decode(token)
	assert.NoError(t, err)
	assert.Equal(t, store.FormatSortTime(goals[2].CreatedAt), pos.SortValue)
	assert.Equal(t, "goal2", pos.DocID)
}

func TestUpdateGoal_Success(t *testing.T) {
	svc, mockStore, mockCache, _, _, _ := setupService(t)
	ctx := context.Background()

	user := models.User{Id: "user1"}
	expectRateAllowed(mockCache, user.Id, "default")

	existing := models.Goal{GoalId: "goal1", UserId: user.Id, Text: "old", Status: models.GoalInProgress}
	mockStore.On("GetGoal", ctx, "goal1").Return(existing, nil)
	mockStore.On("UpdateGoal", ctx, mock.MatchedBy(func(g models.Goal) bool {
		return g.GoalId == "goal1" && g.Text == "new" && len(g.Tags) == 1
	})).Return(nil)

	got, err := svc.UpdateGoal(ctx, user, "goal1", "new", []string{"focus"})
	assert.NoError(t, err)
	assert.Equal(t, "new", got.Text)
}

func TestUpdateGoal_OtherUsersGoal(t *testing.T) {
	svc, mockStore, mockCache, _, _, _ := setupService(t)
	ctx := context.Background()

	user := models.User{Id: "user1"}
	expectRateAllowed(mockCache, user.Id, "default")

	mockStore.On("GetGoal", ctx, "goal1").
		Return(models.Goal{GoalId: "goal1", UserId: "someone-else"}, nil)

	_, err := svc.UpdateGoal(ctx, user, "goal1", "new", nil)
	assert.ErrorIs(t, err, service.ErrUnauthorized)
	mockStore.AssertNotCalled(t, "UpdateGoal", mock.Anything, mock.Anything)
}

func TestCompleteGoal_Success(t *testing.T) {
	svc, mockStore, mockCache, _, _, _ := setupService(t)
	ctx := context.Background()

	user := models.User{Id: "user1"}
	expectRateAllowed(mockCache, user.Id, "default")

	existing := models.Goal{GoalId: "goal1", UserId: user.Id, Status: models.GoalInProgress}
	mockStore.On("GetGoal", ctx, "goal1").Return(existing, nil)
	mockStore.On("UpdateGoal", ctx, mock.MatchedBy(func(g models.Goal) bool {
		return g.GoalId == "goal1" && g.Status == models.GoalCompleted
	})).Return(nil)

	got, err := svc.CompleteGoal(ctx, user, "goal1")
	assert.NoError(t, err)
	assert.Equal(t, models.GoalCompleted, got.Status)
}

func TestDeleteGoal_Success(t *testing.T) {
	svc, mockStore, mockCache, _, _, _ := setupService(t)
	ctx := context.Background()

	user := models.User{Id: "user1"}
	expectRateAllowed(mockCache, user.Id, "default")

	existing := models.Goal{GoalId: "goal1", UserId: user.Id, CreatedAt: time.Now()}
	mockStore.On("GetGoal", ctx, "goal1").Return(existing, nil)
	mockStore.On("DeleteGoal", ctx, existing).Return(nil)

	err := svc.DeleteGoal(ctx, user, "goal1")
	assert.NoError(t, err)
	mockStore.AssertExpectations(t)
}

func TestDeleteGoal_NotFound(t *testing.T) {
	svc, mockStore, mockCache, _, _, _ := setupService(t)
	ctx := context.Background()

	user := models.User{Id: "user1"}
	expectRateAllowed(mockCache, user.Id, "default")

	mockStore.On("GetGoal", ctx, "missing").Return(models.Goal{}, store.ErrItemNotFound)

	err := svc.DeleteGoal(ctx, user, "missing")
	assert.ErrorIs(t, err, service.ErrNotFound)
}
