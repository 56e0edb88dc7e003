package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/zlnvch/daybook/models"
	"github.com/zlnvch/daybook/store"
)

func (s *Service) CreateGoal(ctx context.Context, user models.User, text string, tags []string) (models.Goal, error) {
	if err := s.Limiter.CheckAndConsume(ctx, user.Id, "default"); err != nil {
		return models.Goal{}, err
	}

	goalUUID, err := uuid.NewV7()
	if err != nil {
		return models.Goal{}, err
	}

	goal := models.Goal{
		GoalId:    goalUUID.String(),
		UserId:    user.Id,
		Text:      text,
		Tags:      tags,
		Status:    models.GoalInProgress,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.Store.CreateGoal(ctx, goal); err != nil {
		return models.Goal{}, err
	}
	return goal, nil
}

func (s *Service) ListGoals(ctx context.Context, user models.User, status models.GoalStatus, pageSize int, pageToken string) ([]models.Goal, string, error) {
	if err := s.Limiter.CheckAndConsume(ctx, user.Id, "default"); err != nil {
		return nil, "", err
	}

	if status == "" {
		status = models.GoalInProgress
	}

	pageSize = clampPageSize(pageSize)
	startAfter, err := decodePageToken(pageToken)
	if err != nil {
		return nil, "", err
	}

	goals, err := s.Store.ListGoals(ctx, user.Id, status, pageSize, startAfter)
	if err != nil {
		return nil, "", err
	}

	token := ""
	if len(goals) > 0 {
		last := goals[len(goals)-1]
		token = nextPageToken(len(goals), pageSize, store.FormatSortTime(last.CreatedAt), last.GoalId)
	}
	return goals, token, nil
}

func (s *Service) UpdateGoal(ctx context.Context, user models.User, goalId string, text string, tags []string) (models.Goal, error) {
	if err := s.Limiter.CheckAndConsume(ctx, user.Id, "default"); err != nil {
		return models.Goal{}, err
	}

	goal, err := s.ownedGoal(ctx, user, goalId)
	if err != nil {
		return models.Goal{}, err
	}

	goal.Text = text
	goal.Tags = tags
	if err := s.Store.UpdateGoal(ctx, goal); err != nil {
		return models.Goal{}, err
	}
	return goal, nil
}

func (s *Service) CompleteGoal(ctx context.Context, user models.User, goalId string) (models.Goal, error) {
	if err := s.Limiter.CheckAndConsume(ctx, user.Id, "default"); err != nil {
		return models.Goal{}, err
	}

	goal, err := s.ownedGoal(ctx, user, goalId)
	if err != nil {
		return models.Goal{}, err
	}

	goal.Status = models.GoalCompleted
	if err := s.Store.UpdateGoal(ctx, goal); err != nil {
		return models.Goal{}, err
	}
	return goal, nil
}

func (s *Service) DeleteGoal(ctx context.Context, user models.User, goalId string) error {
	if err := s.Limiter.CheckAndConsume(ctx, user.Id, "default"); err != nil {
		return err
	}

	goal, err := s.ownedGoal(ctx, user, goalId)
	if err != nil {
		return err
	}

	return s.Store.DeleteGoal(ctx, goal)
}

func (s *Service) ownedGoal(ctx context.Context, user models.User, goalId string) (models.Goal, error) {
	goal, err := s.Store.GetGoal(ctx, goalId)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return models.Goal{}, fmt.Errorf("%w: goal %s", ErrNotFound, goalId)
		}
		return models.Goal{}, err
	}
	if goal.UserId != user.Id {
		return models.Goal{}, fmt.Errorf("%w: goal %s", ErrUnauthorized, goalId)
	}
	return goal, nil
}
