package service

import (
	"context"
	"errors"
	"log"

	"github.com/zlnvch/daybook/models"
	"github.com/zlnvch/daybook/store"
)

// GetStreak reads through the Redis cache; a user who has never logged
// gets the zero state, not an error.
func (s *Service) GetStreak(ctx context.Context, user models.User) (models.StreakState, error) {
	if err := s.Limiter.CheckAndConsume(ctx, user.Id, "default"); err != nil {
		return models.StreakState{}, err
	}

	state, found, err := s.Cache.GetStreak(ctx, user.Id)
	if err != nil {
		log.Printf("Streak cache read failed for user %s: %v", user.Id, err)
	} else if found {
		return state, nil
	}

	state, err = s.Store.GetStreak(ctx, user.Id)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return models.StreakState{}, nil
		}
		return models.StreakState{}, err
	}

	if err := s.Cache.SetStreak(ctx, user.Id, state); err != nil {
		log.Printf("Streak cache write failed for user %s: %v", user.Id, err)
	}
	return state, nil
}
