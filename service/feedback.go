package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/zlnvch/daybook/clock"
	"github.com/zlnvch/daybook/models"
	"github.com/zlnvch/daybook/store"
)

const feedbackInstructions = "You are an assistant designed to give helpful and valuable feedback on a user's log of their day. " +
	"You will be given the user's log of their day, some of their most recent logs, and their goals. Use these to generate valuable feedback. " +
	"Note: This is standalone feedback and isn't a conversation, so please provide all the feedback you think is necessary in one message."

const contextLogCount = 3

func buildFeedbackInput(current models.DailyLog, prevLogs []models.DailyLog, goals []models.Goal) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "New Log:\nDate: %s\n%s\n\n", current.Date, current.Content)

	sb.WriteString("Previous Logs:\n")
	for i, l := range prevLogs {
		fmt.Fprintf(&sb, "%d. %s: %s\n\n", i+1, l.Date, l.Content)
	}

	sb.WriteString("Goals:\n")
	for i, g := range goals {
		fmt.Fprintf(&sb, "%d. %s\nTags: %s\n", i+1, g.Text, strings.Join(g.Tags, ", "))
	}
	return sb.String()
}

// RequestFeedback generates AI feedback for a log. Idempotent: if
// feedback already exists it is returned as-is, so re-requests never
// burn a generation.
func (s *Service) RequestFeedback(ctx context.Context, user models.User, logId string, timezone string) (models.AIFeedback, error) {
	if err := s.Limiter.CheckAndConsume(ctx, user.Id, "request_feedback"); err != nil {
		return models.AIFeedback{}, err
	}

	existing, err := s.Store.GetFeedbackForLog(ctx, user.Id, logId)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrItemNotFound) {
		return models.AIFeedback{}, err
	}

	dailyLog, err := s.ownedLog(ctx, user, logId)
	if err != nil {
		return models.AIFeedback{}, err
	}

	logDate, err := clock.ParseDate(dailyLog.Date)
	if err != nil {
		return models.AIFeedback{}, fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	if err := clock.ValidateFeedbackRequest(timezone, logDate, time.Now()); err != nil {
		return models.AIFeedback{}, err
	}

	// Context gathering failures are tolerable; generation proceeds with
	// whatever was fetched.
	prevLogs, err := s.Store.ListLogs(ctx, user.Id, "", "", contextLogCount, nil)
	if err != nil {
		log.Printf("Failed to list recent logs for feedback context: %v", err)
	}
	recent := make([]models.DailyLog, 0, len(prevLogs))
	for _, l := range prevLogs {
		if l.LogId != logId {
			recent = append(recent, l)
		}
	}

	goals, err := s.Store.ListGoals(ctx, user.Id, models.GoalInProgress, defaultPageSize, nil)
	if err != nil {
		log.Printf("Failed to list goals for feedback context: %v", err)
	}

	input := buildFeedbackInput(dailyLog, recent, goals)
	content, err := s.Generator.Generate(ctx, feedbackInstructions, input)
	if err != nil {
		return models.AIFeedback{}, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	feedbackUUID, err := uuid.NewV7()
	if err != nil {
		return models.AIFeedback{}, err
	}

	feedback := models.AIFeedback{
		FeedbackId:   feedbackUUID.String(),
		LogId:        logId,
		UserId:       user.Id,
		Content:      content,
		ModelVersion: s.Generator.ModelVersion(),
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.Store.CreateFeedback(ctx, feedback); err != nil {
		return models.AIFeedback{}, err
	}

	// Bookkeeping failures must not lose the generated feedback.
	if err := s.Store.MarkLogFeedbackGenerated(ctx, user.Id, dailyLog.Date); err != nil {
		log.Printf("Failed to mark log %s feedback generated: %v", logId, err)
	}
	if err := s.Store.MarkCalendarFeedback(ctx, user.Id, logDate.Year, int(logDate.Month), logDate.Day); err != nil {
		log.Printf("Failed to mark calendar feedback for user %s: %v", user.Id, err)
	}

	return feedback, nil
}

func (s *Service) GetFeedback(ctx context.Context, user models.User, logId string) (models.AIFeedback, error) {
	if err := s.Limiter.CheckAndConsume(ctx, user.Id, "default"); err != nil {
		return models.AIFeedback{}, err
	}

	feedback, err := s.Store.GetFeedbackForLog(ctx, user.Id, logId)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return models.AIFeedback{}, fmt.Errorf("%w: feedback for log %s", ErrNotFound, logId)
		}
		return models.AIFeedback{}, err
	}
	return feedback, nil
}
