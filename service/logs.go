package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/zlnvch/daybook/clock"
	"github.com/zlnvch/daybook/models"
	"github.com/zlnvch/daybook/mq"
	"github.com/zlnvch/daybook/store"
)

// sideEffectTimeout bounds the background work a request leaves behind
// (streak advance, calendar update, embedding fan-out).
const sideEffectTimeout = 5 * time.Second

type CreateLogParams struct {
	User     models.User
	Date     string
	Content  string
	Timezone string
}

func (s *Service) CreateLog(ctx context.Context, params CreateLogParams) (models.DailyLog, error) {
	if err := s.Limiter.CheckAndConsume(ctx, params.User.Id, "default"); err != nil {
		return models.DailyLog{}, err
	}

	logDate, err := clock.ParseDate(params.Date)
	if err != nil {
		return models.DailyLog{}, fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}

	if err := clock.ValidateLogSubmission(params.Timezone, logDate, time.Now()); err != nil {
		return models.DailyLog{}, err
	}

	logUUID, err := uuid.NewV7()
	if err != nil {
		return models.DailyLog{}, err
	}

	now := time.Now().UTC()
	dailyLog := models.DailyLog{
		LogId:     logUUID.String(),
		UserId:    params.User.Id,
		Date:      logDate.String(),
		Content:   params.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.Store.CreateLog(ctx, dailyLog); err != nil {
		if errors.Is(err, store.ErrItemExists) {
			return models.DailyLog{}, fmt.Errorf("%w: %s", ErrLogExists, dailyLog.Date)
		}
		return models.DailyLog{}, err
	}

	// Async side-effects - the log write is the primary effect; streak,
	// calendar and embedding bookkeeping must not fail it.
	go s.afterLogCreated(params.User, dailyLog, logDate)

	return dailyLog, nil
}

func (s *Service) afterLogCreated(user models.User, dailyLog models.DailyLog, logDate clock.Date) {
	ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
	defer cancel()

	state, err := s.Streaks.Advance(ctx, user.Id, logDate)
	if err != nil {
		log.Printf("Failed to advance streak for user %s: %v", user.Id, err)
	} else if err := s.Cache.SetStreak(ctx, user.Id, state); err != nil {
		log.Printf("Failed to cache streak for user %s: %v", user.Id, err)
	}

	if err := s.Store.SetCalendarDay(ctx, user.Id, logDate.Year, int(logDate.Month), logDate.Day, dailyLog.LogId, false); err != nil {
		log.Printf("Failed to update calendar for user %s: %v", user.Id, err)
	}

	if user.Plan == models.PlanPaid {
		msg := mq.LogEmbeddingMessage{
			UserId:  user.Id,
			LogId:   dailyLog.LogId,
			Date:    dailyLog.Date,
			Content: dailyLog.Content,
		}
		if msgBytes, err := json.Marshal(msg); err == nil {
			if err := s.EmbedQueue.Send(ctx, string(msgBytes)); err != nil {
				log.Printf("Failed to enqueue embedding for log %s: %v", dailyLog.LogId, err)
			}
		}
	}
}

func (s *Service) ListLogs(ctx context.Context, user models.User, startDate, endDate string, pageSize int, pageToken string) ([]models.DailyLog, string, error) {
	if err := s.Limiter.CheckAndConsume(ctx, user.Id, "default"); err != nil {
		return nil, "", err
	}

	for _, d := range []string{startDate, endDate} {
		if d == "" {
			continue
		}
		if _, err := clock.ParseDate(d); err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrInvalidDate, err)
		}
	}

	pageSize = clampPageSize(pageSize)
	startAfter, err := decodePageToken(pageToken)
	if err != nil {
		return nil, "", err
	}

	logs, err := s.Store.ListLogs(ctx, user.Id, startDate, endDate, pageSize, startAfter)
	if err != nil {
		return nil, "", err
	}

	token := ""
	if len(logs) > 0 {
		last := logs[len(logs)-1]
		token = nextPageToken(len(logs), pageSize, last.Date, last.LogId)
	}
	return logs, token, nil
}

// GetLog returns the log and, when generated, its feedback.
func (s *Service) GetLog(ctx context.Context, user models.User, logId string) (models.DailyLog, *models.AIFeedback, error) {
	if err := s.Limiter.CheckAndConsume(ctx, user.Id, "default"); err != nil {
		return models.DailyLog{}, nil, err
	}

	dailyLog, err := s.ownedLog(ctx, user, logId)
	if err != nil {
		return models.DailyLog{}, nil, err
	}

	var feedback *models.AIFeedback
	if dailyLog.AiFeedbackGenerated {
		fb, err := s.Store.GetFeedbackForLog(ctx, user.Id, logId)
		if err == nil {
			feedback = &fb
		} else if !errors.Is(err, store.ErrItemNotFound) {
			return models.DailyLog{}, nil, err
		}
	}

	return dailyLog, feedback, nil
}

func (s *Service) UpdateLog(ctx context.Context, user models.User, logId string, content string) (models.DailyLog, error) {
	if err := s.Limiter.CheckAndConsume(ctx, user.Id, "default"); err != nil {
		return models.DailyLog{}, err
	}

	dailyLog, err := s.ownedLog(ctx, user, logId)
	if err != nil {
		return models.DailyLog{}, err
	}

	dailyLog.Content = content
	updated, err := s.Store.UpdateLogContent(ctx, dailyLog)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return models.DailyLog{}, fmt.Errorf("%w: log %s", ErrNotFound, logId)
		}
		return models.DailyLog{}, err
	}
	return updated, nil
}

// ownedLog fetches a log and distinguishes "absent" from "someone
// else's": callers map the former to 404, the latter to 403.
func (s *Service) ownedLog(ctx context.Context, user models.User, logId string) (models.DailyLog, error) {
	dailyLog, err := s.Store.GetLog(ctx, logId)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return models.DailyLog{}, fmt.Errorf("%w: log %s", ErrNotFound, logId)
		}
		return models.DailyLog{}, err
	}
	if dailyLog.UserId != user.Id {
		return models.DailyLog{}, fmt.Errorf("%w: log %s", ErrUnauthorized, logId)
	}
	return dailyLog, nil
}

func (s *Service) ListCalendarMonths(ctx context.Context, user models.User, startYear, startMonth, numMonths int) ([]models.CalendarMonth, error) {
	if err := s.Limiter.CheckAndConsume(ctx, user.Id, "default"); err != nil {
		return nil, err
	}

	if startMonth < 1 || startMonth > 12 {
		return nil, fmt.Errorf("%w: month %d", ErrInvalidDate, startMonth)
	}
	if numMonths < 1 {
		numMonths = 1
	}
	if numMonths > 12 {
		numMonths = 12
	}

	months := make([]models.CalendarMonth, 0, numMonths)
	for i := 0; i < numMonths; i++ {
		// time.Date normalizes month overflow across year boundaries
		t := time.Date(startYear, time.Month(startMonth+i), 1, 0, 0, 0, 0, time.UTC)

		doc, err := s.Store.GetCalendarMonth(ctx, user.Id, t.Year(), int(t.Month()))
		if err != nil {
			if !errors.Is(err, store.ErrItemNotFound) {
				return nil, err
			}
			doc = emptyCalendarMonth(user.Id, t.Year(), int(t.Month()))
		}
		months = append(months, doc)
	}
	return months, nil
}

func emptyCalendarMonth(userId string, year, month int) models.CalendarMonth {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := first.AddDate(0, 1, -1).Day()

	// time.Weekday starts at Sunday; clients expect 0 = Monday
	firstWeekday := (int(first.Weekday()) + 6) % 7

	days := make(map[string]models.CalendarDay, daysInMonth)
	for i := 0; i < daysInMonth; i++ {
		days[fmt.Sprint(i)] = models.CalendarDay{Day: i + 1}
	}

	return models.CalendarMonth{
		UserId:       userId,
		Year:         year,
		Month:        month,
		FirstWeekday: firstWeekday,
		Days:         days,
	}
}
