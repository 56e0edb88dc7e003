package service_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	aimocks "github.com/zlnvch/daybook/ai/mocks"
	cachemocks "github.com/zlnvch/daybook/cache/mocks"
	"github.com/zlnvch/daybook/clock"
	"github.com/zlnvch/daybook/models"
	mqmocks "github.com/zlnvch/daybook/mq/mocks"
	"github.com/zlnvch/daybook/ratelimit"
	"github.com/zlnvch/daybook/service"
	"github.com/zlnvch/daybook/store"
	storemocks "github.com/zlnvch/daybook/store/mocks"
	"github.com/zlnvch/daybook/worker"
)

func setupService(t *testing.T) (*service.Service, *storemocks.MockStore, *cachemocks.MockCache, *mqmocks.MockMessageQueue, *mqmocks.MockMessageQueue, *aimocks.MockGenerator) {
	mockStore := new(storemocks.MockStore)
	mockCache := new(cachemocks.MockCache)
	mockPurgeMQ := new(mqmocks.MockMessageQueue)
	mockEmbedMQ := new(mqmocks.MockMessageQueue)
	mockGen := new(aimocks.MockGenerator)

	// Real limiter and batcher; the limiter hits the mock cache and tests
	// verify token updates are pushed to the batcher's channel.
	limiter := ratelimit.NewLimiter(mockCache, nil)
	tokenBatcher := worker.NewTokenBatcher(mockStore, 60000)

	svc, err := service.NewService(
		mockStore,
		mockCache,
		mockPurgeMQ,
		mockEmbedMQ,
		mockGen,
		limiter,
		tokenBatcher,
		nil,
		[]byte("secret"),
	)
	assert.NoError(t, err)

	return svc, mockStore, mockCache, mockPurgeMQ, mockEmbedMQ, mockGen
}

// Helper that creates a channel and wraps a mock call to signal when it's called
func wrapMockWithSignal(call *mock.Call) chan struct{} {
	done := make(chan struct{})
	call.Run(func(args mock.Arguments) {
		close(done)
	})
	return done
}

func waitForSignal(t *testing.T, done chan struct{}, what string) {
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

// expectRateAllowed stubs the cache so one request under limitKey passes
// the limiter with a fresh window.
func expectRateAllowed(mockCache *cachemocks.MockCache, userId, limitKey string) {
	mockCache.On("GetRateWindow", mock.Anything, userId, limitKey).
		Return(models.RateWindow{}, store.ErrItemNotFound)
	mockCache.On("ResetRateWindow", mock.Anything, userId, limitKey, (*models.RateWindow)(nil), mock.Anything, mock.Anything).
		Return(nil)
}

// expectRateLimited stubs a full current window for limitKey.
func expectRateLimited(mockCache *cachemocks.MockCache, userId, limitKey string, limit int) {
	mockCache.On("GetRateWindow", mock.Anything, userId, limitKey).
		Return(models.RateWindow{Count: limit, WindowStart: time.Now()}, nil)
}

// submissionZoneAndDate finds a timezone whose current local time falls
// inside a log submission window, and returns it with the matching log
// date. Submission for a date opens at 18:00 local and closes at noon
// the next day, so a local hour of 18+ admits today and a local hour
// before noon admits yesterday; scanning every whole-hour offset always
// finds at least one of those.
func submissionZoneAndDate(t *testing.T) (string, string) {
	now := time.Now()
	for offset := -12; offset <= 14; offset++ {
		// Etc/GMT zone names negate the offset: Etc/GMT-5 is UTC+5.
		name := fmt.Sprintf("Etc/GMT%+d", -offset)
		loc, err := time.LoadLocation(name)
		if err != nil {
			continue
		}
		local := now.In(loc)
		if local.Hour() >= 18 {
			return name, clock.DateOf(local).String()
		}
		if local.Hour() < 12 {
			return name, clock.DateOf(local).AddDays(-1).String()
		}
	}
	t.Fatal("no timezone with an open submission window")
	return "", ""
}

// feedbackZoneAndDate finds a timezone where feedback for yesterday's
// log can currently be requested (local time past noon).
func feedbackZoneAndDate(t *testing.T) (string, string) {
	now := time.Now()
	for offset := -12; offset <= 14; offset++ {
		name := fmt.Sprintf("Etc/GMT%+d", -offset)
		loc, err := time.LoadLocation(name)
		if err != nil {
			continue
		}
		local := now.In(loc)
		if local.Hour() == 23 && local.Minute() == 59 {
			// Too close to the end of the window.
			continue
		}
		if local.Hour() >= 12 {
			return name, clock.DateOf(local).AddDays(-1).String()
		}
	}
	t.Fatal("no timezone with an open feedback window")
	return "", ""
}
