package redis

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zlnvch/daybook/models"
	"github.com/zlnvch/daybook/store"
)

type RedisDaybookCache struct {
	client redis.UniversalClient
}

func NewRedisDaybookCache(ctx context.Context, devMode bool, redis_endpoint string) (*RedisDaybookCache, error) {
	var client redis.UniversalClient
	if devMode {
		client = redis.NewClient(&redis.Options{
			Addr: redis_endpoint,
		})
	} else {
		client = redis.NewClient(&redis.Options{
			Addr: redis_endpoint,
			// AWS elasticache endpoints require TLS
			TLSConfig: &tls.Config{},
		})
	}

	err := client.Ping(ctx).Err()
	if err != nil {
		return nil, err
	}

	return &RedisDaybookCache{client: client}, nil
}

// Helper functions to generate Redis keys with hash tags for cluster compatibility
func buildRateKey(userId, limitKey string) string {
	return "rate:{" + userId + "}:" + limitKey
}

func buildStreakKey(userId string) string {
	return "streak:{" + userId + "}"
}

const streakTTL = 10 * time.Minute

const (
	rateFieldCount = "count"
	rateFieldStart = "windowStart"
)

func parseRateWindow(fields map[string]string) (models.RateWindow, error) {
	count, err := strconv.Atoi(fields[rateFieldCount])
	if err != nil {
		return models.RateWindow{}, err
	}
	startNanos, err := strconv.ParseInt(fields[rateFieldStart], 10, 64)
	if err != nil {
		return models.RateWindow{}, err
	}
	return models.RateWindow{
		Count:       count,
		WindowStart: time.Unix(0, startNanos).UTC(),
	}, nil
}

func (redisCache *RedisDaybookCache) GetRateWindow(ctx context.Context, userId, limitKey string) (models.RateWindow, error) {
	key := buildRateKey(userId, limitKey)
	fields, err := redisCache.client.HGetAll(ctx, key).Result()
	if err != nil {
		return models.RateWindow{}, err
	}
	if len(fields) == 0 {
		return models.RateWindow{}, store.ErrItemNotFound
	}
	return parseRateWindow(fields)
}

// Design Choice: WATCH-based Compare-And-Swap
// Fixed-window counters need "lost update" protection: two concurrent
// requests must not both read count=N and both write count=N+1. Redis has
// no conditional HSET, so we WATCH the window key, re-read the stored
// state inside the transaction function, and abort with
// store.ErrConditionFailed when it no longer matches what the caller
// observed. A concurrent write between WATCH and EXEC surfaces as
// redis.TxFailedErr, which we map to the same sentinel so the limiter's
// retry loop handles both identically.
func (redisCache *RedisDaybookCache) ResetRateWindow(ctx context.Context, userId, limitKey string, observed *models.RateWindow, next models.RateWindow, window time.Duration) error {
	key := buildRateKey(userId, limitKey)

	err := redisCache.client.Watch(ctx, func(tx *redis.Tx) error {
		fields, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}

		if observed == nil {
			if len(fields) > 0 {
				return store.ErrConditionFailed
			}
		} else {
			if len(fields) == 0 {
				return store.ErrConditionFailed
			}
			current, err := parseRateWindow(fields)
			if err != nil {
				return err
			}
			if current.Count != observed.Count || !current.WindowStart.Equal(observed.WindowStart) {
				return store.ErrConditionFailed
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key,
				rateFieldCount, next.Count,
				rateFieldStart, next.WindowStart.UnixNano())
			// Keep the key around for a full stale window so an expired
			// entry can still be observed and reset under CAS.
			pipe.Expire(ctx, key, 2*window)
			return nil
		})
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return store.ErrConditionFailed
	}
	return err
}

func (redisCache *RedisDaybookCache) IncrementRateWindow(ctx context.Context, userId, limitKey string, observed models.RateWindow, window time.Duration) error {
	key := buildRateKey(userId, limitKey)

	err := redisCache.client.Watch(ctx, func(tx *redis.Tx) error {
		fields, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}
		if len(fields) == 0 {
			return store.ErrConditionFailed
		}
		current, err := parseRateWindow(fields)
		if err != nil {
			return err
		}
		if current.Count != observed.Count || !current.WindowStart.Equal(observed.WindowStart) {
			return store.ErrConditionFailed
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HIncrBy(ctx, key, rateFieldCount, 1)
			pipe.Expire(ctx, key, 2*window)
			return nil
		})
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return store.ErrConditionFailed
	}
	return err
}

// Streak read cache

func (redisCache *RedisDaybookCache) GetStreak(ctx context.Context, userId string) (models.StreakState, bool, error) {
	key := buildStreakKey(userId)
	val, err := redisCache.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return models.StreakState{}, false, nil // Not found
		}
		return models.StreakState{}, false, err
	}

	var state models.StreakState
	if err := json.Unmarshal([]byte(val), &state); err != nil {
		return models.StreakState{}, false, err
	}
	return state, true, nil
}

func (redisCache *RedisDaybookCache) SetStreak(ctx context.Context, userId string, state models.StreakState) error {
	key := buildStreakKey(userId)
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return redisCache.client.Set(ctx, key, data, streakTTL).Err()
}

func (redisCache *RedisDaybookCache) InvalidateStreak(ctx context.Context, userId string) error {
	key := buildStreakKey(userId)
	return redisCache.client.Del(ctx, key).Err()
}
