package service

import (
	"github.com/zlnvch/daybook/ai"
	"github.com/zlnvch/daybook/cache"
	"github.com/zlnvch/daybook/mq"
	"github.com/zlnvch/daybook/ratelimit"
	"github.com/zlnvch/daybook/store"
	"github.com/zlnvch/daybook/streak"
	"github.com/zlnvch/daybook/worker"
	"golang.org/x/oauth2"
)

type Service struct {
	Store        store.DaybookStore
	Cache        cache.DaybookCache
	PurgeQueue   mq.MessageQueue
	EmbedQueue   mq.MessageQueue
	Generator    ai.Generator
	Limiter      *ratelimit.Limiter
	Streaks      *streak.Engine
	TokenBatcher *worker.TokenBatcher
	OAuthConfigs map[string]*oauth2.Config
	JWTSecret    []byte
}

func NewService(
	daybookStore store.DaybookStore,
	daybookCache cache.DaybookCache,
	purgeQueue mq.MessageQueue,
	embedQueue mq.MessageQueue,
	generator ai.Generator,
	limiter *ratelimit.Limiter,
	tokenBatcher *worker.TokenBatcher,
	oauthConfigs map[string]*oauth2.Config,
	jwtSecret []byte,
) (*Service, error) {
	oauthConfigs, err := addOauthEndpointsAndScopes(oauthConfigs)
	if err != nil {
		return nil, err
	}

	return &Service{
		Store:        daybookStore,
		Cache:        daybookCache,
		PurgeQueue:   purgeQueue,
		EmbedQueue:   embedQueue,
		Generator:    generator,
		Limiter:      limiter,
		Streaks:      streak.NewEngine(daybookStore),
		TokenBatcher: tokenBatcher,
		OAuthConfigs: oauthConfigs,
		JWTSecret:    jwtSecret,
	}, nil
}
