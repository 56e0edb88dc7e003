package worker

import (
	"context"
	"log"
	"time"

	"github.com/zlnvch/daybook/store"
)

type TokenUpdate struct {
	UserId string
	Delta  int
}

// TokenBatcher coalesces chat-token decrements so a burst of messages
// from one user becomes a single counter update per flush interval.
type TokenBatcher struct {
	UpdateCh           chan TokenUpdate
	daybookStore       store.DaybookStore
	tickerMilliseconds int
}

func NewTokenBatcher(daybookStore store.DaybookStore, tickerMilliseconds int) *TokenBatcher {
	return &TokenBatcher{
		UpdateCh:           make(chan TokenUpdate, 1024),
		daybookStore:       daybookStore,
		tickerMilliseconds: tickerMilliseconds,
	}
}

func (b *TokenBatcher) Run(shutdownCtx context.Context) {
	ticker := time.NewTicker(time.Duration(b.tickerMilliseconds) * time.Millisecond)
	defer ticker.Stop()

	userDeltas := make(map[string]int)

	flush := func() {
		for userId, delta := range userDeltas {
			if delta == 0 {
				continue
			}
			go func(id string, d int) {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := b.daybookStore.AddChatTokens(ctx, id, d); err != nil {
					log.Printf("Failed to update chat tokens for user %s: %v", id, err)
				}
			}(userId, delta)
		}
		userDeltas = make(map[string]int)
	}

	for {
		select {
		case update := <-b.UpdateCh:
			if update.UserId != "" {
				userDeltas[update.UserId] += update.Delta
			}

			if len(userDeltas) >= 100 {
				flush()
			}

		case <-ticker.C:
			flush()

		case <-shutdownCtx.Done():
			flush()
			return
		}
	}
}
