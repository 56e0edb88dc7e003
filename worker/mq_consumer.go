package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/zlnvch/daybook/mq"
	"github.com/zlnvch/daybook/store"
)

type MQConsumer struct {
	purgeQueue   mq.MessageQueue
	daybookStore store.DaybookStore
}

func NewMQConsumer(purgeQueue mq.MessageQueue, daybookStore store.DaybookStore) *MQConsumer {
	return &MQConsumer{
		purgeQueue:   purgeQueue,
		daybookStore: daybookStore,
	}
}

// Allow up to 5 minutes for the throttled batch deletion of all the user's items
const visibilityTimeout = 300

func (mqConsumer MQConsumer) Run(shutdownCtx context.Context) {
	for {
		msg, err := mqConsumer.purgeQueue.Receive(shutdownCtx, visibilityTimeout)

		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			log.Printf("mqConsumer receive error: %v", err)
			continue
		}

		if msg == nil {
			continue
		}

		var purgeMsg mq.PurgeUserDataMessage
		if err := json.Unmarshal([]byte(msg.Body), &purgeMsg); err != nil || purgeMsg.UserId == "" {
			continue
		}

		// timeout should be a little less than queue visibility timeout
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(visibilityTimeout-1)*time.Second)

		if err := mqConsumer.daybookStore.PurgeUserData(ctx, purgeMsg.UserId); err != nil {
			log.Printf("daybookStore purge user data error: %v", err)
			cancel()
			continue
		}
		cancel()

		if err := mqConsumer.purgeQueue.Delete(context.Background(), msg); err != nil {
			log.Printf("mqConsumer delete error: %v", err)
			continue
		}
	}
}
