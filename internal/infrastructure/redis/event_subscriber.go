package redis

import (
	"context"
	"encoding/json"

	"player-auction/internal/domain"
	"player-auction/pkg/logger"

	"github.com/go-redis/redis/v8"
)

type RedisEventSubscriber struct {
	client *redis.Client
	log    logger.Logger
}

func NewRedisEventSubscriber(client *redis.Client, log logger.Logger) *RedisEventSubscriber {
	return &RedisEventSubscriber{client: client, log: log}
}

// SubscribeToAuctionEvents blocks until ctx is cancelled, handing each
// mirrored event to handler. Malformed payloads are logged and
// dropped.
func (s *RedisEventSubscriber) SubscribeToAuctionEvents(ctx context.Context, handler domain.EventHandler) error {
	pubsub := s.client.Subscribe(ctx, eventsChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	s.log.Info("subscribed to auction events")

	for {
		select {
		case msg := <-ch:
			var event domain.AuctionEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				s.log.Error("failed to parse event", "payload", msg.Payload, "error", err)
				continue
			}
			if err := handler(&event); err != nil {
				s.log.Error("failed to handle event", "type", event.Type, "error", err)
			}

		case <-ctx.Done():
			s.log.Info("event subscriber stopped")
			return ctx.Err()
		}
	}
}
