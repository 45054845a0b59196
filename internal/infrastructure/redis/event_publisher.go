package redis

import (
	"context"
	"encoding/json"

	"player-auction/internal/domain"

	"github.com/go-redis/redis/v8"
)

const eventsChannel = "auction_events"

// RedisEventPublisher mirrors broadcast events onto a pub/sub channel
// for processes outside the auction service.
type RedisEventPublisher struct {
	client *redis.Client
}

func NewRedisEventPublisher(client *redis.Client) *RedisEventPublisher {
	return &RedisEventPublisher{client: client}
}

func (p *RedisEventPublisher) PublishAuctionEvent(ctx context.Context, event *domain.AuctionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, eventsChannel, data).Err()
}
