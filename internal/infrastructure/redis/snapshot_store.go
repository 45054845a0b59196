package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"player-auction/internal/domain"

	"github.com/go-redis/redis/v8"
)

// RedisSnapshotStore keeps the full run state as one JSON document so
// a crashed service can rehydrate the run on restart.
type RedisSnapshotStore struct {
	client *redis.Client
}

func NewRedisSnapshotStore(client *redis.Client) *RedisSnapshotStore {
	return &RedisSnapshotStore{client: client}
}

func snapshotKey(runID string) string {
	return fmt.Sprintf("auction:%s:snapshot", runID)
}

func (s *RedisSnapshotStore) SaveSnapshot(ctx context.Context, snap *domain.RunSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, snapshotKey(snap.RunID), data, 0).Err()
}

func (s *RedisSnapshotStore) LoadSnapshot(ctx context.Context, runID string) (*domain.RunSnapshot, error) {
	data, err := s.client.Get(ctx, snapshotKey(runID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrSnapshotNotFound
		}
		return nil, err
	}

	var snap domain.RunSnapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
