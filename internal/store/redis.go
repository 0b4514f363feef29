package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v9"

	"github.com/phrasedash/go-socket-phrasedash/internal/models"
)

const roomTTL = time.Hour

// RedisStore keeps advisory room snapshots in redis. It only exists for
// out-of-band inspection; the coordinator never reads it back and keeps
// working if redis is down or absent.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects with the given URL ("redis://host:port").
func NewRedisStore(url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &RedisStore{client: redis.NewClient(opts)}, nil
}

// Ping verifies the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// PutRoom stores the snapshot under room:<id> with a safety TTL so stale
// entries age out even if a delete is lost.
func (s *RedisStore) PutRoom(ctx context.Context, roomID string, state models.GameState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, "room:"+roomID, data, roomTTL).Err()
}

// GetRoom reads a stored snapshot back. Returns redis.Nil when absent.
// The server itself never calls this; snapshots flow one way and GetRoom
// exists for external tooling reading the same keys.
func (s *RedisStore) GetRoom(ctx context.Context, roomID string) (models.GameState, error) {
	var state models.GameState
	data, err := s.client.Get(ctx, "room:"+roomID).Bytes()
	if err != nil {
		return state, err
	}
	err = json.Unmarshal(data, &state)
	return state, err
}

// DeleteRoom drops the snapshot on room cleanup.
func (s *RedisStore) DeleteRoom(ctx context.Context, roomID string) error {
	return s.client.Del(ctx, "room:"+roomID).Err()
}

// Close releases the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
