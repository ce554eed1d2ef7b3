package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jonathan/loi-watcher/internal/types"
)

// RedisStore keeps the snapshot as a single string value.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a store that reads and writes key. The client is
// owned by the caller.
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

// Load returns the stored snapshot or an empty Index if the key is unset.
func (s *RedisStore) Load(ctx context.Context) (types.Index, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return types.NewIndex(), nil
		}
		return nil, fmt.Errorf("failed to load snapshot %s: %w", s.key, err)
	}
	return Decode("redis:"+s.key, data)
}

// Save replaces the value at key.
func (s *RedisStore) Save(ctx context.Context, idx types.Index) error {
	data, err := Encode(idx)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", s.key, err)
	}
	return nil
}

// Close does not close the shared client.
func (s *RedisStore) Close() error {
	return nil
}
