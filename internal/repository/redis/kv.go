package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/Rrens/alap/internal/domain"
	"github.com/redis/go-redis/v9"
)

const kvPrefix = "kv:"

// KVStore implements domain.KeyValueStore on plain Redis strings without TTL
type KVStore struct {
	client *Client
}

// NewKVStore creates a new key-value store
func NewKVStore(client *Client) *KVStore {
	return &KVStore{client: client}
}

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.rdb.Get(ctx, s.client.key(kvPrefix, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.rdb.Set(ctx, s.client.key(kvPrefix, key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *KVStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *KVStore) Close() error {
	return s.client.Close()
}
