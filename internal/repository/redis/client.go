package redis

import (
	"context"
	"fmt"

	"github.com/Rrens/alap/internal/config"
	"github.com/redis/go-redis/v9"
)

// Client wraps the Redis client together with the key namespace
type Client struct {
	rdb    *redis.Client
	prefix string
}

// NewClient connects and pings Redis
func NewClient(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewClientFrom(rdb, cfg.Prefix), nil
}

// NewClientFrom wraps an existing go-redis client
func NewClientFrom(rdb *redis.Client, prefix string) *Client {
	return &Client{rdb: rdb, prefix: prefix}
}

func (c *Client) key(parts ...string) string {
	k := c.prefix
	for _, p := range parts {
		k += p
	}
	return k
}

// Ping verifies the connection
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}
