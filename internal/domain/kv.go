package domain

import "context"

// KeyValueStore is the single-key persistence contract the session store
// writes its serialized state to.
type KeyValueStore interface {
	// Get returns ErrKeyNotFound when nothing is stored under key
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Ping(ctx context.Context) error
	Close() error
}
