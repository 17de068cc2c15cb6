package domain

import "context"

// KeyValueStore is an opaque string store keyed by string.
type KeyValueStore interface {
	// Get reports ok=false when key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
