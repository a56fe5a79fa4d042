package repositories

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Get when nothing is stored under the key
var ErrKeyNotFound = errors.New("key not found")

// KVRepository defines the key-value persistence the store mirrors its
// collections to. Values are opaque serialized records.
type KVRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
