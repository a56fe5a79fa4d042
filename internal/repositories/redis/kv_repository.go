package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/ArowuTest/easyearning-backend/internal/repositories"
	"github.com/redis/go-redis/v9"
)

// Compile-time check to ensure KVRepository implements the interface
var _ repositories.KVRepository = (*KVRepository)(nil)

// KVRepository stores serialized collections as plain redis strings without expiry
type KVRepository struct {
	client *redis.Client
}

// NewKVRepository creates a new KVRepository
func NewKVRepository(client *redis.Client) *KVRepository {
	return &KVRepository{client: client}
}

// Get returns the value stored under key
func (r *KVRepository) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repositories.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return value, nil
}

// Put stores value under key
func (r *KVRepository) Put(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

// Delete removes key
func (r *KVRepository) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}
