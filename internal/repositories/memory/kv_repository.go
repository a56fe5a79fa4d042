package memory

import (
	"context"
	"sync"

	"github.com/ArowuTest/easyearning-backend/internal/repositories"
)

// Compile-time check to ensure KVRepository implements the interface
var _ repositories.KVRepository = (*KVRepository)(nil)

// KVRepository keeps values in process memory. State is lost on restart.
type KVRepository struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewKVRepository creates an empty KVRepository
func NewKVRepository() *KVRepository {
	return &KVRepository{values: make(map[string][]byte)}
}

// Get returns a copy of the value stored under key
func (r *KVRepository) Get(_ context.Context, key string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[key]
	if !ok {
		return nil, repositories.ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

// Put stores a copy of value under key
func (r *KVRepository) Put(_ context.Context, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[key] = append([]byte(nil), value...)
	return nil
}

// Delete removes key
func (r *KVRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.values, key)
	return nil
}
