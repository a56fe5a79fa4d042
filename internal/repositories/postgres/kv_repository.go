package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ArowuTest/easyearning-backend/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Compile-time check to ensure KVRepository implements the interface
var _ repositories.KVRepository = (*KVRepository)(nil)

// KVEntry is one persisted collection
type KVEntry struct {
	Key       string `gorm:"primaryKey;size:128"`
	Value     string `gorm:"type:text;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName overrides the gorm default
func (KVEntry) TableName() string {
	return "kv_entries"
}

// KVRepository stores serialized collections in the kv_entries table
type KVRepository struct {
	db *gorm.DB
}

// NewKVRepository creates a new KVRepository
func NewKVRepository(db *gorm.DB) *KVRepository {
	return &KVRepository{db: db}
}

// Get returns the value stored under key
func (r *KVRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var entry KVEntry
	err := r.db.WithContext(ctx).First(&entry, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repositories.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find key %s: %w", key, err)
	}
	return []byte(entry.Value), nil
}

// Put inserts or updates the value stored under key
func (r *KVRepository) Put(ctx context.Context, key string, value []byte) error {
	entry := KVEntry{Key: key, Value: string(value)}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to upsert key %s: %w", key, err)
	}
	return nil
}

// Delete removes key
func (r *KVRepository) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Delete(&KVEntry{}, "key = ?", key).Error
}
