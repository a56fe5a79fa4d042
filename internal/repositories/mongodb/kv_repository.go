package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ArowuTest/easyearning-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Compile-time check to ensure KVRepository implements the interface
var _ repositories.KVRepository = (*KVRepository)(nil)

type kvDocument struct {
	Key       string    `bson:"key"`
	Value     string    `bson:"value"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// KVRepository stores serialized collections in the kv_store collection, one document per key
type KVRepository struct {
	collection *mongo.Collection
}

// NewKVRepository creates a new KVRepository
func NewKVRepository(db *mongo.Database) *KVRepository {
	return &KVRepository{
		collection: db.Collection("kv_store"),
	}
}

// EnsureIndexes creates the unique key index
func (r *KVRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// Get finds the value stored under key
func (r *KVRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var doc kvDocument
	err := r.collection.FindOne(ctx, bson.M{"key": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repositories.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find key %s: %w", key, err)
	}
	return []byte(doc.Value), nil
}

// Put updates the value stored under key, or creates it if it doesn't exist
func (r *KVRepository) Put(ctx context.Context, key string, value []byte) error {
	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"value":     string(value),
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"key":       key,
			"createdAt": now,
		},
	}
	opts := options.Update().SetUpsert(true)

	if _, err := r.collection.UpdateOne(ctx, bson.M{"key": key}, update, opts); err != nil {
		return fmt.Errorf("failed to upsert key %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (r *KVRepository) Delete(ctx context.Context, key string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"key": key})
	return err
}
