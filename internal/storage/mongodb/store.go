// Package mongodb implements the storage interfaces using MongoDB.
//
// Key uniqueness is enforced by a unique compound index over the composite
// message key, which gives CreateMessage the atomic create-if-absent
// semantics the dispatcher's duplicate check relies on.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sirosfoundation/go-oagis/internal/storage"
)

// Store implements storage.Store using MongoDB.
type Store struct {
	client *mongo.Client
	db     *mongo.Database

	messages      *mongo.Collection
	messageErrors *mongo.Collection
}

// Config holds MongoDB connection settings.
type Config struct {
	URI      string
	Database string
}

// NewStore connects to MongoDB and ensures the key-uniqueness index exists.
func NewStore(ctx context.Context, cfg *Config) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connecting to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("pinging MongoDB: %w", err)
	}

	db := client.Database(cfg.Database)
	s := &Store{
		client:        client,
		db:            db,
		messages:      db.Collection("messages"),
		messageErrors: db.Collection("message_errors"),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("creating indexes: %w", err)
	}

	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "key.logical_id", Value: 1},
			{Key: "key.component", Value: 1},
			{Key: "key.task", Value: 1},
			{Key: "key.reference_id", Value: 1},
		},
		Options: options.Index().SetUnique(true).SetName("message_key_unique"),
	})
	if err != nil {
		return err
	}

	_, err = s.messageErrors.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "key.logical_id", Value: 1},
			{Key: "key.component", Value: 1},
			{Key: "key.task", Value: 1},
			{Key: "key.reference_id", Value: 1},
		},
		Options: options.Index().SetName("message_error_key"),
	})
	return err
}

func keyFilter(key storage.MessageKey) bson.M {
	return bson.M{
		"key.logical_id":   key.LogicalID,
		"key.component":    key.Component,
		"key.task":         key.Task,
		"key.reference_id": key.ReferenceID,
	}
}

// CreateMessage inserts a new record. A unique-index violation is mapped to
// storage.ErrDuplicateKey.
func (s *Store) CreateMessage(ctx context.Context, rec *storage.MessageRecord) error {
	now := time.Now()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	_, err := s.messages.InsertOne(ctx, rec)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("inserting message: %w", err)
	}
	return nil
}

// FindMessage retrieves a record by composite key.
func (s *Store) FindMessage(ctx context.Context, key storage.MessageKey) (*storage.MessageRecord, error) {
	var rec storage.MessageRecord
	err := s.messages.FindOne(ctx, keyFilter(key)).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding message: %w", err)
	}
	return &rec, nil
}

// UpdateMessage replaces the stored record matching rec's key.
func (s *Store) UpdateMessage(ctx context.Context, rec *storage.MessageRecord) error {
	rec.UpdatedAt = time.Now()

	result, err := s.messages.ReplaceOne(ctx, keyFilter(rec.Key), rec)
	if err != nil {
		return fmt.Errorf("updating message: %w", err)
	}
	if result.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// UpdateMessageStatus advances just the processing status of a record.
func (s *Store) UpdateMessageStatus(ctx context.Context, key storage.MessageKey, status storage.ProcessingStatus) error {
	result, err := s.messages.UpdateOne(ctx, keyFilter(key), bson.M{
		"$set": bson.M{
			"status":     status,
			"updated_at": time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("updating message status: %w", err)
	}
	if result.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// CreateMessageError attaches an error record to a message key.
func (s *Store) CreateMessageError(ctx context.Context, rec *storage.MessageErrorRecord) error {
	rec.CreatedAt = time.Now()

	if _, err := s.messageErrors.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("inserting message error: %w", err)
	}
	return nil
}

// ListMessageErrors returns error records for a key, oldest first.
func (s *Store) ListMessageErrors(ctx context.Context, key storage.MessageKey) ([]*storage.MessageErrorRecord, error) {
	cursor, err := s.messageErrors.Find(ctx, keyFilter(key),
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("listing message errors: %w", err)
	}
	defer cursor.Close(ctx)

	var recs []*storage.MessageErrorRecord
	if err := cursor.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("decoding message errors: %w", err)
	}
	return recs, nil
}

// Close disconnects from MongoDB.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}
