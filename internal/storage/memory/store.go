// Package memory implements the storage interfaces in process memory.
//
// It is used by tests and by embedders that do not need persistence. The
// map-under-mutex layout makes CreateMessage atomic, so the duplicate
// detection contract holds under concurrent receipt.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/sirosfoundation/go-oagis/internal/storage"
)

// Store implements storage.Store with in-process maps.
type Store struct {
	mu       sync.RWMutex
	messages map[storage.MessageKey]*storage.MessageRecord
	errors   map[storage.MessageKey][]*storage.MessageErrorRecord
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		messages: make(map[storage.MessageKey]*storage.MessageRecord),
		errors:   make(map[storage.MessageKey][]*storage.MessageErrorRecord),
	}
}

// CreateMessage stores a record, rejecting an already-present key.
func (s *Store) CreateMessage(ctx context.Context, rec *storage.MessageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.messages[rec.Key]; exists {
		return storage.ErrDuplicateKey
	}

	now := time.Now()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	stored := *rec
	s.messages[rec.Key] = &stored
	return nil
}

// FindMessage retrieves a record by composite key.
func (s *Store) FindMessage(ctx context.Context, key storage.MessageKey) (*storage.MessageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.messages[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *rec
	return &copied, nil
}

// UpdateMessage replaces the stored record matching rec's key.
func (s *Store) UpdateMessage(ctx context.Context, rec *storage.MessageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.messages[rec.Key]
	if !ok {
		return storage.ErrNotFound
	}

	updated := *rec
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now()
	s.messages[rec.Key] = &updated
	return nil
}

// UpdateMessageStatus advances just the processing status of a record.
func (s *Store) UpdateMessageStatus(ctx context.Context, key storage.MessageKey, status storage.ProcessingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.messages[key]
	if !ok {
		return storage.ErrNotFound
	}
	rec.Status = status
	rec.UpdatedAt = time.Now()
	return nil
}

// CreateMessageError attaches an error record to a message key.
func (s *Store) CreateMessageError(ctx context.Context, rec *storage.MessageErrorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.CreatedAt = time.Now()
	stored := *rec
	s.errors[rec.Key] = append(s.errors[rec.Key], &stored)
	return nil
}

// ListMessageErrors returns error records for a key in insertion order.
func (s *Store) ListMessageErrors(ctx context.Context, key storage.MessageKey) ([]*storage.MessageErrorRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]*storage.MessageErrorRecord, 0, len(s.errors[key]))
	for _, rec := range s.errors[key] {
		copied := *rec
		recs = append(recs, &copied)
	}
	return recs, nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close(ctx context.Context) error {
	return nil
}

// Ping always succeeds for the in-memory store.
func (s *Store) Ping(ctx context.Context) error {
	return nil
}
