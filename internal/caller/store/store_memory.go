package store

import (
	"context"
	"fmt"
	"sync"

	"callfile/internal/caller/models"
	"callfile/pkg/platform/sentinel"
	"callfile/pkg/requestcontext"
)

// InMemoryStore keeps caller records in a map. Used in tests and when no
// database URL is configured.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]*models.CallerRecord
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]*models.CallerRecord)}
}

func (s *InMemoryStore) Get(_ context.Context, phone string) (*models.CallerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[phone]
	if !ok {
		return nil, fmt.Errorf("caller %s: %w", phone, sentinel.ErrNotFound)
	}
	return rec.Clone(), nil
}

func (s *InMemoryStore) Upsert(ctx context.Context, phone string, update models.CallerUpdate) (*models.CallerRecord, error) {
	if phone == "" {
		return nil, fmt.Errorf("phone is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[phone]
	if !ok {
		rec = &models.CallerRecord{Phone: phone}
		s.records[phone] = rec
	}
	rec.Apply(update, requestcontext.Now(ctx))
	return rec.Clone(), nil
}
