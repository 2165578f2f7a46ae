package store

import (
	"context"
	"sync"

	"callfile/internal/consent/models"
)

// InMemoryStore is an append-only consent log kept in process.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string][]models.Record
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{records: make(map[string][]models.Record)}
}

func (s *InMemoryStore) Append(_ context.Context, rec models.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.Phone] = append(s.records[rec.Phone], rec)
	return nil
}

// ListByPhone returns records oldest first.
func (s *InMemoryStore) ListByPhone(_ context.Context, phone string) ([]models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Record{}, s.records[phone]...), nil
}
