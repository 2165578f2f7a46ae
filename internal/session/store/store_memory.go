package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"callfile/internal/session/models"
	"callfile/pkg/platform/sentinel"
)

// InMemoryStore keeps sessions in process. It is the default backend and the
// degraded-mode fallback for the shared backends.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.CallSession
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*models.CallSession)}
}

func (s *InMemoryStore) Get(_ context.Context, callID string) (*models.CallSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[callID]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", callID, sentinel.ErrNotFound)
	}
	return sess.Clone(), nil
}

func (s *InMemoryStore) Save(_ context.Context, sess *models.CallSession) error {
	if sess == nil || sess.CallID == "" {
		return fmt.Errorf("session with call id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.CallID] = sess.Clone()
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, callID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, callID)
	return nil
}

func (s *InMemoryStore) PruneOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if sess.UpdatedAt.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}
