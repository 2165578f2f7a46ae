package archive

import (
	"context"
	"sync"
)

// MemorySink keeps entries in process, keyed by call id.
type MemorySink struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewMemorySink() *MemorySink {
	return &MemorySink{entries: make(map[string]Entry)}
}

func (s *MemorySink) Write(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.CallID] = entry
	return nil
}

func (s *MemorySink) Get(callID string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[callID]
	return e, ok
}

func (s *MemorySink) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemorySink) Close() error {
	return nil
}
