package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"callfile/internal/session/models"
	"callfile/internal/session/store"
	"callfile/pkg/platform/sentinel"
	"callfile/pkg/requestcontext"
)

// Store is the persistence contract every session backend satisfies.
type Store interface {
	Get(ctx context.Context, callID string) (*models.CallSession, error)
	Save(ctx context.Context, sess *models.CallSession) error
	Delete(ctx context.Context, callID string) error
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// Service loads and saves call sessions. When the primary backend fails, the
// affected call is pinned to an in-process fallback for the rest of the call so
// its counters stay consistent.
type Service struct {
	primary  Store
	fallback Store
	logger   *slog.Logger

	mu       sync.Mutex
	degraded map[string]struct{}
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithFallback overrides the in-memory fallback store.
func WithFallback(fallback Store) Option {
	return func(s *Service) {
		s.fallback = fallback
	}
}

func New(primary Store, opts ...Option) *Service {
	s := &Service{
		primary:  primary,
		fallback: store.NewInMemory(),
		logger:   slog.Default(),
		degraded: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the call's session, or the default session if none is stored.
func (s *Service) Load(ctx context.Context, callID string) (*models.CallSession, error) {
	if callID == "" {
		return nil, fmt.Errorf("call id is required")
	}
	st := s.storeFor(callID)
	sess, err := st.Get(ctx, callID)
	if err == nil {
		return sess, nil
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.New(callID), nil
	}
	if st == s.fallback {
		return nil, fmt.Errorf("load session: %w", err)
	}

	s.degrade(ctx, callID, "load", err)
	sess, err = s.fallback.Get(ctx, callID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.New(callID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session from fallback: %w", err)
	}
	return sess, nil
}

// Save stamps and persists the session.
func (s *Service) Save(ctx context.Context, sess *models.CallSession) error {
	sess.Touch(requestcontext.Now(ctx))
	st := s.storeFor(sess.CallID)
	err := st.Save(ctx, sess)
	if err == nil {
		return nil
	}
	if st == s.fallback {
		return fmt.Errorf("save session: %w", err)
	}

	s.degrade(ctx, sess.CallID, "save", err)
	if err := s.fallback.Save(ctx, sess); err != nil {
		return fmt.Errorf("save session to fallback: %w", err)
	}
	return nil
}

// End deletes the session from every backend. Deleting an absent session is not an error.
func (s *Service) End(ctx context.Context, callID string) error {
	s.mu.Lock()
	delete(s.degraded, callID)
	s.mu.Unlock()

	_ = s.fallback.Delete(ctx, callID)
	if err := s.primary.Delete(ctx, callID); err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}

// Prune removes sessions untouched for longer than maxAge.
func (s *Service) Prune(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := requestcontext.Now(ctx).Add(-maxAge)
	fromFallback, err := s.fallback.PruneOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.WarnContext(ctx, "fallback session prune failed", "error", err)
	}

	s.mu.Lock()
	for id := range s.degraded {
		if _, err := s.fallback.Get(ctx, id); errors.Is(err, sentinel.ErrNotFound) {
			delete(s.degraded, id)
		}
	}
	s.mu.Unlock()

	n, err := s.primary.PruneOlderThan(ctx, cutoff)
	if err != nil {
		return fromFallback, fmt.Errorf("prune sessions: %w", err)
	}
	return n + fromFallback, nil
}

// StartReaper prunes abandoned sessions every interval until ctx is done.
func (s *Service) StartReaper(ctx context.Context, interval, maxAge time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n, err := s.Prune(ctx, maxAge)
			if err != nil {
				s.logger.WarnContext(ctx, "session prune failed", "error", err)
				continue
			}
			if n > 0 {
				s.logger.InfoContext(ctx, "pruned abandoned sessions", "count", n)
			}
		}
	}
}

func (s *Service) storeFor(callID string) Store {
	s.mu.Lock()
	_, pinned := s.degraded[callID]
	s.mu.Unlock()
	if pinned {
		return s.fallback
	}
	return s.primary
}

func (s *Service) degrade(ctx context.Context, callID, op string, err error) {
	s.mu.Lock()
	s.degraded[callID] = struct{}{}
	s.mu.Unlock()
	s.logger.WarnContext(ctx, "session store unavailable, pinning call to in-memory fallback",
		"call_id", callID,
		"op", op,
		"error", err,
	)
}

// Degraded reports whether callID is pinned to the fallback store.
func (s *Service) Degraded(callID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.degraded[callID]
	return ok
}
