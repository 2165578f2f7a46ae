package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"callfile/internal/session/models"
	"callfile/internal/session/store"
	"callfile/pkg/requestcontext"
)

// flakyStore wraps a memory store and fails every call while down is set.
type flakyStore struct {
	*store.InMemoryStore
	down bool
}

var errBackendDown = errors.New("connection refused")

func (f *flakyStore) Get(ctx context.Context, callID string) (*models.CallSession, error) {
	if f.down {
		return nil, errBackendDown
	}
	return f.InMemoryStore.Get(ctx, callID)
}

func (f *flakyStore) Save(ctx context.Context, sess *models.CallSession) error {
	if f.down {
		return errBackendDown
	}
	return f.InMemoryStore.Save(ctx, sess)
}

func (f *flakyStore) Delete(ctx context.Context, callID string) error {
	if f.down {
		return errBackendDown
	}
	return f.InMemoryStore.Delete(ctx, callID)
}

// pruneFailingStore is a memory store whose prune always fails.
type pruneFailingStore struct {
	*store.InMemoryStore
}

func (p *pruneFailingStore) PruneOlderThan(context.Context, time.Time) (int, error) {
	return 0, errBackendDown
}

type SessionServiceSuite struct {
	suite.Suite
	primary *flakyStore
	service *Service
	ctx     context.Context
	now     time.Time
}

func TestSessionServiceSuite(t *testing.T) {
	suite.Run(t, new(SessionServiceSuite))
}

func (s *SessionServiceSuite) SetupTest() {
	s.primary = &flakyStore{InMemoryStore: store.NewInMemory()}
	s.service = New(s.primary, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.now = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *SessionServiceSuite) TestLoadDefaultsWhenAbsent() {
	sess, err := s.service.Load(s.ctx, "call-1")
	s.Require().NoError(err)
	s.Equal(models.New("call-1"), sess)
}

func (s *SessionServiceSuite) TestLoadRequiresCallID() {
	_, err := s.service.Load(s.ctx, "")
	s.Require().Error(err)
}

func (s *SessionServiceSuite) TestSaveStampsTimes() {
	sess := models.New("call-1")
	sess.EmailAttempts = 1
	s.Require().NoError(s.service.Save(s.ctx, sess))

	loaded, err := s.service.Load(s.ctx, "call-1")
	s.Require().NoError(err)
	s.Equal(1, loaded.EmailAttempts)
	s.Equal(s.now, loaded.CreatedAt)
	s.Equal(s.now, loaded.UpdatedAt)
}

func (s *SessionServiceSuite) TestEndIsIdempotent() {
	s.Require().NoError(s.service.Save(s.ctx, models.New("call-1")))

	s.Require().NoError(s.service.End(s.ctx, "call-1"))
	s.Require().NoError(s.service.End(s.ctx, "call-1"))

	sess, err := s.service.Load(s.ctx, "call-1")
	s.Require().NoError(err)
	s.Equal(models.New("call-1"), sess, "a fresh lookup after end returns the default session")
}

func (s *SessionServiceSuite) TestPrimaryOutagePinsCallToFallback() {
	sess := models.New("call-1")
	sess.SpellingAttempts = 1
	s.Require().NoError(s.service.Save(s.ctx, sess))

	s.primary.down = true

	s.Run("save degrades instead of failing", func() {
		sess.SpellingAttempts = 2
		s.Require().NoError(s.service.Save(s.ctx, sess))
		s.True(s.service.Degraded("call-1"))
	})

	s.Run("counters survive the primary coming back", func() {
		s.primary.down = false
		loaded, err := s.service.Load(s.ctx, "call-1")
		s.Require().NoError(err)
		s.Equal(2, loaded.SpellingAttempts)
	})

	s.Run("end clears the pin", func() {
		s.Require().NoError(s.service.End(s.ctx, "call-1"))
		s.False(s.service.Degraded("call-1"))
	})
}

func (s *SessionServiceSuite) TestLoadDuringOutageReturnsDefault() {
	s.primary.down = true

	sess, err := s.service.Load(s.ctx, "call-2")
	s.Require().NoError(err)
	s.Equal(models.New("call-2"), sess)
	s.True(s.service.Degraded("call-2"))
}

func (s *SessionServiceSuite) TestPrune() {
	old := models.New("old")
	s.Require().NoError(s.service.Save(requestcontext.WithTime(context.Background(), s.now.Add(-25*time.Hour)), old))
	s.Require().NoError(s.service.Save(s.ctx, models.New("fresh")))

	n, err := s.service.Prune(s.ctx, 24*time.Hour)
	s.Require().NoError(err)
	s.Equal(1, n)

	_, err = s.primary.InMemoryStore.Get(s.ctx, "fresh")
	s.Require().NoError(err)
}

func (s *SessionServiceSuite) TestFallbackPruneFailureIsLoggedAndPrimaryStillPruned() {
	var logs bytes.Buffer
	s.service = New(s.primary,
		WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
		WithFallback(&pruneFailingStore{InMemoryStore: store.NewInMemory()}),
	)
	old := models.New("old")
	s.Require().NoError(s.service.Save(requestcontext.WithTime(context.Background(), s.now.Add(-25*time.Hour)), old))

	n, err := s.service.Prune(s.ctx, 24*time.Hour)
	s.Require().NoError(err)
	s.Equal(1, n)
	s.Contains(logs.String(), "fallback session prune failed")
	s.Contains(logs.String(), errBackendDown.Error())
}

func (s *SessionServiceSuite) TestStartReaperStopsOnCancel() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.service.StartReaper(ctx, time.Millisecond, time.Hour)
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		s.ErrorIs(err, context.Canceled)
	case <-time.After(time.Second):
		s.Fail("reaper did not stop")
	}
}
