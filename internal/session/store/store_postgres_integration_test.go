//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"callfile/internal/session/models"
	"callfile/internal/session/store"
	"callfile/pkg/platform/sentinel"
	"callfile/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "call_sessions"))
}

func (s *PostgresStoreSuite) TestSaveOverwritesState() {
	ctx := context.Background()
	now := time.Now().UTC()
	sess := models.New("call-1")
	sess.Phone = "+15551234567"
	sess.Touch(now)
	s.Require().NoError(s.store.Save(ctx, sess))

	sess.AddressAttempts = 1
	sess.Touch(now.Add(time.Second))
	s.Require().NoError(s.store.Save(ctx, sess))

	got, err := s.store.Get(ctx, "call-1")
	s.Require().NoError(err)
	s.Equal(1, got.AddressAttempts)
	s.Equal("+15551234567", got.Phone)
}

func (s *PostgresStoreSuite) TestPruneOlderThan() {
	ctx := context.Background()
	now := time.Now().UTC()

	old := models.New("old")
	old.Touch(now.Add(-48 * time.Hour))
	s.Require().NoError(s.store.Save(ctx, old))

	fresh := models.New("fresh")
	fresh.Touch(now)
	s.Require().NoError(s.store.Save(ctx, fresh))

	n, err := s.store.PruneOlderThan(ctx, now.Add(-24*time.Hour))
	s.Require().NoError(err)
	s.Equal(1, n)

	_, err = s.store.Get(ctx, "old")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.Get(ctx, "fresh")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) TestDeleteMissing() {
	s.Require().NoError(s.store.Delete(context.Background(), "never-existed"))
}
