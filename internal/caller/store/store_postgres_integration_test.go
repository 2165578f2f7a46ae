//go:build integration

package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"callfile/internal/caller/models"
	"callfile/internal/caller/store"
	"callfile/pkg/platform/sentinel"
	"callfile/pkg/requestcontext"
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
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "callers")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) TestGetMissing() {
	_, err := s.store.Get(context.Background(), "+15550000000")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestUpsertCoalescesOnConflict() {
	phone := "+15551234567"
	t0 := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), t0)

	created, err := s.store.Upsert(ctx, phone, models.CallerUpdate{
		OwnerName:      models.Ptr("Jane Doe"),
		LineType:       models.Ptr("mobile"),
		SMSEligible:    models.Ptr(true),
		CandidateEmail: models.Ptr("jane@x.com"),
		GeocodeLat:     models.Ptr(39.78),
		IdentityRaw:    []byte(`{"owners":[{"name":"Jane Doe"}]}`),
		LastEnrichedAt: models.Ptr(t0),
	})
	s.Require().NoError(err)
	s.True(created.CreatedAt.Equal(t0))

	updated, err := s.store.Upsert(ctx, phone, models.CallerUpdate{
		SMSEligible:    models.Ptr(false),
		ValidatedEmail: models.Ptr("jane@x.com"),
	})
	s.Require().NoError(err)

	s.Equal("Jane Doe", models.Deref(updated.OwnerName))
	s.Equal("mobile", models.Deref(updated.LineType))
	s.False(models.Deref(updated.SMSEligible), "non-null false overwrites true")
	s.Equal("jane@x.com", models.Deref(updated.ValidatedEmail))
	s.InDelta(39.78, models.Deref(updated.GeocodeLat), 1e-9)
	s.JSONEq(`{"owners":[{"name":"Jane Doe"}]}`, string(updated.IdentityRaw))
	s.True(updated.CreatedAt.Equal(t0))
	s.True(updated.UpdatedAt.After(created.UpdatedAt), "same-instant write still advances updated_at")

	fetched, err := s.store.Get(ctx, phone)
	s.Require().NoError(err)
	s.True(fetched.LastEnrichedAt.Equal(t0))
}

func (s *PostgresStoreSuite) TestConcurrentUpsertsSameNumber() {
	phone := "+15557654321"
	ctx := context.Background()
	_, err := s.store.Upsert(ctx, phone, models.CallerUpdate{OwnerName: models.Ptr("Owner")})
	s.Require().NoError(err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u := models.CallerUpdate{}
			if i%2 == 0 {
				u.ValidatedEmail = models.Ptr("even@x.com")
			} else {
				u.DPVMatchCode = models.Ptr("Y")
			}
			_, err := s.store.Upsert(ctx, phone, u)
			s.NoError(err)
		}(i)
	}
	wg.Wait()

	rec, err := s.store.Get(ctx, phone)
	s.Require().NoError(err)
	s.Equal("Owner", models.Deref(rec.OwnerName))
	s.Equal("even@x.com", models.Deref(rec.ValidatedEmail))
	s.Equal("Y", models.Deref(rec.DPVMatchCode))
}
