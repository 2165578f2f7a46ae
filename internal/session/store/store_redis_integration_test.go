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

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *store.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = store.NewRedis(s.redis.Client, time.Hour)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	sess := models.New("call-1")
	sess.WorkingEmail = "brian@yahoo.com"
	sess.EmailConsent = models.DecisionYes
	sess.PendingGeocode = &models.Geocode{Lat: 39.78, Lng: -89.65, Confidence: "ROOFTOP"}

	s.Require().NoError(s.store.Save(ctx, sess))

	got, err := s.store.Get(ctx, "call-1")
	s.Require().NoError(err)
	s.Equal("brian@yahoo.com", got.WorkingEmail)
	s.Equal(models.DecisionYes, got.EmailConsent)
	s.Equal("ROOFTOP", got.PendingGeocode.Confidence)

	ttl, err := s.redis.Client.TTL(ctx, "callfile:session:call-1").Result()
	s.Require().NoError(err)
	s.Greater(ttl, 59*time.Minute)
}

func (s *RedisStoreSuite) TestDeleteIsIdempotent() {
	ctx := context.Background()
	s.Require().NoError(s.store.Save(ctx, models.New("call-1")))
	s.Require().NoError(s.store.Delete(ctx, "call-1"))
	s.Require().NoError(s.store.Delete(ctx, "call-1"))

	_, err := s.store.Get(ctx, "call-1")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
