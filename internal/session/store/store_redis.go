package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"callfile/internal/session/models"
	"callfile/pkg/platform/sentinel"
)

const sessionKeyPrefix = "callfile:session:"

// RedisStore keeps one JSON blob per call with a TTL equal to the abandonment
// age, so abandoned calls expire on their own.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func sessionKey(callID string) string {
	return sessionKeyPrefix + callID
}

func (s *RedisStore) Get(ctx context.Context, callID string) (*models.CallSession, error) {
	raw, err := s.client.Get(ctx, sessionKey(callID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("session %s: %w", callID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	var sess models.CallSession
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

// Save rewrites the blob and refreshes the TTL, so the abandonment clock
// restarts on every tool invocation.
func (s *RedisStore) Save(ctx context.Context, sess *models.CallSession) error {
	if sess == nil || sess.CallID == "" {
		return fmt.Errorf("session with call id is required")
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(sess.CallID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, callID string) error {
	if err := s.client.Del(ctx, sessionKey(callID)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// PruneOlderThan is a no-op: key expiry already removes abandoned sessions.
func (s *RedisStore) PruneOlderThan(context.Context, time.Time) (int, error) {
	return 0, nil
}
