package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"callfile/internal/session/models"
	"callfile/pkg/platform/sentinel"
)

// PostgresStore keeps sessions in the call_sessions table. Rows are removed at
// call end or by PruneOlderThan once abandoned.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, callID string) (*models.CallSession, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, `SELECT state FROM call_sessions WHERE call_id = $1`, callID).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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

func (s *PostgresStore) Save(ctx context.Context, sess *models.CallSession) error {
	if sess == nil || sess.CallID == "" {
		return fmt.Errorf("session with call id is required")
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	query := `
		INSERT INTO call_sessions (call_id, phone, state, created_at, updated_at)
		VALUES ($1, $2, $3::jsonb, $4, $5)
		ON CONFLICT (call_id) DO UPDATE SET
			phone = EXCLUDED.phone,
			state = EXCLUDED.state,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, sess.CallID, sess.Phone, string(raw), sess.CreatedAt, sess.UpdatedAt); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, callID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM call_sessions WHERE call_id = $1`, callID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *PostgresStore) PruneOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM call_sessions WHERE updated_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune sessions rows affected: %w", err)
	}
	return int(n), nil
}
