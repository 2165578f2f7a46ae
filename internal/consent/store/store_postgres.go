package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"callfile/internal/consent/models"
)

// PostgresStore appends to the consent_log table. Rows are never updated or deleted.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Append(ctx context.Context, rec models.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO consent_log (id, phone, call_id, consent_type, decision, transcript_snippet, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)
	`, rec.ID, rec.Phone, rec.CallID, string(rec.Type), rec.Decision, rec.TranscriptSnippet, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("append consent record: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByPhone(ctx context.Context, phone string) ([]models.Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, phone, call_id, consent_type, decision, COALESCE(transcript_snippet, ''), created_at
		FROM consent_log
		WHERE phone = $1
		ORDER BY created_at, id
	`, phone)
	if err != nil {
		return nil, fmt.Errorf("list consent records: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Record, error) {
		var rec models.Record
		var typ string
		err := row.Scan(&rec.ID, &rec.Phone, &rec.CallID, &typ, &rec.Decision, &rec.TranscriptSnippet, &rec.CreatedAt)
		rec.Type = models.ConsentType(typ)
		return rec, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan consent records: %w", err)
	}
	return out, nil
}
