package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"callfile/internal/caller/models"
	"callfile/pkg/platform/sentinel"
	"callfile/pkg/requestcontext"
)

// PostgresStore persists caller records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed caller store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const callerColumns = `phone, owner_name, line_type, sms_eligible,
	candidate_email, candidate_address,
	address_normalized, geocode_lat, geocode_lng, geocode_confidence, dpv_match_code,
	validated_email, validated_address,
	identity_raw, last_enriched_at, last_call_at, created_at, updated_at`

func (s *PostgresStore) Get(ctx context.Context, phone string) (*models.CallerRecord, error) {
	query := `SELECT ` + callerColumns + ` FROM callers WHERE phone = $1`
	rec, err := scanCaller(s.db.QueryRowContext(ctx, query, phone))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("caller %s: %w", phone, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find caller: %w", err)
	}
	return rec, nil
}

// Upsert writes the provided fields. Conflicting rows keep any stored value the
// update leaves NULL, and updated_at moves strictly forward.
func (s *PostgresStore) Upsert(ctx context.Context, phone string, u models.CallerUpdate) (*models.CallerRecord, error) {
	if phone == "" {
		return nil, fmt.Errorf("phone is required")
	}
	query := `
		INSERT INTO callers (` + callerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14::jsonb, $15, $16, $17, $17)
		ON CONFLICT (phone) DO UPDATE SET
			owner_name = COALESCE(EXCLUDED.owner_name, callers.owner_name),
			line_type = COALESCE(EXCLUDED.line_type, callers.line_type),
			sms_eligible = COALESCE(EXCLUDED.sms_eligible, callers.sms_eligible),
			candidate_email = COALESCE(EXCLUDED.candidate_email, callers.candidate_email),
			candidate_address = COALESCE(EXCLUDED.candidate_address, callers.candidate_address),
			address_normalized = COALESCE(EXCLUDED.address_normalized, callers.address_normalized),
			geocode_lat = COALESCE(EXCLUDED.geocode_lat, callers.geocode_lat),
			geocode_lng = COALESCE(EXCLUDED.geocode_lng, callers.geocode_lng),
			geocode_confidence = COALESCE(EXCLUDED.geocode_confidence, callers.geocode_confidence),
			dpv_match_code = COALESCE(EXCLUDED.dpv_match_code, callers.dpv_match_code),
			validated_email = COALESCE(EXCLUDED.validated_email, callers.validated_email),
			validated_address = COALESCE(EXCLUDED.validated_address, callers.validated_address),
			identity_raw = COALESCE(EXCLUDED.identity_raw, callers.identity_raw),
			last_enriched_at = COALESCE(EXCLUDED.last_enriched_at, callers.last_enriched_at),
			last_call_at = COALESCE(EXCLUDED.last_call_at, callers.last_call_at),
			updated_at = GREATEST(EXCLUDED.updated_at, callers.updated_at + INTERVAL '1 microsecond')
		RETURNING ` + callerColumns

	row := s.db.QueryRowContext(ctx, query,
		phone,
		u.OwnerName,
		u.LineType,
		u.SMSEligible,
		u.CandidateEmail,
		u.CandidateAddress,
		u.AddressNormalized,
		u.GeocodeLat,
		u.GeocodeLng,
		u.GeocodeConfidence,
		u.DPVMatchCode,
		u.ValidatedEmail,
		u.ValidatedAddress,
		nullJSON(u.IdentityRaw),
		u.LastEnrichedAt,
		u.LastCallAt,
		requestcontext.Now(ctx),
	)
	rec, err := scanCaller(row)
	if err != nil {
		return nil, fmt.Errorf("upsert caller: %w", err)
	}
	return rec, nil
}

func nullJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func scanCaller(row *sql.Row) (*models.CallerRecord, error) {
	var rec models.CallerRecord
	var raw []byte
	err := row.Scan(
		&rec.Phone,
		&rec.OwnerName,
		&rec.LineType,
		&rec.SMSEligible,
		&rec.CandidateEmail,
		&rec.CandidateAddress,
		&rec.AddressNormalized,
		&rec.GeocodeLat,
		&rec.GeocodeLng,
		&rec.GeocodeConfidence,
		&rec.DPVMatchCode,
		&rec.ValidatedEmail,
		&rec.ValidatedAddress,
		&raw,
		&rec.LastEnrichedAt,
		&rec.LastCallAt,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(raw) > 0 {
		rec.IdentityRaw = json.RawMessage(raw)
	}
	return &rec, nil
}
