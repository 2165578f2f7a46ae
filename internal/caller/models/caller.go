package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// CallerRecord is the durable identity/contact cache for one phone number.
// Nil fields are unknown; an upsert never turns a known field back into nil.
type CallerRecord struct {
	Phone string `json:"phone"`

	OwnerName   *string `json:"owner_name,omitempty"`
	LineType    *string `json:"line_type,omitempty"`
	SMSEligible *bool   `json:"sms_eligible,omitempty"`

	CandidateEmail   *string `json:"candidate_email,omitempty"`
	CandidateAddress *string `json:"candidate_address,omitempty"`

	AddressNormalized *string  `json:"address_normalized,omitempty"`
	GeocodeLat        *float64 `json:"geocode_lat,omitempty"`
	GeocodeLng        *float64 `json:"geocode_lng,omitempty"`
	GeocodeConfidence *string  `json:"geocode_confidence,omitempty"`
	DPVMatchCode      *string  `json:"dpv_match_code,omitempty"`
	ValidatedEmail    *string  `json:"validated_email,omitempty"`
	ValidatedAddress  *string  `json:"validated_address,omitempty"`

	IdentityRaw    json.RawMessage `json:"identity_raw,omitempty"`
	LastEnrichedAt *time.Time      `json:"last_enriched_at,omitempty"`
	LastCallAt     *time.Time      `json:"last_call_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// CallerUpdate is a partial write. A nil field means "not provided".
type CallerUpdate struct {
	OwnerName   *string
	LineType    *string
	SMSEligible *bool

	CandidateEmail   *string
	CandidateAddress *string

	AddressNormalized *string
	GeocodeLat        *float64
	GeocodeLng        *float64
	GeocodeConfidence *string
	DPVMatchCode      *string
	ValidatedEmail    *string
	ValidatedAddress  *string

	IdentityRaw    json.RawMessage
	LastEnrichedAt *time.Time
	LastCallAt     *time.Time
}

// Apply coalesces u onto r and advances UpdatedAt strictly past its previous value.
func (r *CallerRecord) Apply(u CallerUpdate, now time.Time) {
	coalesce(&r.OwnerName, u.OwnerName)
	coalesce(&r.LineType, u.LineType)
	coalesce(&r.SMSEligible, u.SMSEligible)
	coalesce(&r.CandidateEmail, u.CandidateEmail)
	coalesce(&r.CandidateAddress, u.CandidateAddress)
	coalesce(&r.AddressNormalized, u.AddressNormalized)
	coalesce(&r.GeocodeLat, u.GeocodeLat)
	coalesce(&r.GeocodeLng, u.GeocodeLng)
	coalesce(&r.GeocodeConfidence, u.GeocodeConfidence)
	coalesce(&r.DPVMatchCode, u.DPVMatchCode)
	coalesce(&r.ValidatedEmail, u.ValidatedEmail)
	coalesce(&r.ValidatedAddress, u.ValidatedAddress)
	coalesce(&r.LastEnrichedAt, u.LastEnrichedAt)
	coalesce(&r.LastCallAt, u.LastCallAt)
	if len(u.IdentityRaw) > 0 {
		r.IdentityRaw = append(json.RawMessage(nil), u.IdentityRaw...)
	}

	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if !now.After(r.UpdatedAt) {
		now = r.UpdatedAt.Add(time.Microsecond)
	}
	r.UpdatedAt = now
}

func coalesce[T any](dst **T, src *T) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

// Clone returns a deep copy so callers can't mutate store-owned state.
func (r *CallerRecord) Clone() *CallerRecord {
	if r == nil {
		return nil
	}
	out := &CallerRecord{Phone: r.Phone}
	out.Apply(r.asUpdate(), r.UpdatedAt)
	out.CreatedAt, out.UpdatedAt = r.CreatedAt, r.UpdatedAt
	return out
}

func (r *CallerRecord) asUpdate() CallerUpdate {
	return CallerUpdate{
		OwnerName:         r.OwnerName,
		LineType:          r.LineType,
		SMSEligible:       r.SMSEligible,
		CandidateEmail:    r.CandidateEmail,
		CandidateAddress:  r.CandidateAddress,
		AddressNormalized: r.AddressNormalized,
		GeocodeLat:        r.GeocodeLat,
		GeocodeLng:        r.GeocodeLng,
		GeocodeConfidence: r.GeocodeConfidence,
		DPVMatchCode:      r.DPVMatchCode,
		ValidatedEmail:    r.ValidatedEmail,
		ValidatedAddress:  r.ValidatedAddress,
		IdentityRaw:       r.IdentityRaw,
		LastEnrichedAt:    r.LastEnrichedAt,
		LastCallAt:        r.LastCallAt,
	}
}

// IsStale is true when the record was never enriched or its enrichment is
// older than ttl. A record exactly ttl old is still fresh.
func IsStale(r *CallerRecord, ttl time.Duration, now time.Time) bool {
	if r == nil || r.LastEnrichedAt == nil {
		return true
	}
	return now.Sub(*r.LastEnrichedAt) > ttl
}

// NeedsGeocode reports an address on file that was never geocoded.
func (r *CallerRecord) NeedsGeocode() bool {
	return r.CandidateAddress != nil && *r.CandidateAddress != "" && r.GeocodeLat == nil
}

// ParsePhone normalizes a caller number to E.164 form with a leading '+'.
func ParsePhone(raw string) (string, error) {
	var b strings.Builder
	for i, c := range strings.TrimSpace(raw) {
		switch {
		case c >= '0' && c <= '9':
			b.WriteRune(c)
		case c == '+' && i == 0:
		case c == ' ' || c == '-' || c == '(' || c == ')' || c == '.':
		default:
			return "", fmt.Errorf("invalid character %q in phone number", c)
		}
	}
	digits := b.String()
	if len(digits) < 7 || len(digits) > 15 {
		return "", fmt.Errorf("phone number must have 7 to 15 digits, got %d", len(digits))
	}
	return "+" + digits, nil
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// NonEmpty returns nil for "", otherwise a pointer to s.
func NonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns *p or the zero value.
func Deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
