// Package enrichment resolves what is already known about a caller before the
// first conversation step runs.
package enrichment

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"callfile/internal/caller/models"
	"callfile/internal/enrichment/providers"
	"callfile/pkg/platform/sentinel"
	"callfile/pkg/requestcontext"
)

var tracer = otel.Tracer("callfile/enrichment")

// DefaultStalenessTTL applies when no TTL is configured.
const DefaultStalenessTTL = 90 * 24 * time.Hour

// Source says which path produced a Result.
type Source string

const (
	SourceNew       Source = "new"
	SourceReturning Source = "returning"
	SourceRefreshed Source = "refreshed"
)

// CallerStore is the subset of the caller record store used here.
type CallerStore interface {
	Get(ctx context.Context, phone string) (*models.CallerRecord, error)
	Upsert(ctx context.Context, phone string, update models.CallerUpdate) (*models.CallerRecord, error)
}

// Result is the enrichment snapshot handed to the conversation at call start.
type Result struct {
	Phone  string
	Source Source

	OwnerName   string
	LineType    string
	SMSEligible bool

	// Working candidates: validated values win over raw lookup values.
	CandidateEmail   string
	CandidateAddress string

	AddressNormalized string
	GeocodeLat        *float64
	GeocodeLng        *float64
	GeocodeConfidence string
	DPVMatchCode      string

	// Identity comes from a lookup during this call, or from the stored
	// lookup payload on the returning path. Nil when neither is available.
	Identity *providers.Identity
}

// IdentityDecoder rebuilds an Identity from the payload kept on the caller
// record.
type IdentityDecoder func(raw json.RawMessage) (*providers.Identity, error)

type Service struct {
	callers  CallerStore
	identity providers.IdentityLookup
	address  *AddressEnricher
	decode   IdentityDecoder
	ttl      time.Duration
	metrics  *Metrics
	logger   *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithStalenessTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithIdentityDecoder lets returning callers get full identity detail from
// the stored lookup payload without a new lookup.
func WithIdentityDecoder(d IdentityDecoder) Option {
	return func(s *Service) {
		s.decode = d
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(callers CallerStore, identity providers.IdentityLookup, address *AddressEnricher, opts ...Option) *Service {
	s := &Service{
		callers:  callers,
		identity: identity,
		address:  address,
		ttl:      DefaultStalenessTTL,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enrich picks the new, returning or refreshed path for phone. Collaborator
// and store failures degrade to less data; only a bad phone number is an error.
func (s *Service) Enrich(ctx context.Context, phone string) (*Result, error) {
	phone, err := models.ParsePhone(phone)
	if err != nil {
		return nil, err
	}
	ctx, span := tracer.Start(ctx, "enrichment.enrich")
	defer span.End()

	start := time.Now()
	rec, err := s.callers.Get(ctx, phone)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "caller store read failed, enriching as new caller",
				"phone", phone,
				"error", err,
			)
		}
		rec = nil
	}

	var res *Result
	now := requestcontext.Now(ctx)
	switch {
	case rec == nil:
		res = s.enrichNew(ctx, phone, now)
	case !models.IsStale(rec, s.ttl, now):
		res = s.enrichReturning(ctx, rec)
	default:
		res = s.enrichStale(ctx, rec, now)
	}

	span.SetAttributes(attribute.String("record_source", string(res.Source)))
	s.metrics.ObserveEnrichment(res.Source, time.Since(start))
	s.logger.InfoContext(ctx, "caller enriched",
		"phone", phone,
		"source", string(res.Source),
		"has_name", res.OwnerName != "",
		"has_email", res.CandidateEmail != "",
		"has_address", res.CandidateAddress != "",
		"dpv_match_code", res.DPVMatchCode,
	)
	return res, nil
}

func (s *Service) enrichNew(ctx context.Context, phone string, now time.Time) *Result {
	res := &Result{Phone: phone, Source: SourceNew}
	id := s.lookup(ctx, phone)
	if id == nil {
		return res
	}
	res.applyIdentity(id, nil)
	addr := s.cascade(ctx, id.FirstAddress())
	res.applyAddress(addr)

	s.upsert(ctx, phone, identityUpdate(id, addr, now))
	return res
}

func (s *Service) enrichReturning(ctx context.Context, rec *models.CallerRecord) *Result {
	res := fromRecord(rec, SourceReturning)
	res.Identity = s.storedIdentity(ctx, rec)
	if !rec.NeedsGeocode() {
		return res
	}

	s.logger.InfoContext(ctx, "backfilling geocode for address on file", "phone", rec.Phone)
	addr := s.cascade(ctx, *rec.CandidateAddress)
	if !addr.Found() {
		return res
	}
	res.applyAddress(addr)
	if addr.Normalized != "" {
		res.CandidateAddress = addr.Normalized
	}
	s.upsert(ctx, rec.Phone, models.CallerUpdate{
		AddressNormalized: models.NonEmpty(addr.Normalized),
		GeocodeLat:        addr.Lat,
		GeocodeLng:        addr.Lng,
		GeocodeConfidence: models.NonEmpty(addr.Confidence),
		DPVMatchCode:      models.NonEmpty(addr.DPVMatchCode),
	})
	return res
}

func (s *Service) enrichStale(ctx context.Context, rec *models.CallerRecord, now time.Time) *Result {
	id := s.lookup(ctx, rec.Phone)
	if id == nil {
		s.logger.InfoContext(ctx, "identity refresh failed, using stored record", "phone", rec.Phone)
		res := fromRecord(rec, SourceRefreshed)
		res.Identity = s.storedIdentity(ctx, rec)
		return res
	}

	res := &Result{Phone: rec.Phone, Source: SourceRefreshed}
	res.applyIdentity(id, rec)
	addr := s.cascade(ctx, res.CandidateAddress)
	res.applyAddress(addr)

	s.upsert(ctx, rec.Phone, identityUpdate(id, addr, now))
	return res
}

func (s *Service) lookup(ctx context.Context, phone string) *providers.Identity {
	if s.identity == nil {
		return nil
	}
	id, err := s.identity.LookupPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, providers.ErrNotConfigured) {
			s.logger.InfoContext(ctx, "identity lookup not configured, skipping enrichment")
		} else {
			s.logger.WarnContext(ctx, "identity lookup failed",
				"phone", phone,
				"category", string(providers.GetCategory(err)),
				"error", err,
			)
		}
		return nil
	}
	return id
}

func (s *Service) storedIdentity(ctx context.Context, rec *models.CallerRecord) *providers.Identity {
	if s.decode == nil || len(rec.IdentityRaw) == 0 {
		return nil
	}
	id, err := s.decode(rec.IdentityRaw)
	if err != nil {
		s.logger.WarnContext(ctx, "stored identity payload unreadable, continuing without it",
			"phone", rec.Phone,
			"error", err,
		)
		return nil
	}
	return id
}

func (s *Service) cascade(ctx context.Context, text string) AddressResult {
	if s.address == nil || text == "" {
		return AddressResult{}
	}
	return s.address.Enrich(ctx, text)
}

func (s *Service) upsert(ctx context.Context, phone string, u models.CallerUpdate) {
	if _, err := s.callers.Upsert(ctx, phone, u); err != nil {
		s.logger.WarnContext(ctx, "caller store write failed, continuing with in-memory result",
			"phone", phone,
			"error", err,
		)
	}
}

// Address exposes the cascade to in-call steps.
func (s *Service) Address() *AddressEnricher {
	return s.address
}

func identityUpdate(id *providers.Identity, addr AddressResult, now time.Time) models.CallerUpdate {
	return models.CallerUpdate{
		OwnerName:         models.NonEmpty(id.OwnerName),
		LineType:          models.NonEmpty(id.LineType),
		SMSEligible:       models.Ptr(id.SMSEligible),
		CandidateEmail:    models.NonEmpty(id.FirstEmail()),
		CandidateAddress:  models.NonEmpty(id.FirstAddress()),
		AddressNormalized: models.NonEmpty(addr.Normalized),
		GeocodeLat:        addr.Lat,
		GeocodeLng:        addr.Lng,
		GeocodeConfidence: models.NonEmpty(addr.Confidence),
		DPVMatchCode:      models.NonEmpty(addr.DPVMatchCode),
		IdentityRaw:       id.Raw,
		LastEnrichedAt:    models.Ptr(now),
		LastCallAt:        models.Ptr(now),
	}
}

func fromRecord(rec *models.CallerRecord, source Source) *Result {
	return &Result{
		Phone:             rec.Phone,
		Source:            source,
		OwnerName:         models.Deref(rec.OwnerName),
		LineType:          models.Deref(rec.LineType),
		SMSEligible:       models.Deref(rec.SMSEligible),
		CandidateEmail:    firstNonEmpty(models.Deref(rec.ValidatedEmail), models.Deref(rec.CandidateEmail)),
		CandidateAddress:  firstNonEmpty(models.Deref(rec.AddressNormalized), models.Deref(rec.CandidateAddress)),
		AddressNormalized: models.Deref(rec.AddressNormalized),
		GeocodeLat:        rec.GeocodeLat,
		GeocodeLng:        rec.GeocodeLng,
		GeocodeConfidence: models.Deref(rec.GeocodeConfidence),
		DPVMatchCode:      models.Deref(rec.DPVMatchCode),
	}
}

// applyIdentity sets identity fields from a fresh lookup. Lookup values win;
// prior, when set, fills gaps the lookup left.
func (r *Result) applyIdentity(id *providers.Identity, prior *models.CallerRecord) {
	r.Identity = id
	r.OwnerName = id.OwnerName
	r.LineType = id.LineType
	r.SMSEligible = id.SMSEligible
	r.CandidateEmail = id.FirstEmail()
	r.CandidateAddress = id.FirstAddress()
	if prior == nil {
		return
	}
	r.OwnerName = firstNonEmpty(r.OwnerName, models.Deref(prior.OwnerName))
	r.LineType = firstNonEmpty(r.LineType, models.Deref(prior.LineType))
	r.CandidateEmail = firstNonEmpty(r.CandidateEmail, models.Deref(prior.ValidatedEmail), models.Deref(prior.CandidateEmail))
	r.CandidateAddress = firstNonEmpty(r.CandidateAddress, models.Deref(prior.AddressNormalized), models.Deref(prior.CandidateAddress))
}

func (r *Result) applyAddress(addr AddressResult) {
	if !addr.Found() {
		return
	}
	r.AddressNormalized = addr.Normalized
	r.GeocodeLat = addr.Lat
	r.GeocodeLng = addr.Lng
	r.GeocodeConfidence = addr.Confidence
	r.DPVMatchCode = addr.DPVMatchCode
}

// DisplayAddress is the address to read back: normalized when known.
func (r *Result) DisplayAddress() string {
	return firstNonEmpty(r.AddressNormalized, r.CandidateAddress)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
