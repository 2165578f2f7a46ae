package enrichment

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"callfile/internal/caller/models"
	"callfile/internal/caller/store"
	"callfile/internal/enrichment/providers"
	"callfile/internal/enrichment/providers/mocks"
	"callfile/internal/enrichment/providers/trestle"
	"callfile/pkg/requestcontext"
)

const phone = "+15551234567"

type EnrichmentServiceSuite struct {
	suite.Suite
	ctx      context.Context
	now      time.Time
	callers  *store.InMemoryStore
	identity *mocks.MockIdentityLookup
	geocoder *mocks.MockGeocoder
	postal   *mocks.MockPostalValidator
	service  *Service
}

func TestEnrichmentServiceSuite(t *testing.T) {
	suite.Run(t, new(EnrichmentServiceSuite))
}

func (s *EnrichmentServiceSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.callers = store.NewInMemory()
	s.identity = mocks.NewMockIdentityLookup(ctrl)
	s.geocoder = mocks.NewMockGeocoder(ctrl)
	s.postal = mocks.NewMockPostalValidator(ctrl)
	s.service = New(s.callers, s.identity, NewAddressEnricher(s.geocoder, s.postal, logger),
		WithLogger(logger),
		WithStalenessTTL(90*24*time.Hour),
	)
}

func (s *EnrichmentServiceSuite) seed(enrichedAgo time.Duration, u models.CallerUpdate) {
	at := s.now.Add(-enrichedAgo)
	u.LastEnrichedAt = &at
	_, err := s.callers.Upsert(requestcontext.WithTime(context.Background(), at), phone, u)
	s.Require().NoError(err)
}

func (s *EnrichmentServiceSuite) TestNewCallerFullEnrichment() {
	s.identity.EXPECT().LookupPhone(gomock.Any(), phone).Return(&providers.Identity{
		OwnerName:   "Jane Doe",
		LineType:    "mobile",
		SMSEligible: true,
		Emails:      []string{"jane@x.com"},
		Addresses:   []providers.IdentityAddress{{Formatted: "123 Main St, Springfield, IL"}},
		Raw:         []byte(`{"owners":[{"name":"Jane Doe"}]}`),
	}, nil)
	s.geocoder.EXPECT().Geocode(gomock.Any(), "123 Main St, Springfield, IL").Return(&providers.GeocodeResult{
		Formatted:    "123 Main St, Springfield, IL 62701, USA",
		Lat:          39.78,
		Lng:          -89.65,
		LocationType: "ROOFTOP",
	}, nil)
	s.postal.EXPECT().Validate(gomock.Any(), "123 Main St", "Springfield", "IL", "62701").Return(&providers.PostalResult{
		Normalized:   "123 Main St, Springfield IL 62701-1001",
		DPVMatchCode: "Y",
	}, nil)

	res, err := s.service.Enrich(s.ctx, phone)
	s.Require().NoError(err)

	s.Equal(SourceNew, res.Source)
	s.Equal("Jane Doe", res.OwnerName)
	s.Equal("jane@x.com", res.CandidateEmail)
	s.Equal("Y", res.DPVMatchCode)
	s.Equal("123 Main St, Springfield IL 62701-1001", res.DisplayAddress())
	s.NotNil(res.Identity)

	rec, err := s.callers.Get(s.ctx, phone)
	s.Require().NoError(err)
	s.Equal("Jane Doe", *rec.OwnerName)
	s.Equal("123 Main St, Springfield, IL", *rec.CandidateAddress)
	s.Equal("123 Main St, Springfield IL 62701-1001", *rec.AddressNormalized)
	s.InDelta(39.78, *rec.GeocodeLat, 1e-9)
	s.Equal("ROOFTOP", *rec.GeocodeConfidence)
	s.Equal("Y", *rec.DPVMatchCode)
	s.True(rec.LastEnrichedAt.Equal(s.now))
	s.JSONEq(`{"owners":[{"name":"Jane Doe"}]}`, string(rec.IdentityRaw))
}

func (s *EnrichmentServiceSuite) TestNewCallerLookupFailureProceedsEmpty() {
	s.identity.EXPECT().LookupPhone(gomock.Any(), phone).
		Return(nil, providers.NewProviderError(providers.ErrorTimeout, "trestle", "request timed out", nil))

	res, err := s.service.Enrich(s.ctx, phone)
	s.Require().NoError(err)
	s.Equal(SourceNew, res.Source)
	s.Empty(res.OwnerName)
	s.Empty(res.CandidateEmail)
	s.Nil(res.Identity)

	_, err = s.callers.Get(s.ctx, phone)
	s.Error(err)
}

func (s *EnrichmentServiceSuite) TestNewCallerLookupNotConfigured() {
	s.identity.EXPECT().LookupPhone(gomock.Any(), phone).Return(nil, providers.ErrNotConfigured)

	res, err := s.service.Enrich(s.ctx, phone)
	s.Require().NoError(err)
	s.Equal(SourceNew, res.Source)
	s.Empty(res.OwnerName)
}

func (s *EnrichmentServiceSuite) TestReturningFreshMakesNoExternalCalls() {
	s.seed(10*24*time.Hour, models.CallerUpdate{
		OwnerName:         models.Ptr("Jane Doe"),
		CandidateEmail:    models.Ptr("old@x.com"),
		ValidatedEmail:    models.Ptr("jane@x.com"),
		CandidateAddress:  models.Ptr("123 main"),
		AddressNormalized: models.Ptr("123 Main St, Springfield IL 62701"),
		GeocodeLat:        models.Ptr(39.78),
		GeocodeLng:        models.Ptr(-89.65),
		DPVMatchCode:      models.Ptr("Y"),
	})

	res, err := s.service.Enrich(s.ctx, phone)
	s.Require().NoError(err)
	s.Equal(SourceReturning, res.Source)
	s.Equal("jane@x.com", res.CandidateEmail)
	s.Equal("123 Main St, Springfield IL 62701", res.CandidateAddress)
	s.Nil(res.Identity)
}

func (s *EnrichmentServiceSuite) TestReturningBackfillsMissingGeocode() {
	s.seed(10*24*time.Hour, models.CallerUpdate{
		OwnerName:        models.Ptr("Jane Doe"),
		CandidateAddress: models.Ptr("456 Oak Ave, Springfield, IL"),
	})
	s.geocoder.EXPECT().Geocode(gomock.Any(), "456 Oak Ave, Springfield, IL").Return(&providers.GeocodeResult{
		Formatted: "456 Oak Ave, Springfield, IL 62704, USA",
		Lat:       39.7,
		Lng:       -89.6,
	}, nil)
	s.postal.EXPECT().Validate(gomock.Any(), "456 Oak Ave", "Springfield", "IL", "62704").
		Return(&providers.PostalResult{Normalized: "456 Oak Ave, Springfield IL 62704", DPVMatchCode: "Y"}, nil)

	res, err := s.service.Enrich(s.ctx, phone)
	s.Require().NoError(err)
	s.Equal(SourceReturning, res.Source)
	s.Equal("456 Oak Ave, Springfield IL 62704", res.CandidateAddress)

	rec, err := s.callers.Get(s.ctx, phone)
	s.Require().NoError(err)
	s.Require().NotNil(rec.GeocodeLat)
	s.Equal("456 Oak Ave, Springfield IL 62704", *rec.AddressNormalized)
}

func (s *EnrichmentServiceSuite) TestStaleLookupFailureFallsBackToStoredRecord() {
	s.seed(200*24*time.Hour, models.CallerUpdate{
		OwnerName:      models.Ptr("Jane Doe"),
		LineType:       models.Ptr("landline"),
		CandidateEmail: models.Ptr("jane@x.com"),
	})
	before, err := s.callers.Get(s.ctx, phone)
	s.Require().NoError(err)

	s.identity.EXPECT().LookupPhone(gomock.Any(), phone).Return(nil, errors.New("connection refused"))

	res, err := s.service.Enrich(s.ctx, phone)
	s.Require().NoError(err)
	s.Equal(SourceRefreshed, res.Source)
	s.Equal("Jane Doe", res.OwnerName)
	s.Equal("jane@x.com", res.CandidateEmail)

	after, err := s.callers.Get(s.ctx, phone)
	s.Require().NoError(err)
	s.Equal(before, after)
}

func (s *EnrichmentServiceSuite) TestStaleLookupValuesWin() {
	s.seed(200*24*time.Hour, models.CallerUpdate{
		OwnerName:      models.Ptr("Jane Smith"),
		ValidatedEmail: models.Ptr("jane@old.com"),
	})
	s.identity.EXPECT().LookupPhone(gomock.Any(), phone).Return(&providers.Identity{
		OwnerName: "Jane Doe",
		LineType:  "mobile",
	}, nil)

	res, err := s.service.Enrich(s.ctx, phone)
	s.Require().NoError(err)
	s.Equal(SourceRefreshed, res.Source)
	s.Equal("Jane Doe", res.OwnerName)
	s.Equal("jane@old.com", res.CandidateEmail, "stored email fills the gap the lookup left")

	rec, err := s.callers.Get(s.ctx, phone)
	s.Require().NoError(err)
	s.Equal("Jane Doe", *rec.OwnerName)
	s.Equal("jane@old.com", *rec.ValidatedEmail)
	s.True(rec.LastEnrichedAt.Equal(s.now))
}

func (s *EnrichmentServiceSuite) TestStalenessBoundary() {
	s.seed(90*24*time.Hour, models.CallerUpdate{OwnerName: models.Ptr("Jane Doe")})

	res, err := s.service.Enrich(s.ctx, phone)
	s.Require().NoError(err)
	s.Equal(SourceReturning, res.Source, "a record exactly one TTL old is fresh")
}

func (s *EnrichmentServiceSuite) TestStoreReadFailureDegradesToNewCaller() {
	failing := &failingStore{err: errors.New("db down")}
	service := New(failing, s.identity, nil, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.identity.EXPECT().LookupPhone(gomock.Any(), phone).Return(&providers.Identity{OwnerName: "Jane Doe"}, nil)

	res, err := service.Enrich(s.ctx, phone)
	s.Require().NoError(err)
	s.Equal(SourceNew, res.Source)
	s.Equal("Jane Doe", res.OwnerName)
	s.Equal(1, failing.upserts)
}

func (s *EnrichmentServiceSuite) TestRejectsMalformedPhone() {
	_, err := s.service.Enrich(s.ctx, "call me")
	s.Error(err)
}

type failingStore struct {
	err     error
	upserts int
}

func (f *failingStore) Get(context.Context, string) (*models.CallerRecord, error) {
	return nil, f.err
}

func (f *failingStore) Upsert(context.Context, string, models.CallerUpdate) (*models.CallerRecord, error) {
	f.upserts++
	return nil, f.err
}

func (s *EnrichmentServiceSuite) TestReturningRebuildsIdentityFromStoredPayload() {
	s.service = New(s.callers, s.identity, nil, WithIdentityDecoder(trestle.ParseIdentity))
	s.seed(10*24*time.Hour, models.CallerUpdate{
		OwnerName: models.Ptr("Jane Doe"),
		IdentityRaw: []byte(`{"line_type":"Mobile","carrier":"T-Mobile","is_prepaid":false,` +
			`"owners":[{"name":"Jane Doe","firstname":"Jane","age_range":"35-39","emails":"jane@x.com"}]}`),
	})

	res, err := s.service.Enrich(s.ctx, phone)
	s.Require().NoError(err)

	s.Equal(SourceReturning, res.Source)
	s.Require().NotNil(res.Identity)
	s.Equal("Jane", res.Identity.FirstName)
	s.Equal("35-39", res.Identity.AgeRange)
	s.Equal("T-Mobile", res.Identity.Carrier)
	s.Equal([]string{"jane@x.com"}, res.Identity.Emails)
}

func (s *EnrichmentServiceSuite) TestStaleFallbackRebuildsIdentityFromStoredPayload() {
	s.service = New(s.callers, s.identity, nil, WithIdentityDecoder(trestle.ParseIdentity))
	s.seed(120*24*time.Hour, models.CallerUpdate{
		OwnerName:   models.Ptr("Jane Doe"),
		IdentityRaw: []byte(`{"owners":[{"name":"Jane Doe","gender":"Female"}]}`),
	})
	s.identity.EXPECT().LookupPhone(gomock.Any(), phone).
		Return(nil, providers.NewProviderError(providers.ErrorProviderOutage, "trestle", "bad gateway", nil))

	res, err := s.service.Enrich(s.ctx, phone)
	s.Require().NoError(err)

	s.Equal(SourceRefreshed, res.Source)
	s.Require().NotNil(res.Identity)
	s.Equal("Female", res.Identity.Gender)
}

func (s *EnrichmentServiceSuite) TestUnreadableStoredPayloadIsSkipped() {
	s.service = New(s.callers, s.identity, nil, WithIdentityDecoder(func(json.RawMessage) (*providers.Identity, error) {
		return nil, errors.New("corrupt payload")
	}))
	s.seed(10*24*time.Hour, models.CallerUpdate{
		OwnerName:   models.Ptr("Jane Doe"),
		IdentityRaw: []byte(`{"owners":[]}`),
	})

	res, err := s.service.Enrich(s.ctx, phone)
	s.Require().NoError(err)
	s.Equal("Jane Doe", res.OwnerName)
	s.Nil(res.Identity)
}
