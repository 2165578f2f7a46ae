package trestle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"callfile/internal/enrichment/providers"
)

const fullResponse = `{
  "is_valid": true,
  "line_type": "Mobile",
  "carrier": "T-Mobile",
  "is_prepaid": false,
  "owners": [
    {
      "name": "Jane Doe",
      "firstname": "Jane",
      "lastname": "Doe",
      "type": "Person",
      "age_range": "35-39",
      "emails": [{"email_address": "jane@example.com"}, "jd@work.com"],
      "current_addresses": [
        {"street_line_1": "1 Main St", "city": "Springfield", "state_code": "IL", "postal_code": "62701",
         "lat_long": {"latitude": 39.8, "longitude": -89.6, "accuracy": "RoofTop"}}
      ],
      "alternate_phones": [{"phoneNumber": "+15550001111", "lineType": "Landline"}]
    },
    {"name": "John Doe", "type": "Person", "emails": "john@example.com"}
  ]
}`

func TestLookupPhone(t *testing.T) {
	t.Run("parses the primary owner", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/phone", r.URL.Path)
			assert.Equal(t, "15551234567", r.URL.Query().Get("phone"))
			assert.Equal(t, "key", r.Header.Get("x-api-key"))
			_, _ = w.Write([]byte(fullResponse))
		}))
		defer srv.Close()

		id, err := New("key", srv.URL).LookupPhone(context.Background(), "+15551234567")
		require.NoError(t, err)

		assert.Equal(t, "Jane Doe", id.OwnerName)
		assert.Equal(t, "mobile", id.LineType)
		assert.True(t, id.SMSEligible)
		assert.Equal(t, []string{"jane@example.com", "jd@work.com"}, id.Emails)
		assert.Equal(t, "jane@example.com", id.FirstEmail())
		assert.Equal(t, "1 Main St, Springfield, IL, 62701", id.FirstAddress())
		require.NotNil(t, id.Addresses[0].Lat)
		assert.InDelta(t, 39.8, *id.Addresses[0].Lat, 1e-9)
		assert.Equal(t, 2, id.OwnerCount)
		assert.Equal(t, 1, id.Owners[1].EmailCount)
		assert.Equal(t, "landline", id.AlternatePhones[0].LineType)
		assert.True(t, json.Valid(id.Raw))
	})

	t.Run("no owners yields phone-level fields only", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"line_type": "Landline", "owners": []}`))
		}))
		defer srv.Close()

		id, err := New("key", srv.URL).LookupPhone(context.Background(), "+15551234567")
		require.NoError(t, err)
		assert.Empty(t, id.OwnerName)
		assert.False(t, id.SMSEligible)
		assert.Empty(t, id.FirstEmail())
		assert.Empty(t, id.FirstAddress())
	})

	t.Run("missing key is not configured", func(t *testing.T) {
		_, err := New("", "").LookupPhone(context.Background(), "+15551234567")
		assert.ErrorIs(t, err, providers.ErrNotConfigured)
	})

	t.Run("server error is an outage", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := New("key", srv.URL).LookupPhone(context.Background(), "+15551234567")
		require.Error(t, err)
		assert.Equal(t, providers.ErrorProviderOutage, providers.GetCategory(err))
	})
}

func TestParseIdentity(t *testing.T) {
	t.Run("stored payload yields the same identity as a lookup", func(t *testing.T) {
		id, err := ParseIdentity(json.RawMessage(fullResponse))
		require.NoError(t, err)

		assert.Equal(t, "Jane", id.FirstName)
		assert.Equal(t, "35-39", id.AgeRange)
		assert.Equal(t, "T-Mobile", id.Carrier)
		require.NotNil(t, id.IsPrepaid)
		assert.False(t, *id.IsPrepaid)
		assert.Equal(t, 2, id.OwnerCount)
	})

	t.Run("garbage is bad data", func(t *testing.T) {
		_, err := ParseIdentity(json.RawMessage(`{not json`))
		assert.Equal(t, providers.ErrorBadData, providers.GetCategory(err))
	})
}
