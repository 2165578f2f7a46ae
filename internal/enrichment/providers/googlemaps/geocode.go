// Package googlemaps is the geocoding client.
package googlemaps

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"callfile/internal/enrichment/providers"
)

const (
	ProviderName   = "google_geocode"
	DefaultBaseURL = "https://maps.googleapis.com/maps/api"
)

type Client struct {
	apiKey  string
	baseURL string
	http    *providers.Client
}

func New(apiKey, baseURL string, opts ...providers.ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    providers.NewClient(ProviderName, opts...),
	}
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
			LocationType string `json:"location_type"`
		} `json:"geometry"`
	} `json:"results"`
	ErrorMessage string `json:"error_message"`
}

// Geocode returns the top result, or nil when nothing matched.
func (c *Client) Geocode(ctx context.Context, text string) (*providers.GeocodeResult, error) {
	if c.apiKey == "" {
		return nil, providers.ErrNotConfigured
	}
	q := url.Values{"address": {text}, "key": {c.apiKey}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/geocode/json?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build geocode request: %w", err)
	}

	var body geocodeResponse
	if err := c.http.Do(ctx, "geocode", req, &body); err != nil {
		return nil, err
	}
	switch body.Status {
	case "REQUEST_DENIED":
		return nil, providers.NewProviderError(providers.ErrorAuthentication, ProviderName, body.ErrorMessage, nil)
	case "OVER_QUERY_LIMIT", "OVER_DAILY_LIMIT":
		return nil, providers.NewProviderError(providers.ErrorRateLimited, ProviderName, body.ErrorMessage, nil)
	}
	if len(body.Results) == 0 {
		return nil, nil
	}
	top := body.Results[0]
	return &providers.GeocodeResult{
		Formatted:    top.FormattedAddress,
		Lat:          top.Geometry.Location.Lat,
		Lng:          top.Geometry.Location.Lng,
		LocationType: top.Geometry.LocationType,
	}, nil
}
