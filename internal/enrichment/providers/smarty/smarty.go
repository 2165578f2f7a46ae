// Package smarty is the US street address validation client.
package smarty

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"callfile/internal/enrichment/providers"
)

const (
	ProviderName   = "smarty"
	DefaultBaseURL = "https://us-street.api.smarty.com"

	// MatchNone is reported when the API returns no candidate.
	MatchNone = providers.DPVNoMatch
)

type Client struct {
	authID    string
	authToken string
	baseURL   string
	http      *providers.Client
}

func New(authID, authToken, baseURL string, opts ...providers.ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		authID:    authID,
		authToken: authToken,
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      providers.NewClient(ProviderName, opts...),
	}
}

type candidate struct {
	DeliveryLine1 string `json:"delivery_line_1"`
	LastLine      string `json:"last_line"`
	Analysis      struct {
		DPVMatchCode string `json:"dpv_match_code"`
	} `json:"analysis"`
}

func (c *Client) Validate(ctx context.Context, street, city, state, zip string) (*providers.PostalResult, error) {
	if c.authID == "" || c.authToken == "" {
		return nil, providers.ErrNotConfigured
	}
	q := url.Values{
		"auth-id":    {c.authID},
		"auth-token": {c.authToken},
		"street":     {street},
		"city":       {city},
		"state":      {state},
		"candidates": {"1"},
	}
	if zip != "" {
		q.Set("zipcode", zip)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/street-address?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build smarty request: %w", err)
	}

	var body []candidate
	if err := c.http.Do(ctx, "street_address", req, &body); err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return &providers.PostalResult{DPVMatchCode: MatchNone}, nil
	}

	top := body[0]
	normalized := top.DeliveryLine1
	if top.LastLine != "" {
		normalized += ", " + top.LastLine
	}
	code := top.Analysis.DPVMatchCode
	if code == "" {
		code = MatchNone
	}
	return &providers.PostalResult{Normalized: normalized, DPVMatchCode: code}, nil
}
