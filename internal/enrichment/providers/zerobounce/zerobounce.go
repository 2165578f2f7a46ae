// Package zerobounce is the email deliverability client.
package zerobounce

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"callfile/internal/enrichment/providers"
)

const (
	ProviderName   = "zerobounce"
	DefaultBaseURL = "https://api.zerobounce.net/v2"
)

// Sub-statuses that flag an address as invalid. A "valid" status still wins.
var rejectedSubStatus = map[string]bool{
	"disposable": true,
	"role_based": true,
	"toxic":      true,
	"spam_trap":  true,
}

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

type validateResponse struct {
	Address   string `json:"address"`
	Status    string `json:"status"`
	SubStatus string `json:"sub_status"`
}

func (c *Client) Validate(ctx context.Context, email string) (*providers.EmailVerdict, error) {
	if c.apiKey == "" {
		return nil, providers.ErrNotConfigured
	}
	q := url.Values{"api_key": {c.apiKey}, "email": {email}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/validate?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build zerobounce request: %w", err)
	}

	var body validateResponse
	if err := c.http.Do(ctx, "validate", req, &body); err != nil {
		return nil, err
	}
	status := strings.ToLower(body.Status)
	sub := strings.ToLower(body.SubStatus)
	return &providers.EmailVerdict{
		Status:    status,
		SubStatus: sub,
		Invalid:   status == "invalid" || rejectedSubStatus[sub],
	}, nil
}
