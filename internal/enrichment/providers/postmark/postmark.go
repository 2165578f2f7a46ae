// Package postmark is the transactional email client.
package postmark

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"callfile/internal/enrichment/providers"
)

const (
	ProviderName   = "postmark"
	DefaultBaseURL = "https://api.postmarkapp.com"
)

type Client struct {
	serverToken string
	from        string
	baseURL     string
	http        *providers.Client
}

func New(serverToken, from, baseURL string, opts ...providers.ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		serverToken: serverToken,
		from:        from,
		baseURL:     strings.TrimRight(baseURL, "/"),
		http:        providers.NewClient(ProviderName, opts...),
	}
}

type sendRequest struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HTMLBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody,omitempty"`
}

type sendResponse struct {
	MessageID string `json:"MessageID"`
	ErrorCode int    `json:"ErrorCode"`
	Message   string `json:"Message"`
}

func (c *Client) Send(ctx context.Context, msg providers.Message) (*providers.Delivery, error) {
	if c.serverToken == "" || c.from == "" {
		return nil, providers.ErrNotConfigured
	}
	payload, err := json.Marshal(sendRequest{
		From:     c.from,
		To:       msg.To,
		Subject:  msg.Subject,
		HTMLBody: msg.HTMLBody,
		TextBody: msg.TextBody,
	})
	if err != nil {
		return nil, fmt.Errorf("encode postmark message: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/email", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build postmark request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)

	var body sendResponse
	if err := c.http.Do(ctx, "send", req, &body); err != nil {
		return nil, err
	}
	if body.ErrorCode != 0 {
		return nil, providers.NewProviderError(providers.ErrorBadData, ProviderName,
			fmt.Sprintf("error code %d: %s", body.ErrorCode, body.Message), nil)
	}
	return &providers.Delivery{MessageID: body.MessageID}, nil
}
