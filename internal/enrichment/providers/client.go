package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"callfile/pkg/platform/circuit"
	"callfile/pkg/platform/sentinel"
)

const (
	DefaultTimeout = 10 * time.Second
	maxBodyBytes   = 1 << 20
	errorBodyBytes = 512
)

// Client is the HTTP transport shared by every provider. Each request gets
// one attempt under a fixed timeout; a token bucket caps the request rate and
// a circuit breaker fails fast once the provider looks down.
type Client struct {
	provider string
	http     *http.Client
	limiter  *rate.Limiter
	breaker  *circuit.Breaker
	metrics  *Metrics
	logger   *slog.Logger
	tracer   trace.Tracer
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithRateLimit sets the token bucket. A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithBreaker(b *circuit.Breaker) ClientOption {
	return func(c *Client) {
		c.breaker = b
	}
}

func WithMetrics(m *Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

func NewClient(provider string, opts ...ClientOption) *Client {
	c := &Client{
		provider: provider,
		http:     &http.Client{Timeout: DefaultTimeout},
		breaker:  circuit.New(provider),
		logger:   slog.Default(),
		tracer:   otel.Tracer("callfile/providers"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Provider() string {
	return c.provider
}

// Do sends req and decodes a JSON response body into out (which may be nil).
// Every failure is returned as a *ProviderError.
func (c *Client) Do(ctx context.Context, op string, req *http.Request, out any) error {
	ctx, span := c.tracer.Start(ctx, c.provider+"."+op)
	defer span.End()
	span.SetAttributes(
		attribute.String("provider", c.provider),
		attribute.String("http.method", req.Method),
	)

	start := time.Now()
	err := c.do(ctx, req.WithContext(ctx), out)
	c.metrics.ObserveCall(c.provider, op, outcomeOf(err), time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.WarnContext(ctx, "provider call failed",
			"provider", c.provider,
			"op", op,
			"category", string(GetCategory(err)),
			"error", err,
		)
	}
	return err
}

func (c *Client) do(ctx context.Context, req *http.Request, out any) error {
	if c.breaker != nil && !c.breaker.Allow() {
		return NewProviderError(ErrorProviderOutage, c.provider, "circuit open", sentinel.ErrUnavailable)
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return NewProviderError(ErrorRateLimited, c.provider, "rate limiter", err)
		}
	}

	err := c.roundTrip(req, out)
	c.record(err)
	return err
}

func (c *Client) roundTrip(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return NewProviderError(ErrorTimeout, c.provider, "request timed out", err)
		}
		return NewProviderError(ErrorProviderOutage, c.provider, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyBytes))
		return NewProviderError(categoryForStatus(resp.StatusCode), c.provider,
			fmt.Sprintf("unexpected status %d", resp.StatusCode),
			errors.New(string(snippet)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return NewProviderError(ErrorBadData, c.provider, "decode response", err)
	}
	return nil
}

// record feeds the breaker. Only failures that say something about the
// provider's health count against it.
func (c *Client) record(err error) {
	if c.breaker == nil {
		return
	}
	if err != nil && IsRetryable(err) {
		if _, change := c.breaker.RecordFailure(); change.Opened {
			c.logger.Warn("provider circuit opened", "provider", c.provider)
		}
		return
	}
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.Info("provider circuit closed", "provider", c.provider)
	}
}

func categoryForStatus(status int) ErrorCategory {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrorAuthentication
	case status == http.StatusNotFound:
		return ErrorNotFound
	case status == http.StatusTooManyRequests:
		return ErrorRateLimited
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return ErrorTimeout
	case status >= 500:
		return ErrorProviderOutage
	default:
		return ErrorBadData
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	return string(GetCategory(err))
}
