package providers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"callfile/pkg/platform/circuit"
	"callfile/pkg/platform/sentinel"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func get(t *testing.T, url string) *http.Request {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	require.NoError(t, err)
	return req
}

func TestClientDo(t *testing.T) {
	t.Run("decodes a successful response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"ok":true}`))
		}))
		defer srv.Close()

		var out struct{ OK bool }
		c := NewClient("test", WithLogger(quietLogger()))
		require.NoError(t, c.Do(context.Background(), "op", get(t, srv.URL), &out))
		assert.True(t, out.OK)
	})

	t.Run("timeout is categorized and never retried", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
		}))
		defer srv.Close()

		c := NewClient("test", WithTimeout(20*time.Millisecond), WithLogger(quietLogger()))
		err := c.Do(context.Background(), "op", get(t, srv.URL), nil)
		require.Error(t, err)
		assert.Equal(t, ErrorTimeout, GetCategory(err))
		assert.True(t, IsRetryable(err))
		assert.Equal(t, int32(1), hits.Load())
	})

	t.Run("status codes map to categories", func(t *testing.T) {
		cases := map[int]ErrorCategory{
			http.StatusUnauthorized:        ErrorAuthentication,
			http.StatusNotFound:            ErrorNotFound,
			http.StatusTooManyRequests:     ErrorRateLimited,
			http.StatusServiceUnavailable:  ErrorProviderOutage,
			http.StatusUnprocessableEntity: ErrorBadData,
		}
		for status, want := range cases {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(status)
			}))
			err := NewClient("test", WithLogger(quietLogger())).Do(context.Background(), "op", get(t, srv.URL), nil)
			srv.Close()
			assert.Equal(t, want, GetCategory(err), "status %d", status)
		}
	})

	t.Run("open breaker short-circuits without a request", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		breaker := circuit.New("test", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Hour))
		c := NewClient("test", WithBreaker(breaker), WithLogger(quietLogger()))

		for range 2 {
			_ = c.Do(context.Background(), "op", get(t, srv.URL), nil)
		}
		require.True(t, breaker.IsOpen())

		err := c.Do(context.Background(), "op", get(t, srv.URL), nil)
		assert.Equal(t, ErrorProviderOutage, GetCategory(err))
		assert.True(t, errors.Is(err, sentinel.ErrUnavailable))
		assert.Equal(t, int32(2), hits.Load())
	})

	t.Run("client errors do not trip the breaker", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		breaker := circuit.New("test", circuit.WithFailureThreshold(1))
		c := NewClient("test", WithBreaker(breaker), WithLogger(quietLogger()))
		_ = c.Do(context.Background(), "op", get(t, srv.URL), nil)
		assert.False(t, breaker.IsOpen())
	})

	t.Run("exhausted limiter fails once the context expires", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
		defer srv.Close()

		c := NewClient("test", WithRateLimit(0.001, 1), WithLogger(quietLogger()))
		require.NoError(t, c.Do(context.Background(), "op", get(t, srv.URL), nil))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		err := c.Do(ctx, "op", get(t, srv.URL), nil)
		assert.Equal(t, ErrorRateLimited, GetCategory(err))
	})

	t.Run("records metrics by outcome", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
		defer srv.Close()

		reg := prometheus.NewRegistry()
		c := NewClient("test", WithMetrics(NewMetrics(reg)), WithLogger(quietLogger()))
		require.NoError(t, c.Do(context.Background(), "op", get(t, srv.URL), nil))

		families, err := reg.Gather()
		require.NoError(t, err)
		var total float64
		for _, f := range families {
			if f.GetName() == "callfile_provider_calls_total" {
				for _, m := range f.GetMetric() {
					total += m.GetCounter().GetValue()
				}
			}
		}
		assert.Equal(t, 1.0, total)
	})
}

func TestProviderError(t *testing.T) {
	underlying := errors.New("boom")
	err := NewProviderError(ErrorBadData, "p", "decode", underlying)

	assert.ErrorIs(t, err, underlying)
	assert.False(t, IsRetryable(err))
	assert.Equal(t, ErrorInternal, GetCategory(errors.New("plain")))
	assert.Contains(t, err.Error(), "provider p [bad_data]: decode: boom")
}
