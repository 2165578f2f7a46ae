package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"callfile/internal/platform/metrics"
	"callfile/internal/platform/middleware"
	"callfile/pkg/platform/httputil"
	"callfile/pkg/platform/middleware/requesttime"
)

type RouterConfig struct {
	Calls          *CallHandler
	Admin          *AdminHandler
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	RequestTimeout time.Duration
	Username       string
	PasswordHash   string
	Health         map[string]Pinger
}

// NewRouter mounts the webhook, admin, health and metrics routes.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.LatencyMiddleware(cfg.Metrics))

	r.Get("/healthz", healthHandler(cfg.Health))
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		if cfg.RequestTimeout > 0 {
			r.Use(middleware.Timeout(cfg.RequestTimeout))
		}
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireBasicAuth(cfg.Username, cfg.PasswordHash, cfg.Logger))

		if cfg.Calls != nil {
			r.Post("/calls", cfg.Calls.handleStartCall)
			r.Post("/calls/{callID}/tools/{tool}", cfg.Calls.handleTool)
			r.Post("/calls/{callID}/summary", cfg.Calls.handleSummary)
		}
		if cfg.Admin != nil {
			r.Get("/admin/callers/{phone}", cfg.Admin.handleGetCaller)
			r.Get("/admin/callers/{phone}/consents", cfg.Admin.handleListConsents)
		}
	})
	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(deps))}
		status := http.StatusOK
		for name, dep := range deps {
			if err := dep.Ping(ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
