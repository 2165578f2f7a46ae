package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"callfile/internal/archive"
	callerstore "callfile/internal/caller/store"
	consentservice "callfile/internal/consent/service"
	consentstore "callfile/internal/consent/store"
	"callfile/internal/conversation"
	"callfile/internal/enrichment"
	"callfile/internal/enrichment/providers"
	"callfile/internal/enrichment/providers/googlemaps"
	"callfile/internal/enrichment/providers/postmark"
	"callfile/internal/enrichment/providers/smarty"
	"callfile/internal/enrichment/providers/trestle"
	"callfile/internal/enrichment/providers/zerobounce"
	"callfile/internal/platform/config"
	"callfile/internal/platform/metrics"
	"callfile/internal/platform/postgres"
	"callfile/internal/platform/redis"
	sessionservice "callfile/internal/session/service"
	sessionstore "callfile/internal/session/store"
	httptransport "callfile/internal/transport/http"
	"callfile/pkg/platform/circuit"
)

type app struct {
	router    http.Handler
	sessions  *sessionservice.Service
	publisher *archive.Publisher
	closers   []func() error
}

// close releases everything build opened, newest first. It is safe on a
// partially built app.
func (a *app) close(log *slog.Logger) {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			log.Warn("archive publisher close failed", "error", err)
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn("resource close failed", "error", err)
		}
	}
}

// dbPinger adapts *sql.DB to the health check.
type dbPinger struct{ db *sql.DB }

func (p dbPinger) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

// redisPinger adapts the redis client, whose Ping returns a command.
type redisPinger struct{ c *redis.Client }

func (p redisPinger) Ping(ctx context.Context) error { return p.c.Health(ctx) }

func build(ctx context.Context, cfg config.Config, log *slog.Logger, reg prometheus.Registerer) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.close(log)
		}
	}()
	health := map[string]httptransport.Pinger{}

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if db != nil {
		a.closers = append(a.closers, db.Close)
		health["postgres"] = dbPinger{db: db}
	}
	pool, err := postgres.OpenPool(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if pool != nil {
		a.closers = append(a.closers, func() error { pool.Close(); return nil })
	}
	if db != nil {
		applied, err := postgres.Migrate(ctx, db)
		if err != nil {
			return nil, err
		}
		log.InfoContext(ctx, "database migrations applied", "count", len(applied))
	}

	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if rdb != nil {
		a.closers = append(a.closers, rdb.Close)
		health["redis"] = redisPinger{c: rdb}
	}

	var callers interface {
		enrichment.CallerStore
		conversation.CallerUpdater
		httptransport.CallerReader
	}
	if db != nil {
		callers = callerstore.NewPostgres(db)
	} else {
		callers = callerstore.NewInMemory()
	}

	var primary sessionservice.Store
	switch cfg.Session.Backend {
	case "redis":
		primary = sessionstore.NewRedis(rdb.Client, cfg.Session.AbandonAfter)
	case "postgres":
		primary = sessionstore.NewPostgres(db)
	default:
		primary = sessionstore.NewInMemory()
	}
	a.sessions = sessionservice.New(primary, sessionservice.WithLogger(log))

	var consents consentservice.Store
	if pool != nil {
		consents = consentstore.NewPostgres(pool)
	} else {
		consents = consentstore.NewInMemory()
	}

	providerMetrics := providers.NewMetrics(reg)
	clientOpts := func(name string) []providers.ClientOption {
		return []providers.ClientOption{
			providers.WithTimeout(cfg.Providers.Timeout),
			providers.WithRateLimit(cfg.Providers.RateLimit, cfg.Providers.Burst),
			providers.WithBreaker(circuit.New(name,
				circuit.WithFailureThreshold(cfg.Providers.FailureThreshold),
				circuit.WithCooldown(cfg.Providers.Cooldown),
			)),
			providers.WithMetrics(providerMetrics),
			providers.WithLogger(log),
		}
	}
	identity := trestle.New(cfg.Trestle.APIKey, cfg.Trestle.BaseURL, clientOpts("trestle")...)
	validator := zerobounce.New(cfg.ZeroBounce.APIKey, cfg.ZeroBounce.BaseURL, clientOpts("zerobounce")...)
	geocoder := googlemaps.New(cfg.Google.APIKey, cfg.Google.BaseURL, clientOpts("googlemaps")...)
	postal := smarty.New(cfg.Smarty.AuthID, cfg.Smarty.AuthToken, cfg.Smarty.BaseURL, clientOpts("smarty")...)
	mailer := postmark.New(cfg.Postmark.ServerToken, cfg.Postmark.From, cfg.Postmark.BaseURL, clientOpts("postmark")...)

	address := enrichment.NewAddressEnricher(geocoder, postal, log)
	enricher := enrichment.New(callers, identity, address,
		enrichment.WithLogger(log),
		enrichment.WithStalenessTTL(cfg.Enrichment.StalenessTTL()),
		enrichment.WithIdentityDecoder(trestle.ParseIdentity),
		enrichment.WithMetrics(enrichment.NewMetrics(reg)),
	)

	consentSvc := consentservice.New(consents, callers, mailer,
		consentservice.WithLogger(log),
		consentservice.WithSubject(cfg.Postmark.Subject),
		consentservice.WithMetrics(consentservice.NewMetrics(reg)),
	)

	sink, err := newSink(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if k, ok := sink.(*archive.KafkaSink); ok {
		health["kafka"] = k
	}
	a.publisher = archive.NewPublisher(sink,
		archive.WithLogger(log),
		archive.WithMetrics(archive.NewMetrics(reg)),
		archive.WithAsyncBuffer(cfg.Archive.Buffer),
	)

	engine, err := conversation.New(a.sessions, enricher, consentSvc,
		conversation.WithLogger(log),
		conversation.WithMetrics(conversation.NewMetrics(reg)),
		conversation.WithAddressCascade(address),
		conversation.WithEmailValidator(validator),
		conversation.WithGeocoder(geocoder),
		conversation.WithCallers(callers),
		conversation.WithArchiver(a.publisher),
		conversation.WithAbandonAfter(cfg.Session.AbandonAfter),
	)
	if err != nil {
		return nil, fmt.Errorf("build conversation engine: %w", err)
	}

	gatherer, _ := reg.(prometheus.Gatherer)
	a.router = httptransport.NewRouter(httptransport.RouterConfig{
		Calls:          httptransport.NewCallHandler(engine, log),
		Admin:          httptransport.NewAdminHandler(callers, consentSvc, log),
		Logger:         log,
		Metrics:        metrics.New(reg),
		Gatherer:       gatherer,
		RequestTimeout: cfg.Server.RequestTimeout,
		Username:       cfg.Auth.Username,
		PasswordHash:   cfg.Auth.PasswordHash,
		Health:         health,
	})
	return a, nil
}

func newSink(ctx context.Context, cfg config.Config) (archive.Sink, error) {
	switch cfg.Archive.Sink {
	case "kafka":
		sink, err := archive.NewKafkaSink(cfg.Kafka.BrokerList(), cfg.Kafka.ArchiveTopic)
		if err != nil {
			return nil, err
		}
		if err := sink.EnsureTopic(ctx, cfg.Kafka.Partitions, cfg.Kafka.ReplicationFactor); err != nil {
			sink.Close()
			return nil, err
		}
		return sink, nil
	case "none":
		return archive.Discard{}, nil
	default:
		return archive.NewFileSink(cfg.Archive.Dir)
	}
}
