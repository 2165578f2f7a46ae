package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix     = "CALLFILE_"
	envConfigPath = "CALLFILE_CONFIG"
)

// Config holds every tunable of the service. Sections map one-to-one onto
// YAML keys and onto CALLFILE_SECTION_FIELD environment variables.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Log        LogConfig        `koanf:"log"`
	Database   DatabaseConfig   `koanf:"database"`
	Redis      RedisConfig      `koanf:"redis"`
	Kafka      KafkaConfig      `koanf:"kafka"`
	Archive    ArchiveConfig    `koanf:"archive"`
	Session    SessionConfig    `koanf:"session"`
	Enrichment EnrichmentConfig `koanf:"enrichment"`
	Providers  ProvidersConfig  `koanf:"providers"`
	Trestle    TrestleConfig    `koanf:"trestle"`
	ZeroBounce ZeroBounceConfig `koanf:"zerobounce"`
	Google     GoogleConfig     `koanf:"google"`
	Smarty     SmartyConfig     `koanf:"smarty"`
	Postmark   PostmarkConfig   `koanf:"postmark"`
	Auth       AuthConfig       `koanf:"auth"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	RequestTimeout  time.Duration `koanf:"request_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// DatabaseConfig configures the Postgres pool. An empty URL selects in-memory stores.
type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

type RedisConfig struct {
	URL          string        `koanf:"url"`
	PoolSize     int           `koanf:"pool_size"`
	MinIdleConns int           `koanf:"min_idle_conns"`
	DialTimeout  time.Duration `koanf:"dial_timeout"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

type KafkaConfig struct {
	Brokers           string `koanf:"brokers"`
	ArchiveTopic      string `koanf:"archive_topic"`
	Partitions        int32  `koanf:"partitions"`
	ReplicationFactor int16  `koanf:"replication_factor"`
}

// BrokerList splits the comma-separated broker list.
func (k KafkaConfig) BrokerList() []string {
	var out []string
	for _, b := range strings.Split(k.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// ArchiveConfig selects where closing summaries go: "file", "kafka" or "none".
type ArchiveConfig struct {
	Sink   string `koanf:"sink"`
	Dir    string `koanf:"dir"`
	Buffer int    `koanf:"buffer"`
}

// SessionConfig selects the session backend: "memory", "redis" or "postgres".
type SessionConfig struct {
	Backend      string        `koanf:"backend"`
	AbandonAfter time.Duration `koanf:"abandon_after"`
	ReapInterval time.Duration `koanf:"reap_interval"`
}

type EnrichmentConfig struct {
	AddressTTL  time.Duration `koanf:"address_ttl"`
	EmailTTL    time.Duration `koanf:"email_ttl"`
	LineTypeTTL time.Duration `koanf:"line_type_ttl"`
}

// StalenessTTL is the single threshold applied to last_enriched_at: the
// shortest of the per-field TTLs, so no field is served past its own limit.
func (e EnrichmentConfig) StalenessTTL() time.Duration {
	ttl := e.AddressTTL
	for _, d := range []time.Duration{e.EmailTTL, e.LineTypeTTL} {
		if d > 0 && (ttl <= 0 || d < ttl) {
			ttl = d
		}
	}
	return ttl
}

// ProvidersConfig holds settings shared by every outbound collaborator.
type ProvidersConfig struct {
	Timeout          time.Duration `koanf:"timeout"`
	RateLimit        float64       `koanf:"rate_limit"`
	Burst            int           `koanf:"burst"`
	FailureThreshold int           `koanf:"failure_threshold"`
	Cooldown         time.Duration `koanf:"cooldown"`
}

type TrestleConfig struct {
	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url"`
}

type ZeroBounceConfig struct {
	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url"`
}

type GoogleConfig struct {
	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url"`
}

type SmartyConfig struct {
	AuthID    string `koanf:"auth_id"`
	AuthToken string `koanf:"auth_token"`
	BaseURL   string `koanf:"base_url"`
}

type PostmarkConfig struct {
	ServerToken string `koanf:"server_token"`
	BaseURL     string `koanf:"base_url"`
	From        string `koanf:"from"`
	Subject     string `koanf:"subject"`
}

// AuthConfig guards the webhook and admin routes with basic auth. An empty
// username disables the check; PasswordHash is a bcrypt hash.
type AuthConfig struct {
	Username     string `koanf:"username"`
	PasswordHash string `koanf:"password_hash"`
}

// Default returns the configuration used when neither file nor env override a key.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{Level: "info", Format: "json"},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			ArchiveTopic:      "callfile.calls",
			Partitions:        3,
			ReplicationFactor: 1,
		},
		Archive: ArchiveConfig{Sink: "file", Dir: "calls", Buffer: 64},
		Session: SessionConfig{
			Backend:      "memory",
			AbandonAfter: 24 * time.Hour,
			ReapInterval: time.Hour,
		},
		Enrichment: EnrichmentConfig{
			AddressTTL:  90 * 24 * time.Hour,
			EmailTTL:    180 * 24 * time.Hour,
			LineTypeTTL: 180 * 24 * time.Hour,
		},
		Providers: ProvidersConfig{
			Timeout:          10 * time.Second,
			RateLimit:        5,
			Burst:            5,
			FailureThreshold: 5,
			Cooldown:         30 * time.Second,
		},
		Trestle:    TrestleConfig{BaseURL: "https://api.trestleiq.com/3.2"},
		ZeroBounce: ZeroBounceConfig{BaseURL: "https://api.zerobounce.net/v2"},
		Google:     GoogleConfig{BaseURL: "https://maps.googleapis.com/maps/api"},
		Smarty:     SmartyConfig{BaseURL: "https://us-street.api.smarty.com"},
		Postmark: PostmarkConfig{
			BaseURL: "https://api.postmarkapp.com",
			Subject: "Confirmation of your contact details",
		},
	}
}

// Load reads the file named by CALLFILE_CONFIG (if any) and then applies
// environment overrides.
func Load() (Config, error) {
	return LoadFile(os.Getenv(envConfigPath))
}

// LoadFile loads defaults, then the YAML file at path (skipped when empty),
// then CALLFILE_* environment variables.
//
//	CALLFILE_SERVER_ADDR       -> server.addr
//	CALLFILE_TRESTLE_API_KEY   -> trestle.api_key
//	CALLFILE_ENRICHMENT_EMAIL_TTL -> enrichment.email_ttl
func LoadFile(path string) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envKey maps CALLFILE_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	section, field, ok := strings.Cut(lower, "_")
	if !ok {
		return lower
	}
	return section + "." + field
}

func (c Config) Validate() error {
	switch c.Session.Backend {
	case "memory", "redis", "postgres":
	default:
		return fmt.Errorf("session.backend must be memory, redis or postgres, got %q", c.Session.Backend)
	}
	switch c.Archive.Sink {
	case "file", "kafka", "none":
	default:
		return fmt.Errorf("archive.sink must be file, kafka or none, got %q", c.Archive.Sink)
	}
	if c.Session.Backend == "redis" && c.Redis.URL == "" {
		return fmt.Errorf("session.backend redis requires redis.url")
	}
	if c.Session.Backend == "postgres" && c.Database.URL == "" {
		return fmt.Errorf("session.backend postgres requires database.url")
	}
	if c.Archive.Sink == "kafka" && len(c.Kafka.BrokerList()) == 0 {
		return fmt.Errorf("archive.sink kafka requires kafka.brokers")
	}
	if c.Session.ReapInterval <= 0 || c.Session.AbandonAfter <= 0 {
		return fmt.Errorf("session.reap_interval and session.abandon_after must be positive")
	}
	if c.Enrichment.StalenessTTL() <= 0 {
		return fmt.Errorf("at least one enrichment TTL must be positive")
	}
	return nil
}
