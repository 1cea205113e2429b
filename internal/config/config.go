package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sethvargo/go-envconfig"
	"go.uber.org/multierr"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	Environment string `toml:"-"`

	Host string `toml:"host"`
	Port int    `toml:"port"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// errors with causes in 500 bodies
	VerboseErrors bool `toml:"verbose_errors"`

	// storage
	Storage         string   `toml:"storage"`
	PostgresHost    string   `toml:"postgres_host"`
	PostgresPort    string   `toml:"postgres_port"`
	PostgresDBName  string   `toml:"postgres_db_name"`
	PostgresUser    string   `toml:"postgres_user"`
	RunMigrations   bool     `toml:"run_migrations"`
	SeedUserID      string   `toml:"seed_user_id"`
	ProfileCacheTTL Duration `toml:"profile_cache_ttl"`
	ListLatency     Duration `toml:"list_latency"`
	MaxBodyBytes    int64    `toml:"max_body_bytes"`

	// redis
	RedisHost       string `toml:"redis_host"`
	RedisPort       string `toml:"redis_port"`
	RateLimitPerMin int    `toml:"rate_limit_per_min"`

	CorsAllowedOrigins []string `toml:"cors_allowed_origins"`

	Auth Auth `toml:"auth"`
}

type Auth struct {
	AllowQueryUserID bool   `toml:"allow_query_user_id"`
	DefaultUserID    string `toml:"default_user_id"`
	Issuer           string `toml:"issuer"`
}

// Duration decodes TOML strings like "250ms" or "5m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("no config for env: %s", env)
	}
	cfg.Environment = strings.ToLower(env)
	return cfg, nil
}

func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config [%s]: %w", path, err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config [%s]: %w", env, err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.Storage == "" {
		c.Storage = StorageMemory
	}
	if c.PostgresPort == "" {
		c.PostgresPort = "5432"
	}
	if c.PostgresUser == "" {
		c.PostgresUser = "postgres"
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = 1 << 20
	}
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = "fittrack"
	}
}

func (c *Config) Validate() error {
	var err error
	switch c.Storage {
	case StorageMemory:
	case StoragePostgres:
		if c.PostgresHost == "" || c.PostgresDBName == "" {
			err = multierr.Append(err, errors.New("postgres storage needs postgres_host and postgres_db_name"))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("unknown storage: %q", c.Storage))
	}
	if c.Port < 0 || c.Port > 65535 {
		err = multierr.Append(err, fmt.Errorf("invalid port: %d", c.Port))
	}
	if c.RateLimitPerMin < 0 {
		err = multierr.Append(err, fmt.Errorf("negative rate_limit_per_min: %d", c.RateLimitPerMin))
	}
	if c.ListLatency.Duration < 0 || c.ProfileCacheTTL.Duration < 0 {
		err = multierr.Append(err, errors.New("durations must not be negative"))
	}
	return err
}

func (c *Config) RedisEnabled() bool {
	return c.RedisHost != ""
}

// Secrets are never read from the TOML file.
type Secrets struct {
	JWTSecret        string `env:"FITTRACK_JWT_SECRET"`
	RedisPassword    string `env:"FITTRACK_REDIS_PASS"`
	PostgresPassword string `env:"FITTRACK_POSTGRES_PASS"`
	SentryDSN        string `env:"SENTRY_DSN"`
	HoneycombEnabled bool   `env:"HONEYCOMB_ENABLED, default=false"`
	HoneycombAPIKey  string `env:"HONEYCOMB_API_KEY"`
	OtelServiceName  string `env:"OTEL_SERVICE_NAME, default=fittrack-api"`
}

func LoadSecrets(ctx context.Context) (*Secrets, error) {
	var s Secrets
	if err := envconfig.Process(ctx, &s); err != nil {
		return nil, fmt.Errorf("process env secrets: %w", err)
	}
	return &s, nil
}
