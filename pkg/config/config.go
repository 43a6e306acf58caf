package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix scopes every environment variable this service reads.
	EnvPrefix = "MARKETBOX"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	Store        StoreConfig
	Redis        RedisConfig
	DB           DBConfig
	Cart         CartConfig
	Upstream     UpstreamConfig
	PubSub       PubSubConfig
	Sweeper      SweeperConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Store.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MARKETBOX_APP_ENV" required:"true"`
	Port         string `envconfig:"MARKETBOX_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"MARKETBOX_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MARKETBOX_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"MARKETBOX_SERVICE_KIND" default:"api"`
}

// StoreConfig selects the session state backend.
type StoreConfig struct {
	// Backend is "redis" or "sql".
	Backend string `envconfig:"MARKETBOX_STORE_BACKEND" default:"redis"`
}

const (
	StoreBackendRedis = "redis"
	StoreBackendSQL   = "sql"
)

func (s StoreConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(s.Backend)) {
	case StoreBackendRedis, StoreBackendSQL:
		return nil
	default:
		return fmt.Errorf("invalid store backend %q (expected redis or sql)", s.Backend)
	}
}

// Normalized returns the backend name lowercased and trimmed.
func (s StoreConfig) Normalized() string {
	return strings.ToLower(strings.TrimSpace(s.Backend))
}

type RedisConfig struct {
	URL          string        `envconfig:"MARKETBOX_REDIS_URL"`
	Address      string        `envconfig:"MARKETBOX_REDIS_ADDR"`
	Password     string        `envconfig:"MARKETBOX_REDIS_PASSWORD"`
	DB           int           `envconfig:"MARKETBOX_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MARKETBOX_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MARKETBOX_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MARKETBOX_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MARKETBOX_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MARKETBOX_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type DBConfig struct {
	DSN    string `envconfig:"MARKETBOX_DB_DSN"`
	Driver string `envconfig:"MARKETBOX_DB_DRIVER" default:"postgres"`

	MaxOpenConns    int           `envconfig:"MARKETBOX_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MARKETBOX_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MARKETBOX_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MARKETBOX_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// CartConfig tunes cart persistence.
type CartConfig struct {
	// TTL is the hard cutoff past which a cart is discarded wholesale on load.
	TTL time.Duration `envconfig:"MARKETBOX_CART_TTL" default:"24h"`
}

// UpstreamConfig points at the marketplace backend that owns the data.
type UpstreamConfig struct {
	BaseURL    string        `envconfig:"MARKETBOX_UPSTREAM_BASE_URL" required:"true"`
	Timeout    time.Duration `envconfig:"MARKETBOX_UPSTREAM_TIMEOUT" default:"10s"`
	MaxRetries int           `envconfig:"MARKETBOX_UPSTREAM_MAX_RETRIES" default:"2"`
	RetryDelay time.Duration `envconfig:"MARKETBOX_UPSTREAM_RETRY_DELAY" default:"2s"`
}

type PubSubConfig struct {
	ProjectID                string        `envconfig:"MARKETBOX_GCP_PROJECT_ID"`
	CredentialsJSON          string        `envconfig:"MARKETBOX_GCP_CREDENTIALS_JSON"`
	NotificationTopic        string        `envconfig:"MARKETBOX_PUBSUB_NOTIFICATION_TOPIC" default:"mb-notification-events"`
	NotificationSubscription string        `envconfig:"MARKETBOX_PUBSUB_NOTIFICATION_SUBSCRIPTION"`
	IdempotencyTTL           time.Duration `envconfig:"MARKETBOX_PUBSUB_IDEMPOTENCY_TTL" default:"720h"`
}

// SweeperConfig drives the expired-cart sweep worker.
type SweeperConfig struct {
	Interval  time.Duration `envconfig:"MARKETBOX_SWEEP_INTERVAL" default:"15m"`
	BatchSize int           `envconfig:"MARKETBOX_SWEEP_BATCH_SIZE" default:"200"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MARKETBOX_AUTO_MIGRATE" default:"false"`
}
