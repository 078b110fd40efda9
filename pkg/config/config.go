package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
	RateLimit    RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"DMARKET_APP_ENV" required:"true"`
	Port         string   `envconfig:"DMARKET_APP_PORT" default:"8080"`
	LogLevel     string   `envconfig:"DMARKET_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"DMARKET_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"DMARKET_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"DMARKET_DB_DSN"`
	Driver string `envconfig:"DMARKET_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"DMARKET_DB_HOST"`
	LegacyPort     int    `envconfig:"DMARKET_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"DMARKET_DB_USER"`
	LegacyPassword string `envconfig:"DMARKET_DB_PASSWORD"`
	LegacyName     string `envconfig:"DMARKET_DB_NAME"`
	LegacySSLMode  string `envconfig:"DMARKET_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DMARKET_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DMARKET_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DMARKET_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DMARKET_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"DMARKET_DB_SLOW_QUERY" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DMARKET_REDIS_URL"`
	Address      string        `envconfig:"DMARKET_REDIS_ADDR" default:"localhost:6379"`
	Password     string        `envconfig:"DMARKET_REDIS_PASSWORD"`
	DB           int           `envconfig:"DMARKET_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DMARKET_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DMARKET_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DMARKET_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DMARKET_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DMARKET_REDIS_WRITE_TIMEOUT" default:"5s"`
	KeyPrefix    string        `envconfig:"DMARKET_REDIS_KEY_PREFIX" default:"dm"`
}

type JWTConfig struct {
	Secret            string `envconfig:"DMARKET_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"DMARKET_JWT_ISSUER" default:"dmarket"`
	ExpirationMinutes int    `envconfig:"DMARKET_JWT_EXPIRATION_MINUTES" default:"60"`
}

// Expiration returns the access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"DMARKET_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"DMARKET_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"DMARKET_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"DMARKET_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	NotificationTopic        string `envconfig:"DMARKET_PUBSUB_NOTIFICATION_TOPIC" default:"dmarket-notifications"`
	NotificationSubscription string `envconfig:"DMARKET_PUBSUB_NOTIFICATION_SUBSCRIPTION" default:"dmarket-notifications-worker"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"DMARKET_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"DMARKET_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"DMARKET_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// PollInterval returns the idle sleep between empty outbox batches.
func (o OutboxConfig) PollInterval() time.Duration {
	if o.PollIntervalMS <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(o.PollIntervalMS) * time.Millisecond
}

type CronConfig struct {
	Interval               time.Duration `envconfig:"DMARKET_CRON_INTERVAL" default:"1h"`
	LockTTL                time.Duration `envconfig:"DMARKET_CRON_LOCK_TTL" default:"10m"`
	NotificationRetention  time.Duration `envconfig:"DMARKET_CRON_NOTIFICATION_RETENTION" default:"720h"`
	OutboxPublishedRetains time.Duration `envconfig:"DMARKET_CRON_OUTBOX_RETENTION" default:"168h"`
}

type RateLimitConfig struct {
	AdminWindow time.Duration `envconfig:"DMARKET_RATE_LIMIT_ADMIN_WINDOW" default:"1m"`
	AdminLimit  int           `envconfig:"DMARKET_RATE_LIMIT_ADMIN_LIMIT" default:"120"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}
	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
