package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every environment variable this service reads.
const EnvPrefix = "unieats"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvDBDSN  = "UNIEATS_DB_DSN"
	EnvDBHost = "UNIEATS_DB_HOST"
	EnvDBUser = "UNIEATS_DB_USER"
	EnvDBName = "UNIEATS_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Razorpay     RazorpayConfig
	Cron         CronConfig
	Cache        CacheConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"UNIEATS_APP_ENV" required:"true"`
	Port         string `envconfig:"UNIEATS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"UNIEATS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"UNIEATS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"UNIEATS_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"UNIEATS_DB_DSN"`
	Driver string `envconfig:"UNIEATS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"UNIEATS_DB_HOST"`
	LegacyPort     int    `envconfig:"UNIEATS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"UNIEATS_DB_USER"`
	LegacyPassword string `envconfig:"UNIEATS_DB_PASSWORD"`
	LegacyName     string `envconfig:"UNIEATS_DB_NAME"`
	LegacySSLMode  string `envconfig:"UNIEATS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"UNIEATS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"UNIEATS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"UNIEATS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"UNIEATS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"UNIEATS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"UNIEATS_REDIS_ADDR"`
	Password     string        `envconfig:"UNIEATS_REDIS_PASSWORD"`
	DB           int           `envconfig:"UNIEATS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"UNIEATS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"UNIEATS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"UNIEATS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"UNIEATS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"UNIEATS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig configures credential verification. Tokens are minted by the
// identity provider; this service only parses and validates them.
type JWTConfig struct {
	Secret string `envconfig:"UNIEATS_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"UNIEATS_JWT_ISSUER" required:"true"`
}

type RazorpayConfig struct {
	KeyID     string        `envconfig:"UNIEATS_RAZORPAY_KEY_ID"`
	KeySecret string        `envconfig:"UNIEATS_RAZORPAY_KEY_SECRET"`
	Currency  string        `envconfig:"UNIEATS_RAZORPAY_CURRENCY" default:"INR"`
	Timeout   time.Duration `envconfig:"UNIEATS_RAZORPAY_TIMEOUT" default:"10s"`
}

// CronConfig drives the dues reconciliation worker. The default interval
// approximates a twice-weekly cadence.
type CronConfig struct {
	Interval time.Duration `envconfig:"UNIEATS_CRON_INTERVAL" default:"84h"`
	LockTTL  time.Duration `envconfig:"UNIEATS_CRON_LOCK_TTL" default:"2h"`
}

type CacheConfig struct {
	OrderHistoryTTL time.Duration `envconfig:"UNIEATS_CACHE_ORDER_HISTORY_TTL" default:"30s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"UNIEATS_AUTO_MIGRATE" default:"false"`
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
