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
	Identity     IdentityConfig
	Search       SearchConfig
	Worker       WorkerConfig
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
	if _, err := cfg.Search.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"DELATTE_APP_ENV" required:"true"`
	Port         string   `envconfig:"DELATTE_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"DELATTE_LOG_LEVEL" default:"info"`
	LogFormat    string   `envconfig:"DELATTE_LOG_FORMAT" default:"json"`
	LogWarnStack bool     `envconfig:"DELATTE_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"DELATTE_CORS_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"DELATTE_DB_DSN"`

	LegacyHost     string `envconfig:"DELATTE_DB_HOST"`
	LegacyPort     int    `envconfig:"DELATTE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"DELATTE_DB_USER"`
	LegacyPassword string `envconfig:"DELATTE_DB_PASSWORD"`
	LegacyName     string `envconfig:"DELATTE_DB_NAME"`
	LegacySSLMode  string `envconfig:"DELATTE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DELATTE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DELATTE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DELATTE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DELATTE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"DELATTE_DB_SLOW_QUERY" default:"250ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DELATTE_REDIS_URL"`
	Address      string        `envconfig:"DELATTE_REDIS_ADDR"`
	Password     string        `envconfig:"DELATTE_REDIS_PASSWORD"`
	DB           int           `envconfig:"DELATTE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DELATTE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DELATTE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DELATTE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DELATTE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DELATTE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

// IdentityConfig points at the external identity provider that issues bearer tokens.
type IdentityConfig struct {
	JWKSURL     string        `envconfig:"DELATTE_IDENTITY_JWKS_URL" required:"true"`
	Issuer      string        `envconfig:"DELATTE_IDENTITY_ISSUER" required:"true"`
	Audience    string        `envconfig:"DELATTE_IDENTITY_AUDIENCE" required:"true"`
	EmailClaim  string        `envconfig:"DELATTE_IDENTITY_EMAIL_CLAIM" default:"email"`
	Leeway      time.Duration `envconfig:"DELATTE_IDENTITY_LEEWAY" default:"30s"`
	HTTPTimeout time.Duration `envconfig:"DELATTE_IDENTITY_HTTP_TIMEOUT" default:"5s"`
}

type SearchConfig struct {
	DefaultLimit  int    `envconfig:"DELATTE_SEARCH_DEFAULT_LIMIT" default:"10"`
	ReviewPreview int    `envconfig:"DELATTE_SEARCH_REVIEW_PREVIEW" default:"2"`
	ScheduleTZ    string `envconfig:"DELATTE_SCHEDULE_TZ"`
}

// Location resolves the wall clock used for open-now evaluation. Empty means server local time.
func (s SearchConfig) Location() (*time.Location, error) {
	if strings.TrimSpace(s.ScheduleTZ) == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(s.ScheduleTZ)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", EnvScheduleTZ, err)
	}
	return loc, nil
}

// WorkerConfig drives the maintenance worker.
type WorkerConfig struct {
	Interval        time.Duration `envconfig:"DELATTE_WORKER_INTERVAL" default:"1h"`
	LockTTL         time.Duration `envconfig:"DELATTE_WORKER_LOCK_TTL" default:"30m"`
	ReportRetention time.Duration `envconfig:"DELATTE_WORKER_REPORT_RETENTION" default:"2160h"`
	MetricsPort     string        `envconfig:"DELATTE_WORKER_METRICS_PORT" default:"9091"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"DELATTE_AUTO_MIGRATE" default:"false"`
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
