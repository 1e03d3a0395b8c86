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
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Ledger       LedgerConfig
	Sequence     SequenceConfig
	Badges       BadgesConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ITQAN_APP_ENV" required:"true"`
	Port         string `envconfig:"ITQAN_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ITQAN_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ITQAN_LOG_WARN_STACK" default:"false"`

	CORSAllowedOrigins []string `envconfig:"ITQAN_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"ITQAN_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"ITQAN_DB_DSN"`
	Driver string `envconfig:"ITQAN_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ITQAN_DB_HOST"`
	LegacyPort     int    `envconfig:"ITQAN_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ITQAN_DB_USER"`
	LegacyPassword string `envconfig:"ITQAN_DB_PASSWORD"`
	LegacyName     string `envconfig:"ITQAN_DB_NAME"`
	LegacySSLMode  string `envconfig:"ITQAN_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ITQAN_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ITQAN_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ITQAN_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ITQAN_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// StatementTimeout bounds every transaction on Postgres; a timeout surfaces as a concurrent conflict.
	StatementTimeout time.Duration `envconfig:"ITQAN_DB_STATEMENT_TIMEOUT" default:"5s"`
}

// IsSQLite reports whether the configured driver targets SQLite.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"ITQAN_REDIS_URL"`
	Address      string        `envconfig:"ITQAN_REDIS_ADDR"`
	Password     string        `envconfig:"ITQAN_REDIS_PASSWORD"`
	DB           int           `envconfig:"ITQAN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ITQAN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ITQAN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ITQAN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ITQAN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ITQAN_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig verifies access tokens minted by the session service.
type JWTConfig struct {
	Secret string `envconfig:"ITQAN_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"ITQAN_JWT_ISSUER" required:"true"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"ITQAN_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"ITQAN_AUTO_MIGRATE" default:"false"`
	// SyncBadgeRecompute recomputes badges inline after profile metric updates.
	SyncBadgeRecompute bool `envconfig:"ITQAN_SYNC_BADGE_RECOMPUTE" default:"true"`
}

type LedgerConfig struct {
	MaxRetries   uint64        `envconfig:"ITQAN_LEDGER_MAX_RETRIES" default:"5"`
	RetryBackoff time.Duration `envconfig:"ITQAN_LEDGER_RETRY_BACKOFF" default:"10ms"`
}

type SequenceConfig struct {
	MaxRetries   uint64        `envconfig:"ITQAN_SEQUENCE_MAX_RETRIES" default:"5"`
	RetryBackoff time.Duration `envconfig:"ITQAN_SEQUENCE_RETRY_BACKOFF" default:"5ms"`
	InvoiceCode  string        `envconfig:"ITQAN_INVOICE_PREFIX_CODE" default:"ITQ"`
}

type BadgesConfig struct {
	ReconcileBatchSize int `envconfig:"ITQAN_BADGES_RECONCILE_BATCH_SIZE" default:"200"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"ITQAN_CRON_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"ITQAN_CRON_LOCK_TTL" default:"55m"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		db.Driver = DriverSQLite
	}
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required for the sqlite driver", EnvDBDSN)
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
