package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	EnvPrefix = "TIENDITA"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "TIENDITA_APP_ENV"
	EnvPort   = "TIENDITA_APP_PORT"
	EnvDBDSN  = "TIENDITA_DB_DSN"
	EnvDBHost = "TIENDITA_DB_HOST"
	EnvDBUser = "TIENDITA_DB_USER"
	EnvDBName = "TIENDITA_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Retail       RetailConfig
	Cron         CronConfig
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
	Env          string `envconfig:"TIENDITA_APP_ENV" required:"true"`
	Port         string `envconfig:"TIENDITA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TIENDITA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TIENDITA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"TIENDITA_DB_DSN"`
	Driver string `envconfig:"TIENDITA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TIENDITA_DB_HOST"`
	LegacyPort     int    `envconfig:"TIENDITA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TIENDITA_DB_USER"`
	LegacyPassword string `envconfig:"TIENDITA_DB_PASSWORD"`
	LegacyName     string `envconfig:"TIENDITA_DB_NAME"`
	LegacySSLMode  string `envconfig:"TIENDITA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TIENDITA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TIENDITA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TIENDITA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TIENDITA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TIENDITA_REDIS_URL"`
	Address      string        `envconfig:"TIENDITA_REDIS_ADDR"`
	Password     string        `envconfig:"TIENDITA_REDIS_PASSWORD"`
	DB           int           `envconfig:"TIENDITA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TIENDITA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TIENDITA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TIENDITA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TIENDITA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TIENDITA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// RetailConfig carries the storewide commercial defaults.
type RetailConfig struct {
	TaxRatePercent        float64       `envconfig:"TIENDITA_TAX_RATE_PERCENT" default:"5"`
	LowStockThreshold     int           `envconfig:"TIENDITA_LOW_STOCK_THRESHOLD" default:"5"`
	DeliveryETADays       int           `envconfig:"TIENDITA_DELIVERY_ETA_BUSINESS_DAYS" default:"5"`
	DefaultCarrier        string        `envconfig:"TIENDITA_DEFAULT_CARRIER" default:"in-house"`
	DecrementRetryBackoff time.Duration `envconfig:"TIENDITA_DECREMENT_RETRY_BACKOFF" default:"25ms"`
}

// TaxRate converts the configured percentage into a decimal multiplier.
func (r RetailConfig) TaxRate() decimal.Decimal {
	return decimal.NewFromFloat(r.TaxRatePercent).Div(decimal.NewFromInt(100))
}

type CronConfig struct {
	LowStockSweepInterval time.Duration `envconfig:"TIENDITA_CRON_LOW_STOCK_INTERVAL" default:"15m"`
	LedgerAuditInterval   time.Duration `envconfig:"TIENDITA_CRON_LEDGER_AUDIT_INTERVAL" default:"1h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"TIENDITA_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"TIENDITA_AUTO_MIGRATE" default:"false"`
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
