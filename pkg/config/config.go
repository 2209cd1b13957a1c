package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix namespaces every environment variable consumed by the app.
	EnvPrefix = "massaviva"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App   AppConfig
	DB    DBConfig
	Redis RedisConfig
	Sync  SyncConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MASSAVIVA_APP_ENV" required:"true"`
	Port         string `envconfig:"MASSAVIVA_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"MASSAVIVA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MASSAVIVA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// DBConfig configures the device-local cart database. SQLite is the default
// so a storefront instance carries its cart across restarts without external
// infrastructure; postgres remains available for shared deployments.
type DBConfig struct {
	Driver string `envconfig:"MASSAVIVA_DB_DRIVER" default:"sqlite"`
	Path   string `envconfig:"MASSAVIVA_DB_PATH" default:"massaviva.db"`
	DSN    string `envconfig:"MASSAVIVA_DB_DSN"`

	MaxOpenConns    int           `envconfig:"MASSAVIVA_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"MASSAVIVA_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"MASSAVIVA_DB_CONN_MAX_LIFETIME" default:"1h"`
}

func (db DBConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(db.Driver)) {
	case "sqlite":
		if db.Path == "" {
			return fmt.Errorf("MASSAVIVA_DB_PATH is required for the sqlite driver")
		}
	case "postgres":
		if db.DSN == "" {
			return fmt.Errorf("MASSAVIVA_DB_DSN is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported db driver %q", db.Driver)
	}
	return nil
}

// IsSQLite reports whether the local store runs on the embedded driver.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), "sqlite")
}

type RedisConfig struct {
	URL          string        `envconfig:"MASSAVIVA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MASSAVIVA_REDIS_ADDR"`
	Password     string        `envconfig:"MASSAVIVA_REDIS_PASSWORD"`
	DB           int           `envconfig:"MASSAVIVA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MASSAVIVA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MASSAVIVA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MASSAVIVA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MASSAVIVA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MASSAVIVA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// SyncConfig tunes the cart synchronizer.
type SyncConfig struct {
	PushTimeout time.Duration `envconfig:"MASSAVIVA_SYNC_PUSH_TIMEOUT" default:"5s"`
}
