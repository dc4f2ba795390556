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
	Admin        AdminConfig
	PinRateLimit PinRateLimitConfig
	Import       ImportConfig
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
	Env          string `envconfig:"LOWVOLT_APP_ENV" required:"true"`
	Port         string `envconfig:"LOWVOLT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"LOWVOLT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LOWVOLT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"LOWVOLT_DB_DSN"`
	Driver string `envconfig:"LOWVOLT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"LOWVOLT_DB_HOST"`
	LegacyPort     int    `envconfig:"LOWVOLT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LOWVOLT_DB_USER"`
	LegacyPassword string `envconfig:"LOWVOLT_DB_PASSWORD"`
	LegacyName     string `envconfig:"LOWVOLT_DB_NAME"`
	LegacySSLMode  string `envconfig:"LOWVOLT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LOWVOLT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LOWVOLT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LOWVOLT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LOWVOLT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LOWVOLT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"LOWVOLT_REDIS_ADDR"`
	Password     string        `envconfig:"LOWVOLT_REDIS_PASSWORD"`
	DB           int           `envconfig:"LOWVOLT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LOWVOLT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LOWVOLT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LOWVOLT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LOWVOLT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LOWVOLT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// AdminConfig holds the shared superintendent PIN. The legacy client shipped
// the literal "8888" in page code; the default keeps existing deployments
// working while letting new ones rotate it.
type AdminConfig struct {
	PIN string `envconfig:"LOWVOLT_ADMIN_PIN" default:"8888"`
}

type PinRateLimitConfig struct {
	Window   time.Duration `envconfig:"LOWVOLT_PIN_RATE_LIMIT_WINDOW" default:"1m"`
	IPLimit  int           `envconfig:"LOWVOLT_PIN_RATE_LIMIT_IP_LIMIT" default:"10"`
	PinLimit int           `envconfig:"LOWVOLT_PIN_RATE_LIMIT_PIN_LIMIT" default:"5"`
}

type ImportConfig struct {
	MaxUploadMB int `envconfig:"LOWVOLT_IMPORT_MAX_UPLOAD_MB" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"LOWVOLT_AUTO_MIGRATE" default:"false"`
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
