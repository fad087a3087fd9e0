package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is passed to envconfig; the struct tags carry the full names.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "TAVOLO_DB_DSN"
	EnvDBHost = "TAVOLO_DB_HOST"
	EnvDBUser = "TAVOLO_DB_USER"
	EnvDBName = "TAVOLO_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	Orders       OrdersConfig
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
	Env          string `envconfig:"TAVOLO_APP_ENV" required:"true"`
	Port         string `envconfig:"TAVOLO_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TAVOLO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TAVOLO_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"TAVOLO_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"TAVOLO_DB_DSN"`
	Driver string `envconfig:"TAVOLO_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TAVOLO_DB_HOST"`
	LegacyPort     int    `envconfig:"TAVOLO_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TAVOLO_DB_USER"`
	LegacyPassword string `envconfig:"TAVOLO_DB_PASSWORD"`
	LegacyName     string `envconfig:"TAVOLO_DB_NAME"`
	LegacySSLMode  string `envconfig:"TAVOLO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TAVOLO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TAVOLO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TAVOLO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TAVOLO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TAVOLO_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TAVOLO_REDIS_ADDR"`
	Password     string        `envconfig:"TAVOLO_REDIS_PASSWORD"`
	DB           int           `envconfig:"TAVOLO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TAVOLO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TAVOLO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TAVOLO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TAVOLO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TAVOLO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"TAVOLO_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"TAVOLO_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"TAVOLO_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"TAVOLO_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"TAVOLO_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"TAVOLO_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"TAVOLO_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"TAVOLO_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"TAVOLO_ARGON_KEY_LEN" default:"32"`
}

type OrdersConfig struct {
	DefaultPageSize int `envconfig:"TAVOLO_ORDERS_DEFAULT_PAGE_SIZE" default:"50"`
	MaxPageSize     int `envconfig:"TAVOLO_ORDERS_MAX_PAGE_SIZE" default:"100"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"TAVOLO_AUTO_MIGRATE" default:"false"`
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
