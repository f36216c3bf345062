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
	CORS         CORSConfig
	FeatureFlags FeatureFlagsConfig
	Import       ImportConfig
	Checkout     CheckoutConfig
	Payment      PaymentConfig
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
	Env          string `envconfig:"OLEASHOP_APP_ENV" required:"true"`
	Port         string `envconfig:"OLEASHOP_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"OLEASHOP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"OLEASHOP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"OLEASHOP_DB_DSN"`
	Driver string `envconfig:"OLEASHOP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"OLEASHOP_DB_HOST"`
	LegacyPort     int    `envconfig:"OLEASHOP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"OLEASHOP_DB_USER"`
	LegacyPassword string `envconfig:"OLEASHOP_DB_PASSWORD"`
	LegacyName     string `envconfig:"OLEASHOP_DB_NAME"`
	LegacySSLMode  string `envconfig:"OLEASHOP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"OLEASHOP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"OLEASHOP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"OLEASHOP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"OLEASHOP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"OLEASHOP_REDIS_URL" required:"true"`
	Address      string        `envconfig:"OLEASHOP_REDIS_ADDR"`
	Password     string        `envconfig:"OLEASHOP_REDIS_PASSWORD"`
	DB           int           `envconfig:"OLEASHOP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"OLEASHOP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"OLEASHOP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"OLEASHOP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"OLEASHOP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"OLEASHOP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"OLEASHOP_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"OLEASHOP_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"OLEASHOP_JWT_EXPIRATION_MINUTES" required:"true"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"OLEASHOP_CORS_ALLOWED_ORIGINS" default:"http://localhost:5173"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"OLEASHOP_AUTO_MIGRATE" default:"false"`
}

type ImportConfig struct {
	// MaxRows caps a single CSV commit; the admin UI chunks larger files.
	MaxRows int `envconfig:"OLEASHOP_IMPORT_MAX_ROWS" default:"5000"`
}

type CheckoutConfig struct {
	Currency string `envconfig:"OLEASHOP_CHECKOUT_CURRENCY" default:"XOF"`
	// FallbackShippingCost is charged when no zone/rate matches the
	// destination; checkout must not block on a missing rate.
	FallbackShippingCost float64 `envconfig:"OLEASHOP_CHECKOUT_FALLBACK_SHIPPING_COST" default:"2000"`
}

type PaymentConfig struct {
	BaseURL     string        `envconfig:"OLEASHOP_PAYMENT_BASE_URL"`
	APIKey      string        `envconfig:"OLEASHOP_PAYMENT_API_KEY"`
	APISecret   string        `envconfig:"OLEASHOP_PAYMENT_API_SECRET"`
	SuccessURL  string        `envconfig:"OLEASHOP_PAYMENT_SUCCESS_URL"`
	CancelURL   string        `envconfig:"OLEASHOP_PAYMENT_CANCEL_URL"`
	CallbackURL string        `envconfig:"OLEASHOP_PAYMENT_IPN_URL"`
	Timeout     time.Duration `envconfig:"OLEASHOP_PAYMENT_TIMEOUT" default:"30s"`
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
