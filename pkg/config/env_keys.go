package config

// EnvPrefix scopes every envconfig lookup for this service.
const EnvPrefix = "OLEASHOP"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Environment variable names referenced outside struct tags (tests, error
// messages for the legacy DSN fallback).
const (
	EnvAppEnv    = "OLEASHOP_APP_ENV"
	EnvPort      = "OLEASHOP_APP_PORT"
	EnvDBDSN     = "OLEASHOP_DB_DSN"
	EnvDBHost    = "OLEASHOP_DB_HOST"
	EnvDBUser    = "OLEASHOP_DB_USER"
	EnvDBName    = "OLEASHOP_DB_NAME"
	EnvRedisURL  = "OLEASHOP_REDIS_URL"
	EnvJWTSecret = "OLEASHOP_JWT_SECRET"
	EnvJWTIssuer = "OLEASHOP_JWT_ISSUER"
	EnvJWTExpMin = "OLEASHOP_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
