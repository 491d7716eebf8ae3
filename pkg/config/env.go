package config

const EnvPrefix = "DELATTE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv      = "DELATTE_APP_ENV"
	EnvPort        = "DELATTE_APP_PORT"
	EnvLogLevel    = "DELATTE_LOG_LEVEL"
	EnvLogFormat   = "DELATTE_LOG_FORMAT"
	EnvCORSOrigins = "DELATTE_CORS_ORIGINS"

	EnvDBDSN  = "DELATTE_DB_DSN"
	EnvDBHost = "DELATTE_DB_HOST"
	EnvDBPort = "DELATTE_DB_PORT"
	EnvDBUser = "DELATTE_DB_USER"
	EnvDBName = "DELATTE_DB_NAME"

	EnvRedisURL = "DELATTE_REDIS_URL"

	EnvIdentityJWKSURL  = "DELATTE_IDENTITY_JWKS_URL"
	EnvIdentityIssuer   = "DELATTE_IDENTITY_ISSUER"
	EnvIdentityAudience = "DELATTE_IDENTITY_AUDIENCE"

	EnvScheduleTZ = "DELATTE_SCHEDULE_TZ"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
