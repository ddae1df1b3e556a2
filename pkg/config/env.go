package config

// EnvPrefix is handed to envconfig; every field carries its full variable name.
const EnvPrefix = "ORDERPORTAL"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv        = "ORDERPORTAL_APP_ENV"
	EnvPort          = "ORDERPORTAL_APP_PORT"
	EnvAppTimezone   = "ORDERPORTAL_APP_TIMEZONE"
	EnvDBDSN         = "ORDERPORTAL_DB_DSN"
	EnvDBHost        = "ORDERPORTAL_DB_HOST"
	EnvDBUser        = "ORDERPORTAL_DB_USER"
	EnvDBName        = "ORDERPORTAL_DB_NAME"
	EnvRedisURL      = "ORDERPORTAL_REDIS_URL"
	EnvJWTSecret     = "ORDERPORTAL_JWT_SECRET"
	EnvJWTIssuer     = "ORDERPORTAL_JWT_ISSUER"
	EnvJWTExpMins    = "ORDERPORTAL_JWT_EXPIRATION_MINUTES"
	EnvSessionTTL    = "ORDERPORTAL_SESSION_TTL_MINUTES"
	EnvSchedulerDays = "ORDERPORTAL_SCHEDULER_DAYS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
