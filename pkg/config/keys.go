package config

// EnvPrefix is handed to envconfig; every field carries its full key.
const EnvPrefix = "GOSBI"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverSQLite = "sqlite"

	LogFormatConsole = "console"

	CartSlotRedis = "redis"
	CartSlotFile  = "file"
)

const (
	EnvAppEnv    = "GOSBI_APP_ENV"
	EnvPort      = "GOSBI_APP_PORT"
	EnvLogLevel  = "GOSBI_LOG_LEVEL"
	EnvLogFormat = "GOSBI_LOG_FORMAT"
	EnvCORS      = "GOSBI_CORS_ALLOWED_ORIGINS"

	EnvDBDSN  = "GOSBI_DB_DSN"
	EnvDBHost = "GOSBI_DB_HOST"
	EnvDBUser = "GOSBI_DB_USER"
	EnvDBName = "GOSBI_DB_NAME"

	EnvRedisURL = "GOSBI_REDIS_URL"

	EnvJWTSecret              = "GOSBI_JWT_SECRET"
	EnvJWTIssuer              = "GOSBI_JWT_ISSUER"
	EnvJWTExpMins             = "GOSBI_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "GOSBI_REFRESH_TOKEN_TTL_MINUTES"

	EnvUseSQLite   = "GOSBI_USE_SQLITE"
	EnvAutoMigrate = "GOSBI_AUTO_MIGRATE"

	EnvOrdersTxMaxAttempts = "GOSBI_ORDERS_TX_MAX_ATTEMPTS"
	EnvCartSlot            = "GOSBI_CART_SLOT"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
