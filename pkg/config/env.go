package config

const (
	EnvPrefix = "ITQAN"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	EnvAppEnv   = "ITQAN_APP_ENV"
	EnvPort     = "ITQAN_APP_PORT"
	EnvLogLevel = "ITQAN_LOG_LEVEL"

	EnvDBDSN    = "ITQAN_DB_DSN"
	EnvDBDriver = "ITQAN_DB_DRIVER"
	EnvDBHost   = "ITQAN_DB_HOST"
	EnvDBPort   = "ITQAN_DB_PORT"
	EnvDBUser   = "ITQAN_DB_USER"
	EnvDBPass   = "ITQAN_DB_PASSWORD"
	EnvDBName   = "ITQAN_DB_NAME"

	EnvUseSQLite = "ITQAN_USE_SQLITE"

	EnvRedisURL = "ITQAN_REDIS_URL"

	EnvJWTSecret = "ITQAN_JWT_SECRET"
	EnvJWTIssuer = "ITQAN_JWT_ISSUER"

	EnvLedgerMaxRetries   = "ITQAN_LEDGER_MAX_RETRIES"
	EnvSequenceMaxRetries = "ITQAN_SEQUENCE_MAX_RETRIES"
	EnvInvoicePrefixCode  = "ITQAN_INVOICE_PREFIX_CODE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
