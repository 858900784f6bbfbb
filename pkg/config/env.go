package config

// EnvPrefix is the envconfig prefix shared by every variable below.
const EnvPrefix = "DIGICARD"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv     = "DIGICARD_APP_ENV"
	EnvPort       = "DIGICARD_APP_PORT"
	EnvLogLevel   = "DIGICARD_LOG_LEVEL"
	EnvDBDSN      = "DIGICARD_DB_DSN"
	EnvDBHost     = "DIGICARD_DB_HOST"
	EnvDBUser     = "DIGICARD_DB_USER"
	EnvDBName     = "DIGICARD_DB_NAME"
	EnvRedisURL   = "DIGICARD_REDIS_URL"
	EnvJWTSecret  = "DIGICARD_JWT_SECRET"
	EnvJWTIssuer  = "DIGICARD_JWT_ISSUER"
	EnvJWTExpMins = "DIGICARD_JWT_EXPIRATION_MINUTES"

	EnvSMTPHost = "DIGICARD_SMTP_HOST"
	EnvSMTPFrom = "DIGICARD_SMTP_FROM"

	EnvGatewayKeyID  = "DIGICARD_GATEWAY_KEY_ID"
	EnvGatewaySecret = "DIGICARD_GATEWAY_KEY_SECRET"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
