package config

// EnvPrefix is the envconfig prefix shared by every variable.
const EnvPrefix = "lowvolt"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

// Environment variable names referenced outside struct tags.
const (
	EnvAppEnv   = "LOWVOLT_APP_ENV"
	EnvPort     = "LOWVOLT_APP_PORT"
	EnvDBDSN    = "LOWVOLT_DB_DSN"
	EnvDBHost   = "LOWVOLT_DB_HOST"
	EnvDBUser   = "LOWVOLT_DB_USER"
	EnvDBName   = "LOWVOLT_DB_NAME"
	EnvRedisURL = "LOWVOLT_REDIS_URL"
	EnvAdminPIN = "LOWVOLT_ADMIN_PIN"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
