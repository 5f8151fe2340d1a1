package config

const (
	// EnvPrefix namespaces every environment variable the app reads.
	EnvPrefix = "KHUMSUE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "KHUMSUE_DB_DSN"
	EnvDBHost = "KHUMSUE_DB_HOST"
	EnvDBUser = "KHUMSUE_DB_USER"
	EnvDBName = "KHUMSUE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
