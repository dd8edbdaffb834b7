package config

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	// DefaultSQLitePath is used when the sqlite driver is selected without a DSN.
	DefaultSQLitePath = "warehouse.db"

	EnvDBDSN  = "WAREHOUSE_DB_DSN"
	EnvDBHost = "WAREHOUSE_DB_HOST"
	EnvDBUser = "WAREHOUSE_DB_USER"
	EnvDBName = "WAREHOUSE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
