package config

// EnvPrefix namespaces every variable read by Load.
const EnvPrefix = "ZYCART"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	PublisherPubSub = "pubsub"
	PublisherKafka  = "kafka"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	defaultSQLiteDSN = "file:zycart.db?cache=shared&_foreign_keys=on"
)

const (
	EnvAppEnv                   = "ZYCART_APP_ENV"
	EnvPort                     = "ZYCART_APP_PORT"
	EnvDBDSN                    = "ZYCART_DB_DSN"
	EnvDBHost                   = "ZYCART_DB_HOST"
	EnvDBUser                   = "ZYCART_DB_USER"
	EnvDBName                   = "ZYCART_DB_NAME"
	EnvDBPassword               = "ZYCART_DB_PASSWORD"
	EnvRedisURL                 = "ZYCART_REDIS_URL"
	EnvJWTSecret                = "ZYCART_JWT_SECRET"
	EnvJWTIssuer                = "ZYCART_JWT_ISSUER"
	EnvJWTExpMins               = "ZYCART_JWT_EXPIRATION_MINUTES"
	EnvOrdersPlatformFeePercent = "ZYCART_ORDERS_PLATFORM_FEE_PERCENT"
	EnvEventingPublisher        = "ZYCART_EVENTING_PUBLISHER"
	EnvKafkaBrokers             = "ZYCART_KAFKA_BROKERS"
	EnvGCPProjectID             = "ZYCART_GCP_PROJECT_ID"
	EnvUseSQLite                = "ZYCART_USE_SQLITE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
