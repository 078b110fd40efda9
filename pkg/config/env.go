package config

const EnvPrefix = "DMARKET"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv    = "DMARKET_APP_ENV"
	EnvPort      = "DMARKET_APP_PORT"
	EnvLogLevel  = "DMARKET_LOG_LEVEL"
	EnvDBDSN     = "DMARKET_DB_DSN"
	EnvDBHost    = "DMARKET_DB_HOST"
	EnvDBUser    = "DMARKET_DB_USER"
	EnvDBName    = "DMARKET_DB_NAME"
	EnvDBPass    = "DMARKET_DB_PASSWORD"
	EnvRedisURL  = "DMARKET_REDIS_URL"
	EnvJWTSecret = "DMARKET_JWT_SECRET"
	EnvUseSQLite = "DMARKET_USE_SQLITE"

	EnvPubSubNotificationTopic        = "DMARKET_PUBSUB_NOTIFICATION_TOPIC"
	EnvPubSubNotificationSubscription = "DMARKET_PUBSUB_NOTIFICATION_SUBSCRIPTION"
	EnvOutboxBatchSize                = "DMARKET_OUTBOX_PUBLISH_BATCH_SIZE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
