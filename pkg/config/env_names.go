package config

// EnvPrefix is empty because every variable carries the explicit AURELLE_ prefix.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "AURELLE_APP_ENV"
	EnvPort     = "AURELLE_APP_PORT"
	EnvLogLevel = "AURELLE_LOG_LEVEL"

	EnvDBDSN  = "AURELLE_DB_DSN"
	EnvDBHost = "AURELLE_DB_HOST"
	EnvDBUser = "AURELLE_DB_USER"
	EnvDBName = "AURELLE_DB_NAME"

	EnvRedisURL = "AURELLE_REDIS_URL"

	EnvSessionJWTSecret  = "AURELLE_SESSION_JWT_SECRET"
	EnvSessionJWTIssuer  = "AURELLE_SESSION_JWT_ISSUER"
	EnvSessionJWTExpMins = "AURELLE_SESSION_JWT_EXPIRATION_MINUTES"

	EnvShopifyShopDomain      = "AURELLE_SHOPIFY_SHOP_DOMAIN"
	EnvShopifyStorefrontToken = "AURELLE_SHOPIFY_STOREFRONT_TOKEN"

	EnvGCPProjectID           = "AURELLE_GCP_PROJECT_ID"
	EnvPubSubActivityTopic    = "AURELLE_PUBSUB_ACTIVITY_TOPIC"
	EnvPubSubWishlistSub      = "AURELLE_PUBSUB_WISHLIST_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
