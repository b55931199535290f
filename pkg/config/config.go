package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Session      SessionConfig
	Cart         CartConfig
	Shopify      ShopifyConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	WishlistSync WishlistSyncConfig
	CORS         CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"AURELLE_APP_ENV" required:"true"`
	Port         string `envconfig:"AURELLE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"AURELLE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"AURELLE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"AURELLE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"AURELLE_DB_DSN"`
	Driver string `envconfig:"AURELLE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"AURELLE_DB_HOST"`
	LegacyPort     int    `envconfig:"AURELLE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"AURELLE_DB_USER"`
	LegacyPassword string `envconfig:"AURELLE_DB_PASSWORD"`
	LegacyName     string `envconfig:"AURELLE_DB_NAME"`
	LegacySSLMode  string `envconfig:"AURELLE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"AURELLE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AURELLE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AURELLE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AURELLE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"AURELLE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"AURELLE_REDIS_ADDR"`
	Password     string        `envconfig:"AURELLE_REDIS_PASSWORD"`
	DB           int           `envconfig:"AURELLE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AURELLE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AURELLE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AURELLE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AURELLE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AURELLE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// SessionConfig drives both the signed access token and the session cookie.
type SessionConfig struct {
	JWTSecret         string        `envconfig:"AURELLE_SESSION_JWT_SECRET" required:"true"`
	JWTIssuer         string        `envconfig:"AURELLE_SESSION_JWT_ISSUER" required:"true"`
	ExpirationMinutes int           `envconfig:"AURELLE_SESSION_JWT_EXPIRATION_MINUTES" required:"true"`
	CookieName        string        `envconfig:"AURELLE_SESSION_COOKIE_NAME" default:"aurelle_session"`
	CookieDomain      string        `envconfig:"AURELLE_SESSION_COOKIE_DOMAIN"`
	CookieSecure      bool          `envconfig:"AURELLE_SESSION_COOKIE_SECURE" default:"true"`
	GuestTTL          time.Duration `envconfig:"AURELLE_SESSION_GUEST_TTL" default:"720h"`
	CustomerTTL       time.Duration `envconfig:"AURELLE_SESSION_CUSTOMER_TTL" default:"168h"`
	PKCEStateTTL      time.Duration `envconfig:"AURELLE_SESSION_PKCE_STATE_TTL" default:"10m"`
}

// AccessTokenTTL returns the signed token lifetime.
func (s SessionConfig) AccessTokenTTL() time.Duration {
	if s.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(s.ExpirationMinutes) * time.Minute
}

// CartConfig bounds the persisted cart mirror.
type CartConfig struct {
	MirrorTTL time.Duration `envconfig:"AURELLE_CART_MIRROR_TTL" default:"720h"`
}

// ShopifyConfig covers the three Shopify API surfaces the storefront talks to.
type ShopifyConfig struct {
	ShopDomain           string        `envconfig:"AURELLE_SHOPIFY_SHOP_DOMAIN" required:"true"`
	StorefrontToken      string        `envconfig:"AURELLE_SHOPIFY_STOREFRONT_TOKEN" required:"true"`
	StorefrontAPIVersion string        `envconfig:"AURELLE_SHOPIFY_STOREFRONT_API_VERSION" default:"2025-01"`
	AdminToken           string        `envconfig:"AURELLE_SHOPIFY_ADMIN_TOKEN"`
	AdminAPIVersion      string        `envconfig:"AURELLE_SHOPIFY_ADMIN_API_VERSION" default:"2025-01"`
	CustomerClientID     string        `envconfig:"AURELLE_SHOPIFY_CUSTOMER_CLIENT_ID"`
	CustomerAuthBaseURL  string        `envconfig:"AURELLE_SHOPIFY_CUSTOMER_AUTH_BASE_URL"`
	CustomerAPIBaseURL   string        `envconfig:"AURELLE_SHOPIFY_CUSTOMER_API_BASE_URL"`
	CustomerRedirectURL  string        `envconfig:"AURELLE_SHOPIFY_CUSTOMER_REDIRECT_URL"`
	HTTPTimeout          time.Duration `envconfig:"AURELLE_SHOPIFY_HTTP_TIMEOUT" default:"10s"`
}

// StorefrontEndpoint returns the GraphQL endpoint for the Storefront API.
func (s ShopifyConfig) StorefrontEndpoint() string {
	return fmt.Sprintf("https://%s/api/%s/graphql.json", s.ShopDomain, s.StorefrontAPIVersion)
}

// AdminEndpoint returns the GraphQL endpoint for the Admin API.
func (s ShopifyConfig) AdminEndpoint() string {
	return fmt.Sprintf("https://%s/admin/api/%s/graphql.json", s.ShopDomain, s.AdminAPIVersion)
}

type FeatureFlagsConfig struct {
	UseSQLite    bool `envconfig:"AURELLE_USE_SQLITE" default:"false"`
	AutoMigrate  bool `envconfig:"AURELLE_AUTO_MIGRATE" default:"false"`
	WishlistSync bool `envconfig:"AURELLE_FEATURE_WISHLIST_SYNC" default:"true"`
	Events       bool `envconfig:"AURELLE_FEATURE_EVENTS" default:"true"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"AURELLE_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"AURELLE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"AURELLE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	ActivityTopic        string `envconfig:"AURELLE_PUBSUB_ACTIVITY_TOPIC" default:"aurelle-activity-events"`
	WishlistSubscription string `envconfig:"AURELLE_PUBSUB_WISHLIST_SUBSCRIPTION"`
}

type WishlistSyncConfig struct {
	MetafieldNamespace string        `envconfig:"AURELLE_WISHLIST_METAFIELD_NAMESPACE" default:"aurelle"`
	MetafieldKey       string        `envconfig:"AURELLE_WISHLIST_METAFIELD_KEY" default:"wishlist"`
	MaxAttempts        int           `envconfig:"AURELLE_WISHLIST_SYNC_MAX_ATTEMPTS" default:"4"`
	InitialBackoff     time.Duration `envconfig:"AURELLE_WISHLIST_SYNC_INITIAL_BACKOFF" default:"500ms"`
	PushTimeout        time.Duration `envconfig:"AURELLE_WISHLIST_SYNC_PUSH_TIMEOUT" default:"15s"`
	DedupeTTL          time.Duration `envconfig:"AURELLE_WISHLIST_SYNC_DEDUPE_TTL" default:"24h"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"AURELLE_CORS_ALLOWED_ORIGINS" default:"https://aurelle.jewelry"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
