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
	JWT          JWTConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	FeatureFlags FeatureFlagsConfig
	Orders       OrdersConfig
	Catalog      CatalogConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Kafka        KafkaConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DBDriverSQLite
		if cfg.DB.DSN == "" {
			cfg.DB.DSN = defaultSQLiteDSN
		}
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Orders.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Eventing.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ZYCART_APP_ENV" required:"true"`
	Port         string `envconfig:"ZYCART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ZYCART_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"ZYCART_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"ZYCART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type ServiceConfig struct {
	Kind string `envconfig:"ZYCART_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"ZYCART_DB_DSN"`
	Driver string `envconfig:"ZYCART_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ZYCART_DB_HOST"`
	LegacyPort     int    `envconfig:"ZYCART_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ZYCART_DB_USER"`
	LegacyPassword string `envconfig:"ZYCART_DB_PASSWORD"`
	LegacyName     string `envconfig:"ZYCART_DB_NAME"`
	LegacySSLMode  string `envconfig:"ZYCART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ZYCART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ZYCART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ZYCART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ZYCART_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"ZYCART_DB_SLOW_QUERY" default:"250ms"`
	TxMaxAttempts      int           `envconfig:"ZYCART_DB_TX_MAX_ATTEMPTS" default:"3"`
}

// IsSQLite reports whether the sqlite dialector is selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"ZYCART_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ZYCART_REDIS_ADDR"`
	Password     string        `envconfig:"ZYCART_REDIS_PASSWORD"`
	DB           int           `envconfig:"ZYCART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ZYCART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ZYCART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ZYCART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ZYCART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ZYCART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"ZYCART_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"ZYCART_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"ZYCART_JWT_EXPIRATION_MINUTES" required:"true"`
}

// RateLimitConfig throttles order placement per customer and per client IP.
type RateLimitConfig struct {
	PlaceOrderWindow    time.Duration `envconfig:"ZYCART_RATE_LIMIT_PLACE_ORDER_WINDOW" default:"1m"`
	PlaceOrderUserLimit int           `envconfig:"ZYCART_RATE_LIMIT_PLACE_ORDER_USER_LIMIT" default:"10"`
	PlaceOrderIPLimit   int           `envconfig:"ZYCART_RATE_LIMIT_PLACE_ORDER_IP_LIMIT" default:"60"`
}

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `envconfig:"ZYCART_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	MaxAgeSeconds  int      `envconfig:"ZYCART_CORS_MAX_AGE_SECONDS" default:"300"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"ZYCART_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"ZYCART_AUTO_MIGRATE" default:"false"`
}

type OrdersConfig struct {
	PlatformFeePercent int    `envconfig:"ZYCART_ORDERS_PLATFORM_FEE_PERCENT" default:"20"`
	NumberPrefix       string `envconfig:"ZYCART_ORDERS_NUMBER_PREFIX" default:"ZYC"`
}

func (o OrdersConfig) validate() error {
	if o.PlatformFeePercent < 0 || o.PlatformFeePercent > 100 {
		return fmt.Errorf("%s must be between 0 and 100", EnvOrdersPlatformFeePercent)
	}
	return nil
}

type CatalogConfig struct {
	CategoryCacheTTL time.Duration `envconfig:"ZYCART_CATALOG_CATEGORY_CACHE_TTL" default:"10m"`
}

type EventingConfig struct {
	Publisher    string `envconfig:"ZYCART_EVENTING_PUBLISHER" default:"pubsub"`
	OrdersTopic  string `envconfig:"ZYCART_EVENTING_ORDERS_TOPIC" default:"zycart-order-events"`
	ReviewsTopic string `envconfig:"ZYCART_EVENTING_REVIEWS_TOPIC" default:"zycart-review-events"`
}

// PublisherKind returns the normalized sink name (pubsub or kafka).
func (e EventingConfig) PublisherKind() string {
	kind := strings.ToLower(strings.TrimSpace(e.Publisher))
	if kind == "" {
		return PublisherPubSub
	}
	return kind
}

func (e EventingConfig) validate() error {
	switch e.PublisherKind() {
	case PublisherPubSub, PublisherKafka:
		return nil
	default:
		return fmt.Errorf("%s must be one of %s, %s", EnvEventingPublisher, PublisherPubSub, PublisherKafka)
	}
}

type GCPConfig struct {
	ProjectID              string `envconfig:"ZYCART_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"ZYCART_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"ZYCART_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	VerifyTopics bool `envconfig:"ZYCART_PUBSUB_VERIFY_TOPICS" default:"true"`
}

type KafkaConfig struct {
	Brokers      []string      `envconfig:"ZYCART_KAFKA_BROKERS" default:"localhost:9092"`
	WriteTimeout time.Duration `envconfig:"ZYCART_KAFKA_WRITE_TIMEOUT" default:"5s"`
	MaxAttempts  int           `envconfig:"ZYCART_KAFKA_MAX_ATTEMPTS" default:"5"`
	BatchTimeout time.Duration `envconfig:"ZYCART_KAFKA_BATCH_TIMEOUT" default:"50ms"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"ZYCART_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"ZYCART_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"ZYCART_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
