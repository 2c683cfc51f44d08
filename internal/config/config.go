package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	awspkg "github.com/SKANDA-SR/e-commerse-website/pkg/aws"
)

// Product store backends.
const (
	ProductStoreMongo  = "mongo"
	ProductStoreDynamo = "dynamodb"
	ProductStoreMemory = "memory"
)

// Config holds all configuration for the storefront API.
type Config struct {
	Env  string
	Port string

	ProductStore        string
	MongoURI            string
	MongoDB             string
	DynamoProductsTable string

	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string
	PostgresTimeZone string

	RedisURL string
	CacheTTL time.Duration

	JWTSecret string
	JWTExpiry time.Duration

	AllowedOrigins  []string
	RateLimitPerMin int
	RateLimitBurst  int

	AWSEnabled          bool
	CloudWatchEnabled   bool
	CloudWatchLogGroup  string
	MetricsNamespace    string
	OrderEventsTopicARN string
	PaymentQueueURL     string
	ProductImageBucket  string

	KafkaBrokers    []string
	KafkaOrderTopic string

	StripeSecretKey     string
	StripeWebhookSecret string
	Currency            string
}

// SecretSource is the part of the Secrets Manager client Load needs.
type SecretSource interface {
	GetSecret(ctx context.Context, name string) (string, error)
	GetSecretMap(ctx context.Context, name string) (map[string]string, error)
}

// Load reads .env (optional) and the environment. With AWS_USE_SECRETS=true
// database credentials, the JWT secret and the Stripe key are overridden from
// Secrets Manager.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := fromEnv()

	if os.Getenv("AWS_USE_SECRETS") == "true" {
		awsCfg, err := awspkg.LoadAWSConfig(context.Background())
		if err != nil {
			return nil, fmt.Errorf("load aws config for secrets: %w", err)
		}
		applySecrets(context.Background(), cfg, awspkg.NewSecretsClient(awsCfg))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromEnv() *Config {
	return &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "5000"),

		ProductStore:        strings.ToLower(getEnv("PRODUCT_STORE", ProductStoreMongo)),
		MongoURI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDB:             getEnv("MONGODB_DB", "ecommerce"),
		DynamoProductsTable: getEnv("DYNAMODB_PRODUCTS_TABLE", "products"),

		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       getEnv("POSTGRES_DB", "ecommerce"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTimeZone: getEnv("POSTGRES_TIMEZONE", "UTC"),

		RedisURL: os.Getenv("REDIS_URL"),
		CacheTTL: getDuration("CACHE_TTL", 10*time.Minute),

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTExpiry: getDuration("JWT_EXPIRY", 30*24*time.Hour),

		AllowedOrigins:  getList("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5500"}),
		RateLimitPerMin: getInt("RATE_LIMIT_PER_MINUTE", 100),
		RateLimitBurst:  getInt("RATE_LIMIT_BURST", 50),

		AWSEnabled:          os.Getenv("AWS_ENABLED") == "true",
		CloudWatchEnabled:   os.Getenv("CLOUDWATCH_ENABLED") == "true",
		CloudWatchLogGroup:  getEnv("CLOUDWATCH_LOG_GROUP", "/storefront/api"),
		MetricsNamespace:    getEnv("CLOUDWATCH_NAMESPACE", "Storefront"),
		OrderEventsTopicARN: os.Getenv("ORDER_EVENTS_TOPIC_ARN"),
		PaymentQueueURL:     os.Getenv("PAYMENT_QUEUE_URL"),
		ProductImageBucket:  os.Getenv("PRODUCT_IMAGE_BUCKET"),

		KafkaBrokers:    getList("KAFKA_BROKERS", nil),
		KafkaOrderTopic: getEnv("KAFKA_ORDER_TOPIC", "orders"),

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		Currency:            strings.ToLower(getEnv("CURRENCY", "usd")),
	}
}

func applySecrets(ctx context.Context, cfg *Config, sm SecretSource) {
	if m, err := sm.GetSecretMap(ctx, "storefront/DB_CREDENTIALS"); err == nil {
		overrideIfSet(&cfg.PostgresUser, m["POSTGRES_USER"])
		overrideIfSet(&cfg.PostgresPassword, m["POSTGRES_PASSWORD"])
		overrideIfSet(&cfg.PostgresDB, m["POSTGRES_DB"])
		overrideIfSet(&cfg.PostgresHost, m["POSTGRES_HOST"])
		overrideIfSet(&cfg.PostgresPort, m["POSTGRES_PORT"])
		overrideIfSet(&cfg.MongoURI, m["MONGODB_URI"])
	}
	if v, err := sm.GetSecret(ctx, "storefront/JWT_SECRET"); err == nil {
		overrideIfSet(&cfg.JWTSecret, v)
	}
	if v, err := sm.GetSecret(ctx, "storefront/STRIPE_SECRET_KEY"); err == nil {
		overrideIfSet(&cfg.StripeSecretKey, v)
	}
}

// Validate reports the first missing or inconsistent setting.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.PostgresUser == "" || c.PostgresPassword == "" || c.PostgresDB == "" || c.PostgresHost == "" {
		return fmt.Errorf("database config incomplete")
	}
	switch c.ProductStore {
	case ProductStoreMongo, ProductStoreDynamo, ProductStoreMemory:
	default:
		return fmt.Errorf("unknown PRODUCT_STORE %q", c.ProductStore)
	}
	if c.ProductStore == ProductStoreDynamo && !c.AWSEnabled {
		return fmt.Errorf("PRODUCT_STORE=dynamodb requires AWS_ENABLED=true")
	}
	if c.RateLimitPerMin <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	return nil
}

// PostgresDSN builds the DSN for gorm's postgres driver.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.PostgresHost, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresPort, c.PostgresSSLMode, c.PostgresTimeZone)
}

func overrideIfSet(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return fallback
}

func getList(key string, fallback []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSuffix(strings.TrimSpace(part), "/"); p != "" {
			out = append(out, p)
		}
	}
	return out
}
