package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Gateway environments and their base URLs.
const (
	EnvProduction = "production"
	EnvSandbox    = "sandbox"

	ProductionGatewayURL = "https://api.phonepe.com/apis"
	SandboxGatewayURL    = "https://api-preprod.phonepe.com/apis/pg-sandbox"
)

// Config holds every recognized environment option of the storefront.
type Config struct {
	Port     string
	RunLocal bool

	MongoURI    string
	MongoDBName string

	RedisAddr     string
	RedisPassword string

	JWTSecret        string
	JWTRefreshSecret string

	CORSAllowedOrigins []string

	MerchantID    string
	SaltKey       string
	SaltIndex     int
	GatewayEnv    string
	PublicBaseURL string

	AWSRegion        string
	OrdersTable      string
	IdempotencyTable string
	PaymentQueueURL  string
	MetricsNamespace string
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	saltIndex, err := strconv.Atoi(get("PHONEPE_SALT_INDEX", "1"))
	if err != nil || saltIndex < 1 {
		return nil, fmt.Errorf("invalid PHONEPE_SALT_INDEX %q", getenv("PHONEPE_SALT_INDEX"))
	}

	gatewayEnv := strings.ToLower(get("PHONEPE_ENV", EnvSandbox))
	if gatewayEnv != EnvProduction && gatewayEnv != EnvSandbox {
		return nil, fmt.Errorf("invalid PHONEPE_ENV %q: want %q or %q", gatewayEnv, EnvProduction, EnvSandbox)
	}

	cfg := &Config{
		Port:     get("PORT", "8080"),
		RunLocal: get("RUN_LOCAL", "") == "true",

		MongoURI:    get("MONGO_URI", ""),
		MongoDBName: get("MONGO_DB_NAME", "storefront"),

		RedisAddr:     get("REDIS_ADDR", ""),
		RedisPassword: get("REDIS_PASSWORD", ""),

		JWTSecret:        get("JWT_SECRET", ""),
		JWTRefreshSecret: get("JWT_REFRESH_SECRET", ""),

		CORSAllowedOrigins: splitList(get("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://frontend:3000")),

		MerchantID:    get("PHONEPE_MERCHANT_ID", ""),
		SaltKey:       get("PHONEPE_SALT_KEY", ""),
		SaltIndex:     saltIndex,
		GatewayEnv:    gatewayEnv,
		PublicBaseURL: strings.TrimRight(get("PUBLIC_BASE_URL", "http://localhost:3000"), "/"),

		AWSRegion:        get("AWS_REGION", "us-east-1"),
		OrdersTable:      get("ORDERS_TABLE", ""),
		IdempotencyTable: get("IDEMPOTENCY_TABLE", ""),
		PaymentQueueURL:  get("PAYMENT_EVENTS_QUEUE_URL", ""),
		MetricsNamespace: get("METRICS_NAMESPACE", "Storefront"),
	}
	return cfg, nil
}

// GatewayBaseURL selects the sandbox or production gateway.
func (c *Config) GatewayBaseURL() string {
	if c.GatewayEnv == EnvProduction {
		return ProductionGatewayURL
	}
	return SandboxGatewayURL
}

// AWSEnabled reports whether any AWS-backed feature is configured.
func (c *Config) AWSEnabled() bool {
	return c.OrdersTable != "" || c.IdempotencyTable != "" || c.PaymentQueueURL != ""
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
