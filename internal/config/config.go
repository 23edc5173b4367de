package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	AuthJWTSecret string
	AuthTokenTTL  time.Duration

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RateLimit RateLimitConfig
	Payment   PaymentConfig
	Bootstrap BootstrapConfig
}

// RateLimitConfig sets the token bucket for each limited endpoint. Rates are
// tokens per second.
type RateLimitConfig struct {
	LoginRate       float64
	LoginBurst      int
	LeadCreateRate  float64
	LeadCreateBurst int
	WebhookRate     float64
	WebhookBurst    int
}

// PaymentConfig describes the hosted payment gateway used for credit top-ups.
type PaymentConfig struct {
	GatewayBaseURL string
	MerchantID     string
	SaltKey        string
	SaltIndex      string
	RedirectURL    string
	CallbackURL    string
}

type BootstrapConfig struct {
	AdminEmail    string
	AdminPassword string
	AdminName     string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:           getenv("APP_SERVICE", "leadhub"),
		AppVersion:        getenv("APP_VERSION", "0.1.0"),
		Environment:       getenv("ENVIRONMENT", "development"),
		HTTPAddr:          getenv("HTTP_ADDR", ":8080"),
		AuthJWTSecret:     strings.TrimSpace(getenv("AUTH_JWT_SECRET", "")),
		AuthTokenTTL:      getenvDuration("AUTH_TOKEN_TTL", 24*time.Hour),
		OTLPEndpoint:      getenv("OTLP_ENDPOINT", "localhost:4317"),
		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "leadhub"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
		RedisAddr:         strings.TrimSpace(getenv("REDIS_ADDR", "")),
		RedisPassword:     getenv("REDIS_PASSWORD", ""),
		RedisDB:           getenvInt("REDIS_DB", 0),
		RateLimit: RateLimitConfig{
			LoginRate:       getenvFloat("RATE_LIMIT_LOGIN_RATE", 0.2),
			LoginBurst:      getenvInt("RATE_LIMIT_LOGIN_BURST", 5),
			LeadCreateRate:  getenvFloat("RATE_LIMIT_LEAD_CREATE_RATE", 0.05),
			LeadCreateBurst: getenvInt("RATE_LIMIT_LEAD_CREATE_BURST", 3),
			WebhookRate:     getenvFloat("RATE_LIMIT_WEBHOOK_RATE", 20),
			WebhookBurst:    getenvInt("RATE_LIMIT_WEBHOOK_BURST", 50),
		},
		Payment: PaymentConfig{
			GatewayBaseURL: strings.TrimRight(strings.TrimSpace(getenv("PAYMENT_GATEWAY_BASE_URL", "")), "/"),
			MerchantID:     strings.TrimSpace(getenv("PAYMENT_MERCHANT_ID", "")),
			SaltKey:        strings.TrimSpace(getenv("PAYMENT_SALT_KEY", "")),
			SaltIndex:      strings.TrimSpace(getenv("PAYMENT_SALT_INDEX", "1")),
			RedirectURL:    strings.TrimSpace(getenv("PAYMENT_REDIRECT_URL", "")),
			CallbackURL:    strings.TrimSpace(getenv("PAYMENT_CALLBACK_URL", "")),
		},
		Bootstrap: BootstrapConfig{
			AdminEmail:    strings.ToLower(strings.TrimSpace(getenv("BOOTSTRAP_ADMIN_EMAIL", ""))),
			AdminPassword: getenv("BOOTSTRAP_ADMIN_PASSWORD", ""),
			AdminName:     getenv("BOOTSTRAP_ADMIN_NAME", "Administrator"),
		},
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
