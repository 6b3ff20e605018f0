package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Redis     RedisConfig
	Shipping  ShippingConfig
	Payment   PaymentConfig
	S3        S3Config
	Scheduler SchedulerConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type JWTConfig struct {
	Secret             string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// ShippingConfig configures the Komerce tariff API.
type ShippingConfig struct {
	BaseURL             string
	APIKey              string
	WarehouseLocationID string
	Timeout             time.Duration
	OptionsCacheTTL     time.Duration
}

// PaymentConfig configures the Midtrans Snap and Core APIs.
type PaymentConfig struct {
	ServerKey    string
	ClientKey    string
	IsProduction bool
	SnapBaseURL  string
	CoreBaseURL  string
	Timeout      time.Duration
}

type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	BaseURL         string // CloudFront or S3 direct URL
}

type SchedulerConfig struct {
	PaymentSweepSpec  string
	PaymentSweepAfter time.Duration
}

type RateLimitConfig struct {
	WebhookRPS   float64
	WebhookBurst int
	AuthRPS      float64
	AuthBurst    int
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	isProduction := getEnv("MIDTRANS_IS_PRODUCTION", "false") == "true"
	snapURL, coreURL := "https://app.sandbox.midtrans.com", "https://api.sandbox.midtrans.com"
	if isProduction {
		snapURL, coreURL = "https://app.midtrans.com", "https://api.midtrans.com"
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "checkout"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", "your-secret-key"),
			AccessTokenExpiry:  parseDuration(getEnv("JWT_ACCESS_TOKEN_EXPIRY", "15m"), 15*time.Minute),
			RefreshTokenExpiry: parseDuration(getEnv("JWT_REFRESH_TOKEN_EXPIRY", "168h"), 168*time.Hour),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
		},
		Shipping: ShippingConfig{
			BaseURL:             getEnv("KOMERCE_API_URL", "https://api-sandbox.collaborator.komerce.id"),
			APIKey:              getEnv("KOMERCE_API_KEY_SHIPPING_DELIVERY", ""),
			WarehouseLocationID: getEnv("WAREHOUSE_LOCATION_ID", ""),
			Timeout:             parseDuration(getEnv("KOMERCE_TIMEOUT", "8s"), 8*time.Second),
			OptionsCacheTTL:     parseDuration(getEnv("SHIPPING_OPTIONS_CACHE_TTL", "10m"), 10*time.Minute),
		},
		Payment: PaymentConfig{
			ServerKey:    getEnv("MIDTRANS_SERVER_KEY", ""),
			ClientKey:    getEnv("MIDTRANS_CLIENT_KEY", ""),
			IsProduction: isProduction,
			SnapBaseURL:  getEnv("MIDTRANS_SNAP_URL", snapURL),
			CoreBaseURL:  getEnv("MIDTRANS_CORE_URL", coreURL),
			Timeout:      parseDuration(getEnv("MIDTRANS_TIMEOUT", "8s"), 8*time.Second),
		},
		S3: S3Config{
			Region:          getEnv("AWS_REGION", "ap-southeast-3"),
			Bucket:          getEnv("AWS_S3_BUCKET", "checkout-product-images"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			BaseURL:         getEnv("AWS_S3_BASE_URL", ""),
		},
		Scheduler: SchedulerConfig{
			PaymentSweepSpec:  getEnv("PAYMENT_SWEEP_SPEC", "*/10 * * * *"),
			PaymentSweepAfter: parseDuration(getEnv("PAYMENT_SWEEP_AFTER", "15m"), 15*time.Minute),
		},
		RateLimit: RateLimitConfig{
			WebhookRPS:   parseFloat(getEnv("RATE_LIMIT_WEBHOOK_RPS", "50"), 50),
			WebhookBurst: parseInt(getEnv("RATE_LIMIT_WEBHOOK_BURST", "100"), 100),
			AuthRPS:      parseFloat(getEnv("RATE_LIMIT_AUTH_RPS", "2"), 2),
			AuthBurst:    parseInt(getEnv("RATE_LIMIT_AUTH_BURST", "5"), 5),
		},
	}

	if config.Server.Environment == "production" && config.Payment.ServerKey == "" {
		return nil, fmt.Errorf("MIDTRANS_SERVER_KEY is required in production")
	}

	return config, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func parseFloat(s string, fallback float64) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return f
}

func parseSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}
