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
	LogLevel    string

	CompanyName   string
	PublicBaseURL string

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

	SMSAPIURL     string
	SMSAccount    string
	SMSPassword   string
	SMSFromName   string
	SMSTestMode   bool
	SMSTokenTTL   time.Duration
	SMSMaxRetries int
	SMSCostCents  int64

	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string

	WorkerInterval    time.Duration
	WorkerBatchSize   int
	WorkerConcurrency int

	RatesFile string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "paquetes"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		LogLevel:    getenv("LOG_LEVEL", "info"),

		CompanyName:   getenv("COMPANY_NAME", "PAQUETES EL CLUB"),
		PublicBaseURL: getenv("PUBLIC_BASE_URL", "https://paquetes.elclub.co"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "paquetes"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     int(getenvInt64("DATABASE_MAX_IDLE_CONN", 5)),
		DBMaxOpenConn:     int(getenvInt64("DATABASE_MAX_OPEN_CONN", 25)),
		DBConnMaxLifetime: int(getenvInt64("DATABASE_CONN_MAX_LIFETIME", 300)),
		DBConnMaxIdleTime: int(getenvInt64("DATABASE_CONN_MAX_IDLE_TIME", 60)),

		RedisAddr:     getenv("REDIS_ADDR", ""),
		RedisPassword: getenv("REDIS_PASSWORD", ""),

		SMSAPIURL:     getenv("SMS_API_URL", "https://api.liwa.co/v2"),
		SMSAccount:    strings.TrimSpace(getenv("SMS_ACCOUNT", "")),
		SMSPassword:   strings.TrimSpace(getenv("SMS_PASSWORD", "")),
		SMSFromName:   getenv("SMS_FROM_NAME", "PAQUETES"),
		SMSTestMode:   getenvBool("SMS_TEST_MODE", false),
		SMSTokenTTL:   getenvDuration("SMS_TOKEN_TTL", 24*time.Hour),
		SMSMaxRetries: int(getenvInt64("SMS_MAX_RETRIES", 3)),
		SMSCostCents:  getenvInt64("SMS_COST_CENTS", 50),

		SMTPHost:     getenv("SMTP_HOST", ""),
		SMTPPort:     getenv("SMTP_PORT", "587"),
		SMTPUser:     getenv("SMTP_USER", ""),
		SMTPPassword: getenv("SMTP_PASSWORD", ""),
		SMTPFrom:     getenv("SMTP_FROM", ""),

		WorkerInterval:    getenvDuration("WORKER_INTERVAL", 30*time.Second),
		WorkerBatchSize:   int(getenvInt64("WORKER_BATCH_SIZE", 50)),
		WorkerConcurrency: int(getenvInt64("WORKER_CONCURRENCY", 8)),

		RatesFile: getenv("RATES_FILE", ""),
	}

	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
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
	if err != nil {
		return def
	}
	return parsed
}
