package config

import (
	"errors"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// DatabaseURL, when set, is used as the connection string and the
	// DB_* parts are ignored.
	DatabaseURL string
	DBHost      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBPort      string
	AppPort     string
	AppEnv      string
	JWTSecret   string
	LogLevel    string

	NotifyWebhookURL string
	NotifyRatePerSec float64
	NotifyQueueSize  int

	RateLimitPerSec float64
	RateLimitBurst  int

	CORSAllowedOrigin string
}

var ErrMissingDBHost = errors.New("neither DATABASE_URL nor DB_HOST is set")

// Load reads the environment (and .env when present) into a Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      os.Getenv("DB_HOST"),
		DBUser:      os.Getenv("DB_USER"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBName:      os.Getenv("DB_NAME"),
		DBPort:      getEnv("DB_PORT", "5432"),
		AppPort:     getEnv("APP_PORT", "8080"),
		AppEnv:      getEnv("APP_ENV", "development"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		LogLevel:    os.Getenv("LOG_LEVEL"),

		NotifyWebhookURL: os.Getenv("NOTIFY_WEBHOOK_URL"),
		NotifyRatePerSec: getFloat("NOTIFY_RATE_PER_SEC", 5),
		NotifyQueueSize:  getInt("NOTIFY_QUEUE_SIZE", 256),

		RateLimitPerSec: getFloat("RATE_LIMIT_PER_SEC", 10),
		RateLimitBurst:  getInt("RATE_LIMIT_BURST", 20),

		CORSAllowedOrigin: getEnv("CORS_ALLOWED_ORIGIN", "http://localhost:3000"),
	}

	if cfg.DatabaseURL == "" && cfg.DBHost == "" {
		return nil, ErrMissingDBHost
	}

	return cfg, nil
}

// LoadConfig is Load for process startup: a missing database location is fatal.
func LoadConfig() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatal("Environment variables not loaded properly: ", err)
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return v
}
