package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Env               string
	Port              string
	DBURL             string
	ClientURL         string
	AccessTokenSecret string
	AccessExpiryMin   int

	// Account security knobs. Defaults match the documented policy:
	// 5 failures inside a trailing 2-minute window lock the account for
	// 10 minutes, and at most 3 distinct origins may hold live sessions.
	LoginMaxAttempts   int
	LoginWindowSeconds int
	LockoutMinutes     int
	MaxSessionOrigins  int

	EmailFrom    string
	ResendAPIKey string
}

func Load() *Config {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	return &Config{
		Env:                getEnv("ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		DBURL:              mustGetEnv("DB_URL"),
		ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
		AccessTokenSecret:  mustGetEnv("ACCESS_TOKEN_SECRET"),
		AccessExpiryMin:    getEnvAsInt("ACCESS_TOKEN_EXPIRY", 1440),
		LoginMaxAttempts:   getEnvAsInt("LOGIN_MAX_ATTEMPTS", 5),
		LoginWindowSeconds: getEnvAsInt("LOGIN_WINDOW_SECONDS", 120),
		LockoutMinutes:     getEnvAsInt("LOCKOUT_MINUTES", 10),
		MaxSessionOrigins:  getEnvAsInt("MAX_SESSION_ORIGINS", 3),
		EmailFrom:          getEnv("EMAIL_FROM", "Smart Security <security@smartbreach.com>"),
		ResendAPIKey:       getEnv("RESEND_API_KEY", ""),
	}
}

func getEnv(key string, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func mustGetEnv(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	log.Fatalf("Missing required environment variable: %s", key)
	return ""
}

func getEnvAsInt(key string, defaultVal int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		log.Printf("Invalid value for %s, using default %d", key, defaultVal)
		return defaultVal
	}
	return val
}
