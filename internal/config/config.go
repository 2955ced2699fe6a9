// Package config reads service configuration from the environment.
// A local .env file is honored for development; in production the
// platform injects the variables directly.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds every setting the server and the functions binary need.
type Config struct {
	Env  string // "development" or "production"
	Port string

	// Primary relational store.
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Document log store for audit records.
	MongoURI string
	MongoDB  string

	// Refresh-token store.
	RedisAddr     string
	RedisPassword string

	// Session signing.
	JWTSecret string

	// Map widget key, passed through to clients.
	MapsAPIKey string

	// Auxiliary function endpoints and their shared secrets.
	QRFunctionURL       string
	QRFunctionSecret    string
	EmailFunctionURL    string
	EmailFunctionSecret string
	CheckinSecret       string

	// Outbound mail (functions binary only).
	SendGridAPIKey string
	SendGridFrom   string
}

// Load reads configuration, loading .env first if one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "8080"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "campusevents"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:  getEnv("MONGO_DB", "campusevents"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		JWTSecret: getEnv("JWT_SECRET", "dev-change-me"),

		MapsAPIKey: os.Getenv("MAPS_API_KEY"),

		QRFunctionURL:       os.Getenv("QR_FUNCTION_URL"),
		QRFunctionSecret:    os.Getenv("QR_FUNCTION_SECRET"),
		EmailFunctionURL:    os.Getenv("EMAIL_FUNCTION_URL"),
		EmailFunctionSecret: os.Getenv("EMAIL_FUNCTION_SECRET"),
		CheckinSecret:       os.Getenv("CHECKIN_FUNCTION_SECRET"),

		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		SendGridFrom:   os.Getenv("SENDGRID_FROM_EMAIL"),
	}

	if cfg.Env == "production" && cfg.JWTSecret == "dev-change-me" {
		return nil, fmt.Errorf("JWT_SECRET must be set in production")
	}
	return cfg, nil
}

// DSN builds a libpq-compatible connection string. DATABASE_URL, when
// set, wins over the discrete variables.
func (c *Config) DSN() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
