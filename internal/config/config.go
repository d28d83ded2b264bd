// Package config loads the process configuration from the environment.
// The resulting Config struct is constructed once at startup and passed
// by injection into every component that needs it.
package config

import (
	"fmt"
	"os"
)

// Config holds every setting the server reads from the environment.
type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Token signing
	JWTSecret string

	// Mail (Mailgun)
	MailgunDomain string
	MailgunAPIKey string

	// Media store (Cloudinary)
	CloudinaryName      string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	// Session store / refresh-token denylist
	RedisAddr     string
	RedisPassword string

	// Server
	Port        string
	PublicURL   string
	Environment string
	LogLevel    string
}

// Load reads the configuration from the environment. It returns an error
// when a setting without a usable default is missing.
func Load() (*Config, error) {
	cfg := &Config{
		DBHost:              os.Getenv("DB_HOST"),
		DBPort:              getEnv("DB_PORT", "5432"),
		DBUser:              os.Getenv("DB_USER"),
		DBPassword:          os.Getenv("DB_PASS"),
		DBName:              os.Getenv("DB_NAME"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		MailgunDomain:       os.Getenv("MAILGUN_DOMAIN"),
		MailgunAPIKey:       os.Getenv("MAILGUN_API_KEY"),
		CloudinaryName:      os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:    os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret: os.Getenv("CLOUDINARY_API_SECRET"),
		RedisAddr:           getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:       os.Getenv("REDIS_PASS"),
		Port:                getEnv("PORT", "8080"),
		PublicURL:           getEnv("PUBLIC_URL", "http://localhost:8080"),
		Environment:         getEnv("ENVIRONMENT", "development"),
		LogLevel:            getEnv("LOG_LEVEL", "INFO"),
	}

	if cfg.DBHost == "" || cfg.DBUser == "" || cfg.DBPassword == "" || cfg.DBName == "" {
		return nil, fmt.Errorf("database environment variables not set")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET not set")
	}

	return cfg, nil
}

// IsProduction reports whether the server runs with the production
// environment tag. It gates the Secure flag on cookies and real mail sending.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
