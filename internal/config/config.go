package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server
	Port            int
	Environment     string
	ShutdownTimeout time.Duration
	LogLevel        string
	AllowedOrigins  string

	// Database
	DatabaseURL         string
	DBMaxConnections    int
	DBConnectionTimeout time.Duration

	// Clerk Auth
	ClerkSecretKey string
	RequireAuth    bool

	// S3
	S3Bucket     string
	S3Region     string
	AWSEndpoint  string // For LocalStack in development
	ExportURLTTL int    // Minutes a presigned export link stays valid
	BracketsFile string // Empty uses the embedded tables

	// Taxpayer profile printed on the PO-SD form
	OIB     string
	Name    string
	Address string

	// Municipal account receiving income tax and surtax
	PayeeName        string
	PayeeIBAN        string
	PayeePurposeCode string
}

func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Port:                getEnvInt("PORT", 8080),
		Environment:         getEnv("ENVIRONMENT", "development"),
		ShutdownTimeout:     getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		AllowedOrigins:      getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		DBMaxConnections:    getEnvInt("DB_MAX_CONNECTIONS", 25),
		DBConnectionTimeout: getEnvDuration("DB_CONNECTION_TIMEOUT", 30*time.Second),
		ClerkSecretKey:      getEnv("CLERK_SECRET_KEY", ""),
		RequireAuth:         getEnvBool("REQUIRE_AUTH", false),
		S3Bucket:            getEnv("S3_BUCKET", ""),
		S3Region:            getEnv("S3_REGION", "eu-central-1"),
		AWSEndpoint:         getEnv("AWS_ENDPOINT", ""),
		ExportURLTTL:        getEnvInt("EXPORT_URL_TTL_MINUTES", 15),
		BracketsFile:        getEnv("BRACKETS_FILE", ""),
		OIB:                 getEnv("PROFILE_OIB", ""),
		Name:                getEnv("PROFILE_NAME", ""),
		Address:             getEnv("PROFILE_ADDRESS", ""),
		PayeeName:           getEnv("PAYEE_NAME", ""),
		PayeeIBAN:           getEnv("PAYEE_IBAN", ""),
		PayeePurposeCode:    getEnv("PAYEE_PURPOSE_CODE", "TAXS"),
	}

	// Validate required fields
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Environment == "production" {
		if cfg.ClerkSecretKey == "" {
			return nil, fmt.Errorf("CLERK_SECRET_KEY is required in production")
		}
		cfg.RequireAuth = true
	}
	if cfg.ExportURLTTL <= 0 {
		return nil, fmt.Errorf("EXPORT_URL_TTL_MINUTES must be positive")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
