package config

import (
	"os"
	"strconv"
)

// Config holds application configuration
type Config struct {
	ServerPort     string
	DatabaseType   string
	DatabasePath   string
	DatabaseURL    string
	MigrationsPath string

	// JWTSecret verifies bearer tokens issued by the identity provider.
	JWTSecret string

	// Identity provider admin API (GoTrue-style) used to mint accounts.
	IdentityProviderURL string
	IdentityServiceKey  string

	// KDFIterations overrides the PBKDF2 iteration count. Zero means the
	// production default; only tests and local tooling should lower it.
	KDFIterations int

	// Email notification settings (Amazon SES). Empty SESFromEmail disables
	// email entirely.
	AWSRegion    string
	SESFromEmail string
	SESFromName  string
	AppBaseURL   string
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		ServerPort:          getEnv("PORT", "8080"),
		DatabaseType:        getEnv("DB_TYPE", "sqlite"),
		DatabasePath:        getEnv("DB_PATH", "./familytree.db"),
		DatabaseURL:         getEnv("DB_URL", ""),
		MigrationsPath:      getEnv("MIGRATIONS_PATH", "./migrations"),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		IdentityProviderURL: getEnv("IDENTITY_PROVIDER_URL", ""),
		IdentityServiceKey:  getEnv("IDENTITY_SERVICE_KEY", ""),
		KDFIterations:       getEnvInt("KDF_ITERATIONS", 0),
		AWSRegion:           getEnv("AWS_REGION", "eu-west-1"),
		SESFromEmail:        getEnv("SES_FROM_EMAIL", ""),
		SESFromName:         getEnv("SES_FROM_NAME", "FamilyTree"),
		AppBaseURL:          getEnv("APP_BASE_URL", "http://localhost:8080"),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt reads an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
