package config

import (
	"fmt"
	"os"
	"strconv"
)

// Database providers selectable via DATABASE_PROVIDER.
const (
	ProviderDynamoDB = "dynamodb"
	ProviderPostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// Persistence backend selection
	DatabaseProvider string

	// AWS configuration
	AWSRegion        string
	DynamoDBEndpoint string // optional override, for local emulators
	TablePrefix      string

	// Postgres configuration
	PostgresDSN string

	// Lambda configuration
	IsLambda bool

	// Logging
	LogLevel string

	// Feature flags
	EnableCORS bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),

		DatabaseProvider: getEnv("DATABASE_PROVIDER", ProviderDynamoDB),

		AWSRegion:        getEnv("AWS_REGION", "us-east-1"),
		DynamoDBEndpoint: getEnv("DYNAMODB_ENDPOINT", ""),
		TablePrefix:      getEnv("TABLE_PREFIX", "idp_"),

		PostgresDSN: getEnv("DATABASE_URL", ""),

		IsLambda: getEnvBool("IS_LAMBDA", false),

		LogLevel:   getEnv("LOG_LEVEL", "info"),
		EnableCORS: getEnvBool("ENABLE_CORS", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load is an alias for LoadConfig
func Load() (*Config, error) {
	return LoadConfig()
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.DatabaseProvider {
	case ProviderDynamoDB:
		if c.AWSRegion == "" {
			return fmt.Errorf("AWS_REGION is required for the dynamodb provider")
		}
	case ProviderPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres provider")
		}
	default:
		return fmt.Errorf("unknown DATABASE_PROVIDER %q (want %s or %s)",
			c.DatabaseProvider, ProviderDynamoDB, ProviderPostgres)
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
