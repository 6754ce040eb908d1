package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Credentials are the gateway API credentials. They are loaded once at
// startup and immutable for the process lifetime.
type Credentials struct {
	APIKey    string
	SecretKey string
	BaseURL   string
}

// ErrMissingCredentials makes startup fail fast when the gateway keys are
// not configured.
var ErrMissingCredentials = errors.New("config: IYZICO_API_KEY and IYZICO_SECRET_KEY are required")

const defaultBaseURL = "https://sandbox-api.iyzipay.com"

// LoadCredentials reads the gateway credentials from the environment.
func LoadCredentials() (Credentials, error) {
	creds := Credentials{
		APIKey:    os.Getenv("IYZICO_API_KEY"),
		SecretKey: os.Getenv("IYZICO_SECRET_KEY"),
		BaseURL:   GetEnv("IYZICO_BASE_URL", defaultBaseURL),
	}
	if creds.APIKey == "" || creds.SecretKey == "" {
		return Credentials{}, ErrMissingCredentials
	}
	return creds, nil
}

// AppConfig represents the application configuration
type AppConfig struct {
	Port             string
	Environment      string
	AuthScheme       string
	GatewayTimeout   time.Duration
	DBDriver         string
	DatabaseURL      string
	FallbackClientIP string
	FallbackIdentity string
	OpenSearchURL    string
	OpenSearchUser   string
	OpenSearchPass   string
	EnableLogging    bool
	LoggingLevel     string
	LogRetentionDays int
}

var appConfigInstance *AppConfig

// GetAppConfig returns the application configuration
func GetAppConfig() *AppConfig {
	if appConfigInstance == nil {
		appConfigInstance = &AppConfig{
			Port:             GetEnv("APP_PORT", "5000"),
			Environment:      GetEnv("ENVIRONMENT", "development"),
			AuthScheme:       GetEnv("IYZICO_AUTH_SCHEME", "v2"),
			GatewayTimeout:   time.Duration(GetIntEnv("IYZICO_TIMEOUT_SECONDS", 10)) * time.Second,
			DBDriver:         GetEnv("DB_DRIVER", "postgres"),
			DatabaseURL:      GetEnv("DATABASE_URL", ""),
			FallbackClientIP: GetEnv("FALLBACK_CLIENT_IP", "85.34.78.112"),
			FallbackIdentity: GetEnv("FALLBACK_IDENTITY_NUMBER", "74300864791"),
			OpenSearchURL:    GetEnv("OPENSEARCH_URL", "http://localhost:9200"),
			OpenSearchUser:   GetEnv("OPENSEARCH_USER", ""),
			OpenSearchPass:   GetEnv("OPENSEARCH_PASSWORD", ""),
			EnableLogging:    GetBoolEnv("ENABLE_OPENSEARCH_LOGGING", false),
			LoggingLevel:     GetEnv("LOGGING_LEVEL", "info"),
			LogRetentionDays: GetIntEnv("LOG_RETENTION_DAYS", 30),
		}
	}
	return appConfigInstance
}

// ResetAppConfig clears the cached configuration so the next GetAppConfig
// call rereads the environment. Intended for tests.
func ResetAppConfig() {
	appConfigInstance = nil
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetBoolEnv returns the boolean value of an environment variable or a default value
func GetBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetIntEnv returns the integer value of an environment variable or a default value
func GetIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
