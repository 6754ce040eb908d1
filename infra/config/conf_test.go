package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCredentials(t *testing.T) {
	t.Setenv("IYZICO_API_KEY", "test-api-key")
	t.Setenv("IYZICO_SECRET_KEY", "test-secret-key")
	t.Setenv("IYZICO_BASE_URL", "")

	creds, err := LoadCredentials()
	require.NoError(t, err)
	assert.Equal(t, "test-api-key", creds.APIKey)
	assert.Equal(t, "test-secret-key", creds.SecretKey)
	assert.Equal(t, defaultBaseURL, creds.BaseURL)
}

func TestLoadCredentials_MissingSecretKey(t *testing.T) {
	t.Setenv("IYZICO_API_KEY", "test-api-key")
	t.Setenv("IYZICO_SECRET_KEY", "")

	_, err := LoadCredentials()
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestLoadCredentials_MissingAPIKey(t *testing.T) {
	t.Setenv("IYZICO_API_KEY", "")
	t.Setenv("IYZICO_SECRET_KEY", "test-secret-key")

	_, err := LoadCredentials()
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestLoadCredentials_CustomBaseURL(t *testing.T) {
	t.Setenv("IYZICO_API_KEY", "k")
	t.Setenv("IYZICO_SECRET_KEY", "s")
	t.Setenv("IYZICO_BASE_URL", "https://api.iyzipay.com")

	creds, err := LoadCredentials()
	require.NoError(t, err)
	assert.Equal(t, "https://api.iyzipay.com", creds.BaseURL)
}

func TestGetAppConfig_Defaults(t *testing.T) {
	ResetAppConfig()
	t.Cleanup(ResetAppConfig)

	cfg := GetAppConfig()
	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, "v2", cfg.AuthScheme)
	assert.Equal(t, 10*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, "85.34.78.112", cfg.FallbackClientIP)
	assert.Equal(t, "74300864791", cfg.FallbackIdentity)
}

func TestGetAppConfig_Overrides(t *testing.T) {
	ResetAppConfig()
	t.Cleanup(ResetAppConfig)

	t.Setenv("APP_PORT", "8080")
	t.Setenv("IYZICO_AUTH_SCHEME", "legacy")
	t.Setenv("IYZICO_TIMEOUT_SECONDS", "30")
	t.Setenv("DB_DRIVER", "postgres")

	cfg := GetAppConfig()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "legacy", cfg.AuthScheme)
	assert.Equal(t, 30*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, "postgres", cfg.DBDriver)
}

func TestGetAppConfig_IsSingleton(t *testing.T) {
	ResetAppConfig()
	t.Cleanup(ResetAppConfig)

	first := GetAppConfig()
	second := GetAppConfig()
	assert.Same(t, first, second)
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("PAYRELAY_TEST_STR", "value")
	assert.Equal(t, "value", GetEnv("PAYRELAY_TEST_STR", "default"))
	assert.Equal(t, "default", GetEnv("PAYRELAY_TEST_UNSET", "default"))

	t.Setenv("PAYRELAY_TEST_BOOL", "true")
	assert.True(t, GetBoolEnv("PAYRELAY_TEST_BOOL", false))
	assert.False(t, GetBoolEnv("PAYRELAY_TEST_BOOL_UNSET", false))

	t.Setenv("PAYRELAY_TEST_INT", "42")
	assert.Equal(t, 42, GetIntEnv("PAYRELAY_TEST_INT", 7))
	assert.Equal(t, 7, GetIntEnv("PAYRELAY_TEST_INT_UNSET", 7))
	t.Setenv("PAYRELAY_TEST_INT_BAD", "not-a-number")
	assert.Equal(t, 7, GetIntEnv("PAYRELAY_TEST_INT_BAD", 7))
}
