package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseflowhq/caseflow/config"
)

func resetConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"HTTP_PORT", "ISSUER", "MONGO_URI", "MONGO_DB_NAME", "REDIS_ADDR",
		"LOG_LEVEL", "STATE_SIGNING_KEY",
		"ACCESS_TOKEN_TTL_MIN", "REFRESH_TOKEN_TTL_HOUR", "AUTH_CODE_TTL_MIN", "SESSION_TTL_HOUR",
		"UPSTREAM_AUTH_URL", "UPSTREAM_SCOPES",
	} {
		os.Unsetenv(key)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	resetConfigEnv(t)

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "http://localhost:8080", cfg.Issuer)
	assert.Equal(t, "caseflow_dev", cfg.MongoDBName)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.RedisAddr)

	assert.Equal(t, time.Hour, cfg.AccessTokenTTL())
	assert.Equal(t, 720*time.Hour, cfg.RefreshTokenTTL())
	assert.Equal(t, 10*time.Minute, cfg.AuthCodeTTL())
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL())

	assert.Equal(t, []string{"openid", "email", "profile"}, cfg.UpstreamScopeList())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	resetConfigEnv(t)

	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("ISSUER", "https://auth.example.com")
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "15")
	t.Setenv("UPSTREAM_SCOPES", "openid, email")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, "https://auth.example.com", cfg.Issuer)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL())
	assert.Equal(t, []string{"openid", "email"}, cfg.UpstreamScopeList())
}
