package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds all configuration for the server.
// Tags use mapstructure for Viper unmarshalling and map 1:1 to environment
// variables.
type ServerConfig struct {
	HTTPPort    string `mapstructure:"HTTP_PORT"`
	Issuer      string `mapstructure:"ISSUER"`
	MongoURI    string `mapstructure:"MONGO_URI"`
	MongoDBName string `mapstructure:"MONGO_DB_NAME"`
	// RedisAddr switches the token cache from in-process memory to Redis
	// when set.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	LogLevel        string `mapstructure:"LOG_LEVEL"`
	LogPretty       bool   `mapstructure:"LOG_PRETTY"`
	OtelServiceName string `mapstructure:"OTEL_SERVICE_NAME"`

	// StateSigningKey signs the pending authorization request carried
	// through the upstream login redirect. Must be set to a strong random
	// value in production.
	StateSigningKey string `mapstructure:"STATE_SIGNING_KEY"`

	AccessTokenTTLMin   int `mapstructure:"ACCESS_TOKEN_TTL_MIN"`
	RefreshTokenTTLHour int `mapstructure:"REFRESH_TOKEN_TTL_HOUR"`
	AuthCodeTTLMin      int `mapstructure:"AUTH_CODE_TTL_MIN"`
	SessionTTLHour      int `mapstructure:"SESSION_TTL_HOUR"`

	// Upstream identity provider the authorization server delegates end-user
	// login to.
	UpstreamAuthURL      string `mapstructure:"UPSTREAM_AUTH_URL"`
	UpstreamTokenURL     string `mapstructure:"UPSTREAM_TOKEN_URL"`
	UpstreamUserInfoURL  string `mapstructure:"UPSTREAM_USERINFO_URL"`
	UpstreamClientID     string `mapstructure:"UPSTREAM_CLIENT_ID"`
	UpstreamClientSecret string `mapstructure:"UPSTREAM_CLIENT_SECRET"`
	UpstreamScopes       string `mapstructure:"UPSTREAM_SCOPES"`
}

// AccessTokenTTL returns the configured access token lifetime.
func (c *ServerConfig) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLMin) * time.Minute
}

// RefreshTokenTTL returns the configured refresh token lifetime.
func (c *ServerConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(c.RefreshTokenTTLHour) * time.Hour
}

// AuthCodeTTL returns the configured authorization code lifetime.
func (c *ServerConfig) AuthCodeTTL() time.Duration {
	return time.Duration(c.AuthCodeTTLMin) * time.Minute
}

// SessionTTL returns the configured login session lifetime.
func (c *ServerConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHour) * time.Hour
}

// UpstreamScopeList splits the comma-separated scope config value.
func (c *ServerConfig) UpstreamScopeList() []string {
	if c.UpstreamScopes == "" {
		return nil
	}
	parts := strings.Split(c.UpstreamScopes, ",")
	scopes := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			scopes = append(scopes, s)
		}
	}
	return scopes
}

// LoadConfig reads configuration from file, environment variables, and defaults.
func LoadConfig() (*ServerConfig, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("/etc/caseflow/")
	v.AddConfigPath("$HOME/.caseflow")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("ISSUER", "http://localhost:8080")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017/caseflow_dev")
	v.SetDefault("MONGO_DB_NAME", "caseflow_dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", true)
	v.SetDefault("OTEL_SERVICE_NAME", "caseflow-auth")
	v.SetDefault("STATE_SIGNING_KEY", "dev_only_state_signing_key_change_me") // CHANGE IN PRODUCTION
	v.SetDefault("ACCESS_TOKEN_TTL_MIN", 60)    // 1 hour
	v.SetDefault("REFRESH_TOKEN_TTL_HOUR", 720) // 30 days
	v.SetDefault("AUTH_CODE_TTL_MIN", 10)
	v.SetDefault("SESSION_TTL_HOUR", 24)
	v.SetDefault("UPSTREAM_SCOPES", "openid,email,profile")

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults and env vars take over.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	return &cfg, nil
}
