package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": secret,
	}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "jwt", cfg.Auth.CookieName)
	assert.Equal(t, 90*24*time.Hour, cfg.Auth.JWTTTL)
	assert.Equal(t, 90*24*time.Hour, cfg.CookieMaxAge())
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, 5, cfg.Lockout.Threshold)
	assert.Equal(t, 2*time.Hour, cfg.Lockout.Duration)
	assert.Equal(t, 100, cfg.RateLimit.Max)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, "memory", cfg.RateLimit.Backend)
	assert.Equal(t, "mongo", cfg.Store.Driver)
	assert.Equal(t, 3*time.Second, cfg.Store.Timeout)
	assert.Empty(t, cfg.APIKeys)
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":         secret,
		"ENV":                "production",
		"API_KEYS":           "svc-a, ,svc-b",
		"LOCKOUT_THRESHOLD":  "3",
		"RATE_LIMIT_BACKEND": "redis",
		"STORE_DRIVER":       "memory",
		"STORE_TIMEOUT":      "500ms",
	}))
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, []string{"svc-a", "svc-b"}, cfg.APIKeys)
	assert.Equal(t, 3, cfg.Lockout.Threshold)
	assert.Equal(t, "redis", cfg.RateLimit.Backend)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, 500*time.Millisecond, cfg.Store.Timeout)
}

func TestLoadFrom_MissingSecret(t *testing.T) {
	_, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"short secret", map[string]string{"JWT_SECRET": "short"}, "at least 32 bytes"},
		{"bad backend", map[string]string{"JWT_SECRET": secret, "RATE_LIMIT_BACKEND": "memcached"}, "RATE_LIMIT_BACKEND"},
		{"bad driver", map[string]string{"JWT_SECRET": secret, "STORE_DRIVER": "postgres"}, "STORE_DRIVER"},
		{"zero threshold", map[string]string{"JWT_SECRET": secret, "LOCKOUT_THRESHOLD": "0"}, "LOCKOUT_THRESHOLD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(context.Background(), envconfig.MapLookuper(tt.env))
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.want), err.Error())
		})
	}
}
