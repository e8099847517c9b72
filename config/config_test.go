package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("MONGODB_DB", "portfolio")
	t.Setenv("ADMIN_USERNAME", "admin")
	t.Setenv("ADMIN_PASSWORD", "hunter2")
	t.Setenv("SESSION_SECRET", testSecret)
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, Development, cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.MongoConnectTimeout)
	assert.Equal(t, 2*time.Minute, cfg.StoreWarmupMaxElapse)
	assert.Equal(t, 7*24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "http://localhost:3000", cfg.PublicBaseURL)
	assert.Equal(t, "portfolio", cfg.NATSSubjectPrefix)
	assert.Empty(t, cfg.NATSUrl)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("PORT", "9000")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("PUBLIC_BASE_URL", "https://example.dev/")
	t.Setenv("MONGODB_CONNECT_TIMEOUT", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "https://example.dev", cfg.PublicBaseURL)
	assert.Equal(t, 10*time.Second, cfg.MongoConnectTimeout, "invalid duration falls back to default")
}

func TestLoad_MissingRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MONGODB_URI", "")
	t.Setenv("SESSION_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "MONGODB_URI"))
	assert.True(t, strings.Contains(err.Error(), "SESSION_SECRET"))
	assert.False(t, strings.Contains(err.Error(), "MONGODB_DB"))
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{
			name:    "short session secret",
			key:     "SESSION_SECRET",
			value:   "too-short",
			wantErr: "SESSION_SECRET must be at least",
		},
		{
			name:    "negative session ttl",
			key:     "SESSION_TTL",
			value:   "-1h",
			wantErr: "SESSION_TTL must be positive",
		},
		{
			name:    "unknown environment",
			key:     "APP_ENV",
			value:   "staging",
			wantErr: "APP_ENV must be",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
