package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnv(t *testing.T, env map[string]string) {
	t.Helper()
	for _, key := range []string{
		"PORT", "STORE_DRIVER", "DATABASE_URL", "JWT_SECRET", "JWT_ISSUER", "JWT_TTL_MINUTES",
		"CORS_ALLOWED_ORIGINS", "NAVBAR_VARIANT", "NAVBAR_PROFILES_PATH", "FEED_TIMEZONE",
		"AWS_REGION", "SES_FROM_EMAIL", "SES_FROM_NAME", "REPORT_RECIPIENTS",
	} {
		t.Setenv(key, env[key])
	}
}

func TestLoadDefaults(t *testing.T) {
	setEnv(t, map[string]string{
		"DATABASE_URL": "postgres://localhost/carecrate",
		"JWT_SECRET":   "secret",
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, 720*time.Minute, cfg.JWTTTL)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, "pantry", cfg.NavbarVariant)
	assert.Equal(t, time.UTC, cfg.FeedLocation)
	assert.Empty(t, cfg.ReportRecipients)
	assert.Equal(t, ":8080", cfg.HTTPAddress())
}

func TestLoadMemoryDriverNeedsNoDatabase(t *testing.T) {
	setEnv(t, map[string]string{
		"STORE_DRIVER":      "Memory",
		"JWT_SECRET":        "secret",
		"JWT_TTL_MINUTES":   "15",
		"REPORT_RECIPIENTS": "a@example.com, b@example.com,,",
		"FEED_TIMEZONE":     "America/Chicago",
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, 15*time.Minute, cfg.JWTTTL)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.ReportRecipients)
	assert.Equal(t, "America/Chicago", cfg.FeedLocation.String())
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "postgres without url",
			env:  map[string]string{"JWT_SECRET": "secret"},
			want: "DATABASE_URL is required",
		},
		{
			name: "missing secret",
			env:  map[string]string{"STORE_DRIVER": "memory"},
			want: "JWT_SECRET is required",
		},
		{
			name: "unknown driver",
			env:  map[string]string{"STORE_DRIVER": "mongo", "JWT_SECRET": "secret"},
			want: `unsupported STORE_DRIVER "mongo"`,
		},
		{
			name: "bad timezone",
			env:  map[string]string{"STORE_DRIVER": "memory", "JWT_SECRET": "secret", "FEED_TIMEZONE": "Mars/Olympus"},
			want: "FEED_TIMEZONE",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, tt.env)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
