package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("APP_MODE", "")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.True(t, cfg.IsDev())
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 60*time.Minute, cfg.JWT.AccessTokenTTL())
	assert.Equal(t, 24*time.Hour, cfg.Redis.IdempotencyTTL)
	assert.Equal(t, "30 8 * * *", cfg.Reminder.Cron)
	assert.False(t, cfg.SMTP.Enabled())
	assert.Equal(t, "*", cfg.GetAllowedOrigins())
}

func TestFromEnv_ModePrefix(t *testing.T) {
	t.Setenv("APP_MODE", "prod")
	t.Setenv("PROD_DB_HOST", "db.internal")
	t.Setenv("DEV_DB_HOST", "localhost")
	t.Setenv("PROD_JWT_SECRET", "s3cret")
	t.Setenv("SMTP_HOST", "smtp.example.com")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.True(t, cfg.IsProd())
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.SMTP.Enabled())
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "bad mode", env: map[string]string{"APP_MODE": "staging"}},
		{name: "prod without secret", env: map[string]string{"APP_MODE": "prod"}},
		{name: "bad token minutes", env: map[string]string{"ACCESS_TOKEN_MINUTES": "soon"}},
		{name: "bad idempotency ttl", env: map[string]string{"IDEMPOTENCY_TTL_HOURS": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PROD_JWT_SECRET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}
