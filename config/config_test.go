package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("DATABASE_NAME", "polgen")
}

func TestFromEnv_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, time.Hour, cfg.SessionTokenTTL)
	assert.Equal(t, time.Hour, cfg.ResetTokenTTL)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, 10, cfg.RateLimitMax)
	assert.Equal(t, 15*time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, 587, cfg.Email.Port)
	assert.Equal(t, 4, cfg.Storage.MaxImages)
	assert.False(t, cfg.Storage.Enabled())
	assert.False(t, cfg.Email.Enabled())
}

func TestFromEnv_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9000")
	t.Setenv("FRONTEND_URL", "https://shop.example.com/")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example.com, ,https://b.example.com")
	t.Setenv("SESSION_TOKEN_TTL_MINUTES", "30")
	t.Setenv("ADMIN_EMAIL", "  Admin@Example.com ")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_USER", "shop@example.com")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "https://shop.example.com", cfg.FrontendURL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, 30*time.Minute, cfg.SessionTokenTTL)
	assert.Equal(t, "Admin@Example.com", cfg.AdminEmail)
	assert.Equal(t, "shop@example.com", cfg.Email.From)
	assert.Equal(t, "shop@example.com", cfg.Email.Inbox)
	assert.True(t, cfg.Email.Enabled())
}

func TestFromEnv_InvalidNumbersFallBack(t *testing.T) {
	setRequired(t)
	t.Setenv("RATE_LIMIT_MAX", "lots")
	t.Setenv("SMTP_PORT", "-1")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.RateLimitMax)
	assert.Equal(t, 587, cfg.Email.Port)
}

func TestFromEnv_MissingRequired(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("MONGODB_URI", "")
	t.Setenv("DATABASE_NAME", "polgen")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "MONGODB_URI")
	assert.NotContains(t, err.Error(), "DATABASE_NAME")
}

func TestFromEnv_BcryptCostBounds(t *testing.T) {
	setRequired(t)
	t.Setenv("BCRYPT_COST", "40")

	_, err := FromEnv()
	require.Error(t, err)
}
