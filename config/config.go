// Package config loads process-wide settings once at startup. The returned
// Config is passed by value into the components that need it; nothing reads
// the environment after Load returns.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	MongoURI       string
	DatabaseName   string
	FrontendURL    string
	AllowedOrigins []string
	LogLevel       string

	JWTSecret          string
	SessionTokenTTL    time.Duration
	ResetTokenTTL      time.Duration
	ResetSweepInterval time.Duration
	BcryptCost         int

	AdminEmail    string
	AdminPassword string

	RedisURL        string
	RateLimitMax    int
	RateLimitWindow time.Duration

	Email   EmailConfig
	Storage StorageConfig
}

type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// Inbox receives contact form submissions.
	Inbox string
}

func (e EmailConfig) Enabled() bool {
	return e.Host != "" && e.Port != 0 && e.From != ""
}

// StorageConfig points at an S3-compatible bucket (Cloudflare R2 in production).
type StorageConfig struct {
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	PublicDomain    string
	MaxUploadMB     int
	MaxImages       int
}

func (s StorageConfig) Enabled() bool {
	return s.Bucket != "" && s.AccessKeyID != "" && s.SecretAccessKey != "" && s.Endpoint != ""
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		Port:           getenvDefault("PORT", "8080"),
		MongoURI:       os.Getenv("MONGODB_URI"),
		DatabaseName:   os.Getenv("DATABASE_NAME"),
		FrontendURL:    strings.TrimRight(getenvDefault("FRONTEND_URL", "http://localhost:3000"), "/"),
		AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),
		LogLevel:       getenvDefault("LOG_LEVEL", "info"),

		JWTSecret:          os.Getenv("JWT_SECRET"),
		SessionTokenTTL:    durationMinutes("SESSION_TOKEN_TTL_MINUTES", 60),
		ResetTokenTTL:      durationMinutes("RESET_TOKEN_TTL_MINUTES", 60),
		ResetSweepInterval: durationMinutes("RESET_SWEEP_INTERVAL_MINUTES", 15),
		BcryptCost:         intDefault("BCRYPT_COST", 10),

		AdminEmail:         strings.TrimSpace(os.Getenv("ADMIN_EMAIL")),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		RedisURL:        os.Getenv("REDIS_URL"),
		RateLimitMax:    intDefault("RATE_LIMIT_MAX", 10),
		RateLimitWindow: durationMinutes("RATE_LIMIT_WINDOW_MINUTES", 15),

		Email: EmailConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     intDefault("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getenvDefault("SMTP_FROM", os.Getenv("SMTP_USER")),
			Inbox:    getenvDefault("CONTACT_INBOX", os.Getenv("SMTP_USER")),
		},
		Storage: StorageConfig{
			Bucket:          os.Getenv("R2_BUCKET"),
			AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
			Endpoint:        os.Getenv("R2_ENDPOINT"),
			PublicDomain:    strings.TrimRight(os.Getenv("R2_PUBLIC_DOMAIN"), "/"),
			MaxUploadMB:     intDefault("MAX_UPLOAD_SIZE_MB", 5),
			MaxImages:       intDefault("MAX_PROD_IMAGES", 4),
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var missing []string
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if c.MongoURI == "" {
		missing = append(missing, "MONGODB_URI")
	}
	if c.DatabaseName == "" {
		missing = append(missing, "DATABASE_NAME")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost)
	}
	return nil
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func intDefault(key string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func durationMinutes(key string, def int) time.Duration {
	return time.Duration(intDefault(key, def)) * time.Minute
}

func splitList(raw string) []string {
	var out []string
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
