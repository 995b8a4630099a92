package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	AppMode  string
	Port     string
	Log      LogConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Redis    RedisConfig
	Reminder ReminderConfig
	SMTP     SMTPConfig

	// AdminPassword seeds the first ADMIN account in dev mode
	AdminPassword string
	DotEnvFound   bool
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string
	Format string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret          string
	AccessTokenMins int
}

// AccessTokenTTL returns the access token lifetime
func (j JWTConfig) AccessTokenTTL() time.Duration {
	return time.Duration(j.AccessTokenMins) * time.Minute
}

// RedisConfig holds the idempotency store configuration. Empty URL disables it.
type RedisConfig struct {
	URL            string
	IdempotencyTTL time.Duration
}

// ReminderConfig holds the installment reminder schedule
type ReminderConfig struct {
	Cron string
}

// SMTPConfig holds outgoing mail configuration. Empty Host disables e-mail.
type SMTPConfig struct {
	Host        string
	Port        string
	Username    string
	Password    string
	SenderEmail string
}

// Enabled reports whether e-mail can be sent
func (s SMTPConfig) Enabled() bool {
	return s.Host != ""
}

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// .env is optional; production uses real environment variables
	found := godotenv.Load() == nil

	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}
	cfg.DotEnvFound = found
	return cfg, nil
}

// FromEnv builds the configuration from the process environment only
func FromEnv() (*Config, error) {
	// Get APP_MODE (default to "dev") - trim spaces for Windows compatibility
	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	jwtCfg, err := loadJWTConfig(appMode)
	if err != nil {
		return nil, err
	}

	ttlHours, err := strconv.Atoi(getEnv("IDEMPOTENCY_TTL_HOURS", "24"))
	if err != nil || ttlHours < 1 {
		return nil, fmt.Errorf("invalid IDEMPOTENCY_TTL_HOURS: '%s'", os.Getenv("IDEMPOTENCY_TTL_HOURS"))
	}

	return &Config{
		AppMode: appMode,
		Port:    getEnv("PORT", "3000"),
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", defaultLogFormat(appMode)),
		},
		Database: loadDatabaseConfig(appMode),
		JWT:      jwtCfg,
		Redis: RedisConfig{
			URL:            getEnv("REDIS_URL", ""),
			IdempotencyTTL: time.Duration(ttlHours) * time.Hour,
		},
		Reminder: ReminderConfig{
			Cron: getEnv("REMINDER_CRON", "30 8 * * *"),
		},
		SMTP: SMTPConfig{
			Host:        getEnv("SMTP_HOST", ""),
			Port:        getEnv("SMTP_PORT", "587"),
			Username:    getEnv("SMTP_USERNAME", ""),
			Password:    getEnv("SMTP_PASSWORD", ""),
			SenderEmail: getEnv("SENDER_EMAIL", "no-reply@loanbook.local"),
		},
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin123456"),
	}, nil
}

func modePrefix(mode string) string {
	if mode == "prod" {
		return "PROD_"
	}
	return "DEV_"
}

func defaultLogFormat(mode string) string {
	if mode == "prod" {
		return "json"
	}
	return "text"
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := modePrefix(mode)

	return DatabaseConfig{
		Host:     getEnv(prefix+"DB_HOST", "localhost"),
		Port:     getEnv(prefix+"DB_PORT", "3306"),
		User:     getEnv(prefix+"DB_USER", "root"),
		Password: getEnv(prefix+"DB_PASS", ""),
		DBName:   getEnv(prefix+"DB_NAME", "loanbook"),
	}
}

// loadJWTConfig loads JWT config based on mode. Production refuses the default secret.
func loadJWTConfig(mode string) (JWTConfig, error) {
	secret := getEnv(modePrefix(mode)+"JWT_SECRET", "default_secret")
	if mode == "prod" && secret == "default_secret" {
		return JWTConfig{}, fmt.Errorf("PROD_JWT_SECRET must be set in prod mode")
	}

	accessMins, err := strconv.Atoi(getEnv("ACCESS_TOKEN_MINUTES", "60"))
	if err != nil || accessMins < 1 {
		return JWTConfig{}, fmt.Errorf("invalid ACCESS_TOKEN_MINUTES: '%s'", os.Getenv("ACCESS_TOKEN_MINUTES"))
	}

	return JWTConfig{
		Secret:          secret,
		AccessTokenMins: accessMins,
	}, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return "https://loanbook.example.com"
	}
	return origins
}
