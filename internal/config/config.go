package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName     string
	AppEnv      string
	AppPort     string
	DatabaseURL string
	RedisURL    string

	JWTSecret      string
	AccessTokenTTL time.Duration

	// Bounds for admin-supplied code lifetimes, in hours.
	CodeExpiryDefaultHours int
	CodeExpiryMaxHours     int

	// Fixed-window budgets for the public activation endpoints.
	ValidateRateLimit  int
	ValidateRateWindow time.Duration
	CompleteRateLimit  int
	CompleteRateWindow time.Duration

	EmailFromName    string
	EmailFromAddress string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("BRIGADA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Brigada API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("access_token_ttl", "24h")
	v.SetDefault("code_expiry_default_hours", 72)
	v.SetDefault("code_expiry_max_hours", 168)
	v.SetDefault("validate_rate_limit", 10)
	v.SetDefault("validate_rate_window", "1m")
	v.SetDefault("complete_rate_limit", 3)
	v.SetDefault("complete_rate_window", "1h")
	v.SetDefault("email.from_name", "Brigada")
	v.SetDefault("email.from_address", "no-reply@brigada.mx")

	ttl, err := time.ParseDuration(v.GetString("access_token_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid access token ttl: %w", err)
	}

	validateWindow, err := time.ParseDuration(v.GetString("validate_rate_window"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid validate rate window: %w", err)
	}

	completeWindow, err := time.ParseDuration(v.GetString("complete_rate_window"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid complete rate window: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		JWTSecret:              v.GetString("jwt.secret"),
		AccessTokenTTL:         ttl,
		CodeExpiryDefaultHours: v.GetInt("code_expiry_default_hours"),
		CodeExpiryMaxHours:     v.GetInt("code_expiry_max_hours"),
		ValidateRateLimit:      v.GetInt("validate_rate_limit"),
		ValidateRateWindow:     validateWindow,
		CompleteRateLimit:      v.GetInt("complete_rate_limit"),
		CompleteRateWindow:     completeWindow,
		EmailFromName:          v.GetString("email.from_name"),
		EmailFromAddress:       v.GetString("email.from_address"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.CodeExpiryDefaultHours <= 0 {
		cfg.CodeExpiryDefaultHours = 72
	}

	if cfg.CodeExpiryMaxHours < cfg.CodeExpiryDefaultHours {
		cfg.CodeExpiryMaxHours = cfg.CodeExpiryDefaultHours
	}

	return cfg, nil
}
