package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/complyscan/complyscan/pkg/observability"
	"github.com/complyscan/complyscan/pkg/plan"
)

// Environment names the deployment environment.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// Config holds all application configuration
type Config struct {
	Environment Environment

	// Server configuration
	Server ServerConfig

	// Auth configuration
	Auth AuthConfig

	// Redis backing for rate limits and credits; empty addr means
	// in-process stores.
	Redis RedisConfig

	// Billing provider configuration
	Billing BillingConfig

	// Fix generator configuration
	Fixes FixesConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// AuthConfig holds token signing configuration
type AuthConfig struct {
	// SigningSecret signs HS256 tokens. Empty falls back to the
	// built-in development secret, which Validate rejects outside
	// development.
	SigningSecret string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// BillingConfig holds payment provider configuration
type BillingConfig struct {
	StripeKey           string
	StripeWebhookSecret string

	// Price IDs for the paid tiers.
	CompliancePriceID string
	EnterprisePriceID string
}

// TierPrices maps paid tiers to their provider price IDs.
func (c BillingConfig) TierPrices() map[plan.Tier]string {
	prices := make(map[plan.Tier]string, 2)
	if c.CompliancePriceID != "" {
		prices[plan.TierCompliance] = c.CompliancePriceID
	}
	if c.EnterprisePriceID != "" {
		prices[plan.TierEnterprise] = c.EnterprisePriceID
	}
	return prices
}

// FixesConfig holds fix generator configuration
type FixesConfig struct {
	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Environment: Environment(getEnv("COMPLYSCAN_ENV", string(EnvDevelopment))),
		Server:      loadServerConfig(),
		Auth: AuthConfig{
			SigningSecret: getEnv("COMPLYSCAN_SIGNING_SECRET", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("COMPLYSCAN_REDIS_ADDR", ""),
			Password: getEnv("COMPLYSCAN_REDIS_PASSWORD", ""),
			DB:       getEnvInt("COMPLYSCAN_REDIS_DB", 0),
		},
		Billing: BillingConfig{
			StripeKey:           getEnv("COMPLYSCAN_STRIPE_KEY", ""),
			StripeWebhookSecret: getEnv("COMPLYSCAN_STRIPE_WEBHOOK_SECRET", ""),
			CompliancePriceID:   getEnv("COMPLYSCAN_STRIPE_COMPLIANCE_PRICE", ""),
			EnterprisePriceID:   getEnv("COMPLYSCAN_STRIPE_ENTERPRISE_PRICE", ""),
		},
		Fixes: FixesConfig{
			OpenAIKey:     getEnv("COMPLYSCAN_OPENAI_KEY", ""),
			OpenAIBaseURL: getEnv("COMPLYSCAN_OPENAI_BASE_URL", ""),
			OpenAIModel:   getEnv("COMPLYSCAN_OPENAI_MODEL", ""),
		},
		Observability: ObservabilityConfig{
			LogLevel:       observability.ParseLogLevel(getEnv("COMPLYSCAN_LOG_LEVEL", "info")),
			MetricsEnabled: getEnvBool("COMPLYSCAN_METRICS_ENABLED", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("COMPLYSCAN_HOST", "0.0.0.0"),
		Port:            getEnv("COMPLYSCAN_PORT", "8080"),
		ReadTimeout:     getEnvDuration("COMPLYSCAN_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("COMPLYSCAN_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("COMPLYSCAN_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("COMPLYSCAN_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("COMPLYSCAN_HEALTH_PORT", "9090"),
	}
}

// IsDevelopment reports whether the deployment environment is development.
func (c *Config) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Environment {
	case EnvDevelopment, EnvStaging, EnvProduction:
	default:
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.Environment)
	}

	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	// The development fallback secret never leaves development.
	if !c.IsDevelopment() && c.Auth.SigningSecret == "" {
		return fmt.Errorf("COMPLYSCAN_SIGNING_SECRET is required outside development")
	}

	if c.Billing.StripeKey != "" && c.Billing.StripeWebhookSecret == "" {
		return fmt.Errorf("COMPLYSCAN_STRIPE_WEBHOOK_SECRET is required when Stripe is configured")
	}
	if !c.IsDevelopment() && c.Billing.StripeKey != "" {
		if c.Billing.CompliancePriceID == "" || c.Billing.EnterprisePriceID == "" {
			return fmt.Errorf("Stripe price IDs for both paid tiers are required outside development")
		}
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
