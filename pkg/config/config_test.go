package config

import (
	"testing"
	"time"

	"github.com/complyscan/complyscan/pkg/observability"
	"github.com/complyscan/complyscan/pkg/plan"
)

// TestGetEnv tests the getEnv helper function
func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
	}{
		{
			name:         "returns env value when set",
			key:          "TEST_VAR",
			defaultValue: "default",
			envValue:     "custom",
			want:         "custom",
		},
		{
			name:         "returns default when env not set",
			key:          "TEST_VAR_NOT_SET",
			defaultValue: "default",
			envValue:     "",
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv(tt.key, tt.envValue)
			}
			if got := getEnv(tt.key, tt.defaultValue); got != tt.want {
				t.Errorf("getEnv(%q, %q) = %q, want %q", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue bool
		want         bool
	}{
		{"true string", "true", false, true},
		{"one string", "1", false, true},
		{"false string", "false", true, false},
		{"unset uses default", "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv("TEST_BOOL_VAR", tt.envValue)
			}
			if got := getEnvBool("TEST_BOOL_VAR", tt.defaultValue); got != tt.want {
				t.Errorf("getEnvBool = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("TEST_DUR_VAR", "45s")
	if got := getEnvDuration("TEST_DUR_VAR", time.Second); got != 45*time.Second {
		t.Errorf("getEnvDuration = %v, want 45s", got)
	}
	if got := getEnvDuration("TEST_DUR_UNSET", 2*time.Minute); got != 2*time.Minute {
		t.Errorf("getEnvDuration = %v, want default 2m", got)
	}
	t.Setenv("TEST_DUR_BAD", "soon")
	if got := getEnvDuration("TEST_DUR_BAD", time.Second); got != time.Second {
		t.Errorf("getEnvDuration with invalid value = %v, want default 1s", got)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Environment != EnvDevelopment {
		t.Errorf("Environment = %q, want development", cfg.Environment)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("Server.Port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Server.HealthPort != "9090" {
		t.Errorf("Server.HealthPort = %q, want 9090", cfg.Server.HealthPort)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 15s", cfg.Server.ReadTimeout)
	}
	if cfg.Observability.LogLevel != observability.InfoLevel {
		t.Errorf("LogLevel = %v, want info", cfg.Observability.LogLevel)
	}
	if !cfg.Observability.MetricsEnabled {
		t.Error("MetricsEnabled = false, want true")
	}
	if !cfg.IsDevelopment() {
		t.Error("IsDevelopment() = false, want true")
	}
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("COMPLYSCAN_ENV", "production")
	t.Setenv("COMPLYSCAN_SIGNING_SECRET", "prod-secret")
	t.Setenv("COMPLYSCAN_PORT", "8443")
	t.Setenv("COMPLYSCAN_REDIS_ADDR", "redis:6379")
	t.Setenv("COMPLYSCAN_LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Environment != EnvProduction {
		t.Errorf("Environment = %q, want production", cfg.Environment)
	}
	if cfg.Server.Port != "8443" {
		t.Errorf("Server.Port = %q, want 8443", cfg.Server.Port)
	}
	if cfg.Redis.Addr != "redis:6379" {
		t.Errorf("Redis.Addr = %q, want redis:6379", cfg.Redis.Addr)
	}
	if cfg.Observability.LogLevel != observability.DebugLevel {
		t.Errorf("LogLevel = %v, want debug", cfg.Observability.LogLevel)
	}
}

func TestValidateRejectsMissingSecretOutsideDevelopment(t *testing.T) {
	t.Setenv("COMPLYSCAN_ENV", "production")

	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() in production without signing secret should fail")
	}
}

func TestValidateRejectsUnknownEnvironment(t *testing.T) {
	t.Setenv("COMPLYSCAN_ENV", "qa")

	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() with unknown environment should fail")
	}
}

func TestValidateRejectsMatchingPorts(t *testing.T) {
	t.Setenv("COMPLYSCAN_PORT", "8080")
	t.Setenv("COMPLYSCAN_HEALTH_PORT", "8080")

	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() with matching ports should fail")
	}
}

func TestValidateRequiresWebhookSecretWithStripe(t *testing.T) {
	t.Setenv("COMPLYSCAN_STRIPE_KEY", "sk_test_123")

	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() with Stripe key but no webhook secret should fail")
	}
}

func TestTierPrices(t *testing.T) {
	billing := BillingConfig{
		CompliancePriceID: "price_comp",
		EnterprisePriceID: "price_ent",
	}
	prices := billing.TierPrices()
	if prices[plan.TierCompliance] != "price_comp" {
		t.Errorf("compliance price = %q, want price_comp", prices[plan.TierCompliance])
	}
	if prices[plan.TierEnterprise] != "price_ent" {
		t.Errorf("enterprise price = %q, want price_ent", prices[plan.TierEnterprise])
	}

	if got := (BillingConfig{}).TierPrices(); len(got) != 0 {
		t.Errorf("empty billing config produced %d prices, want 0", len(got))
	}
}
