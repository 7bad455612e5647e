// Package config provides application configuration management from environment variables.
//
// # Overview
//
// This package loads and validates configuration from environment variables with
// sensible defaults for all settings.
//
// # Configuration Structure
//
// Server settings:
//
//	COMPLYSCAN_ENV="development"   # development, staging, production
//	COMPLYSCAN_HOST="0.0.0.0"
//	COMPLYSCAN_PORT="8080"
//	COMPLYSCAN_HEALTH_PORT="9090"
//	COMPLYSCAN_READ_TIMEOUT="15s"
//	COMPLYSCAN_WRITE_TIMEOUT="15s"
//
// Auth settings:
//
//	COMPLYSCAN_SIGNING_SECRET=""   # required outside development
//
// Redis settings (empty addr selects in-process stores):
//
//	COMPLYSCAN_REDIS_ADDR="localhost:6379"
//	COMPLYSCAN_REDIS_PASSWORD=""
//	COMPLYSCAN_REDIS_DB="0"
//
// Billing settings:
//
//	COMPLYSCAN_STRIPE_KEY=""
//	COMPLYSCAN_STRIPE_WEBHOOK_SECRET=""
//	COMPLYSCAN_STRIPE_COMPLIANCE_PRICE=""
//	COMPLYSCAN_STRIPE_ENTERPRISE_PRICE=""
//
// Fix generator settings:
//
//	COMPLYSCAN_OPENAI_KEY=""
//	COMPLYSCAN_OPENAI_BASE_URL=""
//	COMPLYSCAN_OPENAI_MODEL=""
//
// Observability settings:
//
//	COMPLYSCAN_LOG_LEVEL="info"
//	COMPLYSCAN_METRICS_ENABLED="true"
package config
