// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package config

import "time"

// Config holds all application configuration loaded from environment
// variables, parsed with github.com/caarlos0/env.
type Config struct {
	// Server configuration
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8000"`
	MetricsPort int    `env:"METRICS_PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"dev"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"retention-engine"`

	// Postgres configuration (REQUIRED)
	PostgresDSN string `env:"POSTGRES_DSN,required"`

	// Redis configuration
	RedisHost       string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort       string `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword   string `env:"REDIS_PASSWORD"`
	RedisMaxRetries uint64 `env:"REDIS_MAX_RETRIES" envDefault:"5"`

	// Campaign catalog seed file
	CatalogPath string `env:"CATALOG_PATH" envDefault:"config/campaigns.yaml"`

	// Sweep cadences
	AtRiskInterval   time.Duration `env:"AT_RISK_SWEEP_INTERVAL" envDefault:"30m"`
	CampaignInterval time.Duration `env:"CAMPAIGN_SWEEP_INTERVAL" envDefault:"1h"`
	RefreshInterval  time.Duration `env:"STATE_REFRESH_INTERVAL" envDefault:"5m"`

	// Player lifecycle
	InactiveAfter  time.Duration `env:"INACTIVE_AFTER" envDefault:"24h"`
	ChurnAfterDays int           `env:"CHURN_AFTER_DAYS" envDefault:"30"`

	// Risk classification thresholds
	HighRiskThreshold   float64 `env:"HIGH_RISK_THRESHOLD" envDefault:"0.8"`
	MediumRiskThreshold float64 `env:"MEDIUM_RISK_THRESHOLD" envDefault:"0.5"`

	// Dispatch
	DispatchTimeout time.Duration `env:"DISPATCH_TIMEOUT" envDefault:"10s"`

	// Telemetry configuration
	OtelEnabled     bool   `env:"OTEL_ENABLED" envDefault:"true"`
	OtelEndpoint    string `env:"OTEL_EXPORTER_ZIPKIN_ENDPOINT"`
	OtelServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"retention-engine"`
}
