// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Load reads configuration from environment variables.
// It attempts to load from .env file first (for local development),
// then parses environment variables into the Config struct.
func Load() (*Config, error) {
	// In production (Docker/K8s), environment variables are injected directly
	if err := godotenv.Load(); err != nil {
		logrus.Warnf("no .env file found or error loading it: %v (this is normal in production)", err)
	} else {
		logrus.Infof("loaded environment variables from .env file")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config from environment: %w", err)
	}

	return cfg, nil
}

// Validate performs custom validation on the configuration.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP_PORT: %d (must be 1-65535)", c.HTTPPort)
	}
	if c.MetricsPort < 1 || c.MetricsPort > 65535 {
		return fmt.Errorf("invalid METRICS_PORT: %d (must be 1-65535)", c.MetricsPort)
	}

	if c.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required")
	}

	if c.AtRiskInterval <= 0 || c.CampaignInterval <= 0 || c.RefreshInterval <= 0 {
		return fmt.Errorf("sweep intervals must be positive")
	}
	if c.ChurnAfterDays < 1 {
		return fmt.Errorf("CHURN_AFTER_DAYS must be at least 1")
	}

	if c.HighRiskThreshold <= c.MediumRiskThreshold {
		return fmt.Errorf("HIGH_RISK_THRESHOLD (%v) must exceed MEDIUM_RISK_THRESHOLD (%v)",
			c.HighRiskThreshold, c.MediumRiskThreshold)
	}
	if c.MediumRiskThreshold < 0 || c.HighRiskThreshold > 1 {
		return fmt.Errorf("risk thresholds must lie in [0, 1]")
	}

	if c.DispatchTimeout <= 0 {
		return fmt.Errorf("DISPATCH_TIMEOUT must be positive")
	}

	return nil
}
