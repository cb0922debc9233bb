// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package config loads service configuration. Defaults are overridden by an
// optional YAML file, which is overridden by GOVERNANCE_* environment
// variables.
package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all tunables for the governance service.
type Config struct {
	ListenAddr  string `yaml:"listen_addr" envconfig:"LISTEN_ADDR"`
	DatabaseURL string `yaml:"database_url" envconfig:"DATABASE_URL"`

	AuditLogPath     string `yaml:"audit_log_path" envconfig:"AUDIT_LOG_PATH"`
	AuditMaxFileMB   int64  `yaml:"audit_max_file_mb" envconfig:"AUDIT_MAX_FILE_MB"`
	AuditRingEntries int    `yaml:"audit_ring_entries" envconfig:"AUDIT_RING_ENTRIES"`

	DailyBudgetUSD    float64 `yaml:"daily_budget_usd" envconfig:"DAILY_BUDGET_USD"`
	ReviewExpiryHours int     `yaml:"review_expiry_hours" envconfig:"REVIEW_EXPIRY_HOURS"`

	AgentProfilesPath string `yaml:"agent_profiles_path" envconfig:"AGENT_PROFILES_PATH"`
}

// Defaults returns the baseline configuration.
func Defaults() Config {
	return Config{
		ListenAddr:        ":8085",
		AuditLogPath:      "governance-audit.log",
		AuditMaxFileMB:    50,
		AuditRingEntries:  500,
		DailyBudgetUSD:    25.0,
		ReviewExpiryHours: 72,
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// the environment, in that order of precedence.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := envconfig.Process("GOVERNANCE", &cfg); err != nil {
		return cfg, fmt.Errorf("failed to process environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.AuditLogPath == "" {
		return fmt.Errorf("audit_log_path is required")
	}
	if c.AuditMaxFileMB <= 0 {
		return fmt.Errorf("audit_max_file_mb must be positive")
	}
	if c.AuditRingEntries <= 0 {
		return fmt.Errorf("audit_ring_entries must be positive")
	}
	if c.ReviewExpiryHours <= 0 {
		return fmt.Errorf("review_expiry_hours must be positive")
	}
	return nil
}
