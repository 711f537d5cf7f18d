// Package config provides configuration management for PackGate services.
package config

import (
	"fmt"
	"time"

	"github.com/solatis/packgate/internal/types"
)

// EngineConfig holds configuration for the pack evaluation engine and the
// watch service around it.
type EngineConfig struct {
	PackDir     string
	DatabaseURL string

	Budgets types.BudgetConfig

	HybridMode bool

	LogLevel  string
	LogFormat string

	MetricsAddr    string
	ReloadDebounce time.Duration
}

// DefaultEngineConfig returns configuration with default values.
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		PackDir:        "./packs",
		DatabaseURL:    "sqlite://packgate.db",
		Budgets:        types.DefaultBudgetConfig(),
		HybridMode:     false,
		LogLevel:       "info",
		LogFormat:      "text",
		MetricsAddr:    "127.0.0.1:9464",
		ReloadDebounce: 250 * time.Millisecond,
	}
}

// validateConfig checks budgets, log settings, and the metrics address.
func validateConfig(cfg *EngineConfig) error {
	if cfg.PackDir == "" {
		return fmt.Errorf("pack_dir must not be empty")
	}
	if cfg.Budgets.MaxTotalMs < 0 {
		return fmt.Errorf("budgets.max_total_ms must not be negative, got %d", cfg.Budgets.MaxTotalMs)
	}
	if cfg.Budgets.PerComparatorTimeoutMs <= 0 {
		return fmt.Errorf("budgets.per_comparator_timeout_ms must be positive, got %d", cfg.Budgets.PerComparatorTimeoutMs)
	}
	if cfg.Budgets.MaxGitHubAPICalls <= 0 {
		return fmt.Errorf("budgets.max_github_api_calls must be positive, got %d", cfg.Budgets.MaxGitHubAPICalls)
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error, got %q", cfg.LogLevel)
	}
	switch cfg.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", cfg.LogFormat)
	}
	if cfg.ReloadDebounce <= 0 {
		return fmt.Errorf("reload_debounce must be positive, got %v", cfg.ReloadDebounce)
	}
	return nil
}
