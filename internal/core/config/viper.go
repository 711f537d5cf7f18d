package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/solatis/packgate/internal/types"
)

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence.
func LoadConfig(configPath string) (*EngineConfig, error) {
	v := viper.New()

	// Set defaults matching DefaultEngineConfig
	v.SetDefault("engine.pack_dir", "./packs")
	v.SetDefault("engine.database_url", "sqlite://packgate.db")
	v.SetDefault("engine.hybrid_mode", false)
	v.SetDefault("engine.budgets.max_total_ms", 30000)
	v.SetDefault("engine.budgets.per_comparator_timeout_ms", 5000)
	v.SetDefault("engine.budgets.max_github_api_calls", 50)
	v.SetDefault("engine.log_level", "info")
	v.SetDefault("engine.log_format", "text")
	v.SetDefault("engine.metrics_addr", "127.0.0.1:9464")
	v.SetDefault("engine.reload_debounce", "250ms")

	// Bind environment variables with PACKGATE_ prefix
	v.SetEnvPrefix("PACKGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Load config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &EngineConfig{
		PackDir:     v.GetString("engine.pack_dir"),
		DatabaseURL: v.GetString("engine.database_url"),
		HybridMode:  v.GetBool("engine.hybrid_mode"),
		Budgets: types.BudgetConfig{
			MaxTotalMs:             v.GetInt("engine.budgets.max_total_ms"),
			PerComparatorTimeoutMs: v.GetInt("engine.budgets.per_comparator_timeout_ms"),
			MaxGitHubAPICalls:      v.GetInt("engine.budgets.max_github_api_calls"),
		},
		LogLevel:       v.GetString("engine.log_level"),
		LogFormat:      v.GetString("engine.log_format"),
		MetricsAddr:    v.GetString("engine.metrics_addr"),
		ReloadDebounce: v.GetDuration("engine.reload_debounce"),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
