// Package config defines the market maker's configuration surface. Config
// is loaded from a YAML file with sensitive fields overridable via MM_*
// environment variables, using viper.New + SetEnvPrefix + SetEnvKeyReplacer
// + AutomaticEnv, mapstructure tags mirroring the YAML shape, and a
// Validate pass kept separate from Load.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level configuration, mapping directly onto the YAML
// file structure.
type Config struct {
	Strategy  StrategyConfig  `mapstructure:"strategy"`
	Risk      RiskConfig      `mapstructure:"risk"`
	Feature   FeatureConfig   `mapstructure:"feature"`
	Gateway   GatewayConfig   `mapstructure:"gateway"`
	Store     StoreConfig     `mapstructure:"store"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// StrategyConfig selects and tunes the quoting strategy.
//
//   - Kind: "naive" or "ev", the two reference strategy implementations.
//   - SpreadTicks: NaiveFixedSpread's full bid-ask spread, in price ticks.
//   - MaxHalfSpreadTicks/SkewK/TickSearchStep: EVMakerSkew's edge search
//     and inventory-skew parameters.
//   - OrderSize: quote size submitted on each side.
//   - MaxAbsInventory: risk guard rail — once |inventory| reaches this, the
//     growing side stops quoting (0 disables the guard rail).
type StrategyConfig struct {
	Kind               string        `mapstructure:"kind"`
	SpreadTicks        int64         `mapstructure:"spread_ticks"`
	MaxHalfSpreadTicks float64       `mapstructure:"max_half_spread_ticks"`
	SkewK              float64       `mapstructure:"skew_k"`
	TickSearchStep     float64       `mapstructure:"tick_search_step"`
	OrderSize          string        `mapstructure:"order_size"`
	MaxAbsInventory    string        `mapstructure:"max_abs_inventory"`
	RefreshInterval    time.Duration `mapstructure:"refresh_interval"`
}

// RiskConfig holds risk limits loaded from the config file. Nothing in this
// repository reads it; the inventory guard rail in effect is
// StrategyConfig.MaxAbsInventory.
type RiskConfig struct {
	MaxAbsInventory string `mapstructure:"max_abs_inventory"`
}

// FeatureConfig tunes the Feature Extractor.
type FeatureConfig struct {
	VolatilityWindow int `mapstructure:"volatility_window"`
}

// GatewayConfig holds live-trading exchange credentials and the paper
// dry-run switch.
type GatewayConfig struct {
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
	Paper     bool   `mapstructure:"paper"`
}

// StoreConfig sets where fills/state are persisted.
type StoreConfig struct {
	FillLogPath string `mapstructure:"fill_log_path"`
	RedisURL    string `mapstructure:"redis_url"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig holds Prometheus scrape endpoint settings. The marketmaker
// commands do not read it and do not serve a scrape endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// Load reads config from a YAML file at path, with MM_* environment
// variable overrides for sensitive fields.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("MM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if key := os.Getenv("MM_API_KEY"); key != "" {
		cfg.Gateway.APIKey = key
	}
	if secret := os.Getenv("MM_API_SECRET"); secret != "" {
		cfg.Gateway.APISecret = secret
	}
	if os.Getenv("MM_PAPER") == "true" || os.Getenv("MM_PAPER") == "1" {
		cfg.Gateway.Paper = true
	}

	return &cfg, nil
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	switch c.Strategy.Kind {
	case "naive", "ev":
	default:
		return fmt.Errorf("config: strategy.kind must be one of: naive, ev")
	}
	if c.Feature.VolatilityWindow <= 0 {
		return fmt.Errorf("config: feature.volatility_window must be > 0")
	}
	if !c.Gateway.Paper {
		if c.Gateway.APIKey == "" {
			return fmt.Errorf("config: gateway.api_key is required unless gateway.paper is set (or MM_API_KEY)")
		}
		if c.Gateway.APISecret == "" {
			return fmt.Errorf("config: gateway.api_secret is required unless gateway.paper is set (or MM_API_SECRET)")
		}
	}
	return nil
}
