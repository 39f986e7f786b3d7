// Package config provides configuration management for the analysis toolkit.
package config

import (
	"fmt"
	"os"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

const (
	// defaultDaysPerYear is used when analysis.num_days_year is unset
	defaultDaysPerYear = 252
	// defaultWeightPeriod is used when analysis.weighting.period is unset
	defaultWeightPeriod = 252
)

// Config represents the complete application configuration.
type Config struct {
	Environment EnvironmentConfig `yaml:"environment"`
	Market      MarketConfig      `yaml:"market"`
	Analysis    AnalysisConfig    `yaml:"analysis"`
	Storage     StorageConfig     `yaml:"storage"`
}

// EnvironmentConfig defines the environment settings.
type EnvironmentConfig struct {
	Mode     string `yaml:"mode"`      // live | offline
	LogLevel string `yaml:"log_level"` // debug | info | warn | error
}

// MarketConfig defines market data API settings.
type MarketConfig struct {
	APIKey      string `yaml:"api_key"`
	APIEndpoint string `yaml:"api_endpoint"`
}

// AnalysisConfig defines the simulation and ranking parameters.
type AnalysisConfig struct {
	Symbol             string          `yaml:"symbol"`
	NumDaysYear        int             `yaml:"num_days_year"`
	FixedCommission    float64         `yaml:"fixed_commission"`
	ContractCommission float64         `yaml:"contract_commission"`
	CallSellMax        int             `yaml:"call_sell_max"`
	PutSellMax         int             `yaml:"put_sell_max"`
	InMoneyThreshold   float64         `yaml:"in_money_threshold"`
	SegmentWidth       float64         `yaml:"segment_width"`
	MaxPerSegment      int             `yaml:"max_per_segment"`
	Weighting          WeightingConfig `yaml:"weighting"`
}

// WeightingConfig controls recency weighting of projected prices. When
// disabled every projected price counts equally.
type WeightingConfig struct {
	Enabled    bool    `yaml:"enabled"`
	BaseWeight float64 `yaml:"base_weight"`
	WeightGain float64 `yaml:"weight_gain"`
	Period     int     `yaml:"period"`
}

// StorageConfig defines where snapshots and results land.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// Load reads and parses the configuration file from the specified path.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- configPath is a user-provided config file path
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var config Config
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&config); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Validate checks that all configuration values are valid and consistent.
func (c *Config) Validate() error {
	c.normalize()

	if c.Environment.Mode != "live" && c.Environment.Mode != "offline" {
		return fmt.Errorf("environment.mode must be 'live' or 'offline'")
	}
	if c.Environment.Mode == "live" && c.Market.APIKey == "" {
		return fmt.Errorf("market.api_key is required in live mode")
	}

	if c.Analysis.Symbol == "" {
		return fmt.Errorf("analysis.symbol is required")
	}
	if c.Analysis.NumDaysYear <= 0 {
		return fmt.Errorf("analysis.num_days_year must be > 0")
	}
	if c.Analysis.FixedCommission < 0 || c.Analysis.ContractCommission < 0 {
		return fmt.Errorf("analysis commissions must be >= 0")
	}
	if c.Analysis.CallSellMax < 0 || c.Analysis.PutSellMax < 0 {
		return fmt.Errorf("analysis.call_sell_max and analysis.put_sell_max must be >= 0")
	}
	if c.Analysis.CallSellMax == 0 && c.Analysis.PutSellMax == 0 {
		return fmt.Errorf("at least one of analysis.call_sell_max, analysis.put_sell_max must be > 0")
	}
	if c.Analysis.InMoneyThreshold < 0 || c.Analysis.InMoneyThreshold >= 100 {
		return fmt.Errorf("analysis.in_money_threshold must be in [0, 100)")
	}
	if c.Analysis.SegmentWidth <= 0 {
		return fmt.Errorf("analysis.segment_width must be > 0")
	}
	if c.Analysis.MaxPerSegment <= 0 {
		return fmt.Errorf("analysis.max_per_segment must be > 0")
	}

	if c.Analysis.Weighting.Enabled {
		if c.Analysis.Weighting.BaseWeight <= 0 {
			return fmt.Errorf("analysis.weighting.base_weight must be > 0 when weighting is enabled")
		}
		if c.Analysis.Weighting.WeightGain < 0 {
			return fmt.Errorf("analysis.weighting.weight_gain must be >= 0")
		}
	}

	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}

	return nil
}

// IsOffline returns true when the toolkit should run against the synthetic
// data provider instead of the live feed.
func (c *Config) IsOffline() bool {
	return c.Environment.Mode == "offline"
}

// normalize fills defaults for optional analysis settings.
func (c *Config) normalize() {
	if c.Analysis.NumDaysYear == 0 {
		c.Analysis.NumDaysYear = defaultDaysPerYear
	}
	if c.Analysis.Weighting.Period == 0 {
		c.Analysis.Weighting.Period = defaultWeightPeriod
	}
}
