package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/dca/ladder"
)

const (
	DirectionLong  = "long"
	DirectionShort = "short"
)

// Config represents a complete ladder configuration
type Config struct {
	Account AccountConfig `json:"account" yaml:"account"`
	Ladder  LadderConfig  `json:"ladder" yaml:"ladder"`
	Rules   RulesConfig   `json:"rules" yaml:"rules"`
	Risk    RiskConfig    `json:"risk" yaml:"risk"`
	Journal JournalConfig `json:"journal" yaml:"journal"`
	Log     LogConfig     `json:"log" yaml:"log"`
}

// AccountConfig contains the account the ladder is sized against
type AccountConfig struct {
	Balance   float64 `json:"balance" yaml:"balance"`
	Leverage  float64 `json:"leverage" yaml:"leverage"`
	Direction string  `json:"direction" yaml:"direction"` // "long" or "short"
}

// LadderConfig contains the order policies
type LadderConfig struct {
	EntryPrice  float64                  `json:"entry_price" yaml:"entry_price"`
	TakeProfit  float64                  `json:"take_profit" yaml:"take_profit"` // %
	BaseOrder   ladder.OrderPolicy       `json:"base_order" yaml:"base_order"`
	SafetyOrder ladder.SafetyOrderPolicy `json:"safety_order" yaml:"safety_order"`
}

// RulesConfig selects the lot-size rules. When Symbol is set the rules come
// from the cache; StepSize/MinQty are used otherwise (0 means exchange default).
type RulesConfig struct {
	Symbol    string  `json:"symbol,omitempty" yaml:"symbol,omitempty"`
	StepSize  float64 `json:"step_size,omitempty" yaml:"step_size,omitempty"`
	MinQty    float64 `json:"min_qty,omitempty" yaml:"min_qty,omitempty"`
	CachePath string  `json:"cache_path" yaml:"cache_path"`
	CacheTTL  string  `json:"cache_ttl" yaml:"cache_ttl"` // e.g. "24h"
}

// RiskConfig contains limits the computed ladder is checked against
type RiskConfig struct {
	MaxBalanceUsed float64 `json:"max_balance_used" yaml:"max_balance_used"` // total margin / balance, 0.5 = 50%
	MaxDeviation   float64 `json:"max_deviation" yaml:"max_deviation"`       // deepest safety order, %
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type string `json:"type" yaml:"type"` // "", "csv" or "sqlite"
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// LogConfig contains the log level ("debug", "info", "warn", "error")
type LogConfig struct {
	Level string `json:"level" yaml:"level"`
}

// TTL parses the cache TTL, defaulting to 24h when unset.
func (r RulesConfig) TTL() (time.Duration, error) {
	if r.CacheTTL == "" {
		return 24 * time.Hour, nil
	}
	return time.ParseDuration(r.CacheTTL)
}

// Filters renders inline step/min settings as filter data.
func (r RulesConfig) Filters() ladder.Filters {
	return ladder.ExchangeRules{StepSize: r.StepSize, MinQty: r.MinQty}.Filters()
}

// Long reports whether the configured direction is long.
func (a AccountConfig) Long() bool {
	return a.Direction != DirectionShort
}

// Params builds the calculator inputs from the config and the given rules.
func (c *Config) Params(rules ladder.Filters) ladder.Params {
	return ladder.Params{
		Balance:     c.Account.Balance,
		EntryPrice:  c.Ladder.EntryPrice,
		Rules:       rules,
		BaseOrder:   c.Ladder.BaseOrder,
		SafetyOrder: c.Ladder.SafetyOrder,
		TakeProfit:  c.Ladder.TakeProfit,
		Leverage:    c.Account.Leverage,
		Short:       !c.Account.Long(),
	}
}

// LoadFromFile loads configuration from a file (YAML or JSON)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (YAML for .yaml/.yml, JSON otherwise)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Account.Balance < 0 {
		return fmt.Errorf("account.balance must not be negative")
	}
	if c.Account.Leverage <= 0 {
		return fmt.Errorf("account.leverage must be positive")
	}
	if d := c.Account.Direction; d != DirectionLong && d != DirectionShort {
		return fmt.Errorf("account.direction must be 'long' or 'short'")
	}
	if c.Ladder.EntryPrice <= 0 {
		return fmt.Errorf("ladder.entry_price must be positive")
	}
	if c.Ladder.BaseOrder.Value <= 0 {
		return fmt.Errorf("ladder.base_order.value must be positive")
	}
	if c.Ladder.BaseOrder.Type == ladder.PercentType && c.Account.Balance <= 0 {
		return fmt.Errorf("account.balance required for a percentage base order")
	}
	so := c.Ladder.SafetyOrder
	if so.Count < 0 {
		return fmt.Errorf("ladder.safety_order.count must not be negative")
	}
	if so.Count > ladder.MaxSafetyOrders {
		return fmt.Errorf("ladder.safety_order.count must not exceed %d", ladder.MaxSafetyOrders)
	}
	if so.Count > 0 {
		if so.Value <= 0 {
			return fmt.Errorf("ladder.safety_order.value must be positive")
		}
		if so.StepScale <= 0 || so.VolumeScale <= 0 {
			return fmt.Errorf("ladder.safety_order step_scale and volume_scale must be positive")
		}
		if so.PriceDev <= 0 {
			return fmt.Errorf("ladder.safety_order.price_dev must be positive")
		}
	}
	if c.Rules.StepSize < 0 || c.Rules.MinQty < 0 {
		return fmt.Errorf("rules step_size and min_qty must not be negative")
	}
	if c.Rules.Symbol != "" && c.Rules.CachePath == "" {
		return fmt.Errorf("rules.cache_path required when rules.symbol is set")
	}
	if _, err := c.Rules.TTL(); err != nil {
		return fmt.Errorf("rules.cache_ttl: %w", err)
	}
	if c.Risk.MaxBalanceUsed < 0 || c.Risk.MaxDeviation < 0 {
		return fmt.Errorf("risk limits must not be negative")
	}
	switch c.Journal.Type {
	case "":
	case "csv", "sqlite":
		if c.Journal.Path == "" {
			return fmt.Errorf("journal.path required for %s journal", c.Journal.Type)
		}
	default:
		return fmt.Errorf("journal.type must be 'csv' or 'sqlite'")
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			Balance:   1000,
			Leverage:  10,
			Direction: DirectionLong,
		},
		Ladder: LadderConfig{
			EntryPrice: 100,
			TakeProfit: 1.5,
			BaseOrder:  ladder.OrderPolicy{Value: 2, Type: ladder.PercentType},
			SafetyOrder: ladder.SafetyOrderPolicy{
				OrderPolicy: ladder.OrderPolicy{Value: 4, Type: ladder.PercentType},
				Count:       6,
				StepScale:   1.2,
				PriceDev:    1.5,
				VolumeScale: 1.5,
			},
		},
		Rules: RulesConfig{
			CachePath: "./dca-cache.sqlite",
			CacheTTL:  "24h",
		},
		Risk: RiskConfig{
			MaxBalanceUsed: 0.5,
			MaxDeviation:   30,
		},
		Journal: JournalConfig{
			Type: "sqlite",
			Path: "./dca-journal.sqlite",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
