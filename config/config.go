package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete engine configuration.
type Config struct {
	Account  AccountConfig  `json:"account" yaml:"account"`
	Leverage LeverageConfig `json:"leverage" yaml:"leverage"`
	Monitor  MonitorConfig  `json:"monitor" yaml:"monitor"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
	Demo     DemoConfig     `json:"demo,omitempty" yaml:"demo,omitempty"`
}

// AccountConfig contains the capital ceiling for the engine.
type AccountConfig struct {
	ID       string  `json:"id" yaml:"id"`
	Currency string  `json:"currency" yaml:"currency"`
	Capital  float64 `json:"capital" yaml:"capital"`
}

// LeverageConfig contains the dynamic leverage policy parameters.
type LeverageConfig struct {
	DefaultBase int            `json:"default_base" yaml:"default_base"`
	Min         int            `json:"min" yaml:"min"`
	Max         int            `json:"max" yaml:"max"`
	HighVol     float64        `json:"high_vol" yaml:"high_vol"`
	LowVol      float64        `json:"low_vol" yaml:"low_vol"`
	Base        map[string]int `json:"base,omitempty" yaml:"base,omitempty"`
}

// MonitorConfig contains the execution monitor parameters.
type MonitorConfig struct {
	PollInterval    string `json:"poll_interval" yaml:"poll_interval"`       // e.g. "5s"
	MaxAttempts     int    `json:"max_attempts" yaml:"max_attempts"`         // poll budget per order
	RefreshInterval string `json:"refresh_interval" yaml:"refresh_interval"` // position mark-price refresh
}

// ParsePollInterval converts the poll interval string to time.Duration.
func (m MonitorConfig) ParsePollInterval() (time.Duration, error) {
	return time.ParseDuration(m.PollInterval)
}

// ParseRefreshInterval converts the refresh interval string to time.Duration.
func (m MonitorConfig) ParseRefreshInterval() (time.Duration, error) {
	return time.ParseDuration(m.RefreshInterval)
}

// JournalConfig contains journaling parameters.
type JournalConfig struct {
	Type        string `json:"type" yaml:"type"` // "csv", "sqlite" or "none"
	TradesFile  string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	CapitalFile string `json:"capital_file,omitempty" yaml:"capital_file,omitempty"`
	DBPath      string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// DemoConfig drives the scripted venue used by `levtrader run`.
type DemoConfig struct {
	Symbol       string      `json:"symbol" yaml:"symbol"`
	InitialPrice float64     `json:"initial_price" yaml:"initial_price"`
	DailyChange  float64     `json:"daily_change" yaml:"daily_change"`
	FeeRate      float64     `json:"fee_rate" yaml:"fee_rate"`
	TradeCapital float64     `json:"trade_capital" yaml:"trade_capital"`
	PriceSteps   []PriceStep `json:"price_steps,omitempty" yaml:"price_steps,omitempty"`
}

// PriceStep represents a price update in the demo run.
type PriceStep struct {
	Price float64 `json:"price" yaml:"price"`
	Delay string  `json:"delay" yaml:"delay"` // e.g. "1s", "500ms"
}

// ParseDuration converts the delay string to time.Duration.
func (ps PriceStep) ParseDuration() (time.Duration, error) {
	if ps.Delay == "" {
		return 0, nil
	}
	return time.ParseDuration(ps.Delay)
}

// LoadFromFile loads configuration from a file (JSON or YAML based on content).
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

// SaveToFile saves configuration to a file (JSON or YAML based on extension).
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

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Account.Currency == "" {
		return fmt.Errorf("account.currency is required")
	}
	if c.Account.Capital <= 0 {
		return fmt.Errorf("account.capital must be positive")
	}
	if c.Leverage.DefaultBase < 1 {
		return fmt.Errorf("leverage.default_base must be at least 1")
	}
	if c.Leverage.Min < 1 {
		return fmt.Errorf("leverage.min must be at least 1")
	}
	if c.Leverage.Max < c.Leverage.Min {
		return fmt.Errorf("leverage.max must be >= leverage.min")
	}
	if c.Leverage.HighVol <= c.Leverage.LowVol {
		return fmt.Errorf("leverage.high_vol must be greater than leverage.low_vol")
	}
	if _, err := c.Monitor.ParsePollInterval(); err != nil {
		return fmt.Errorf("monitor.poll_interval: %w", err)
	}
	if c.Monitor.MaxAttempts <= 0 {
		return fmt.Errorf("monitor.max_attempts must be positive")
	}
	if _, err := c.Monitor.ParseRefreshInterval(); err != nil {
		return fmt.Errorf("monitor.refresh_interval: %w", err)
	}
	switch c.Journal.Type {
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.CapitalFile == "" {
			return fmt.Errorf("journal trades_file and capital_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	case "none":
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite' or 'none'")
	}
	return nil
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			ID:       "DEMO-001",
			Currency: "USDT",
			Capital:  12.00,
		},
		Leverage: LeverageConfig{
			DefaultBase: 10,
			Min:         1,
			Max:         50,
			HighVol:     0.10,
			LowVol:      0.02,
		},
		Monitor: MonitorConfig{
			PollInterval:    "5s",
			MaxAttempts:     120,
			RefreshInterval: "30s",
		},
		Journal: JournalConfig{
			Type:        "csv",
			TradesFile:  "./trades.csv",
			CapitalFile: "./capital.csv",
		},
		Demo: DemoConfig{
			Symbol:       "BTCUSDT",
			InitialPrice: 100,
			DailyChange:  0.01,
			FeeRate:      0.0006,
			TradeCapital: 5.00,
		},
	}
}
