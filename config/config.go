// Package config loads and saves backtest configuration files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/strategies"
	"gopkg.in/yaml.v3"
)

// Config represents a complete backtest configuration file
type Config struct {
	Backtest   BacktestConfig   `json:"backtest" yaml:"backtest"`
	Data       DataConfig       `json:"data" yaml:"data"`
	Strategies []StrategyConfig `json:"strategies" yaml:"strategies"`
	Journal    JournalConfig    `json:"journal" yaml:"journal"`
}

// BacktestConfig holds the run parameters. Dates are YYYY-MM-DD.
type BacktestConfig struct {
	Mode              string  `json:"mode" yaml:"mode"`
	StartDate         string  `json:"start_date" yaml:"start_date"`
	EndDate           string  `json:"end_date" yaml:"end_date"`
	InitialCapital    float64 `json:"initial_capital" yaml:"initial_capital"`
	CommissionRate    float64 `json:"commission_rate" yaml:"commission_rate"`
	SlippageRate      float64 `json:"slippage_rate" yaml:"slippage_rate"`
	MinTradeAmount    float64 `json:"min_trade_amount" yaml:"min_trade_amount"`
	MaxPositions      int     `json:"max_positions" yaml:"max_positions"`
	PositionSizeRatio float64 `json:"position_size_ratio" yaml:"position_size_ratio"`
	StopLossRate      float64 `json:"stop_loss_rate" yaml:"stop_loss_rate"`
	TakeProfitRate    float64 `json:"take_profit_rate" yaml:"take_profit_rate"`
	MaxDrawdownLimit  float64 `json:"max_drawdown_limit" yaml:"max_drawdown_limit"`
	RiskFreeRate      float64 `json:"risk_free_rate" yaml:"risk_free_rate"`
	NumSimulations    int     `json:"num_simulations" yaml:"num_simulations"`
	WindowCount       int     `json:"window_count" yaml:"window_count"`
	MinHistory        int     `json:"min_history" yaml:"min_history"`
	AllowPyramiding   bool    `json:"allow_pyramiding" yaml:"allow_pyramiding"`
	CloseAtEnd        bool    `json:"close_at_end" yaml:"close_at_end"`
	Seed              int64   `json:"seed" yaml:"seed"`
}

// DataConfig says where bars come from. With no bars_file the run uses a
// seeded synthetic random walk over the listed symbols.
type DataConfig struct {
	BarsFile string   `json:"bars_file,omitempty" yaml:"bars_file,omitempty"`
	Symbols  []string `json:"symbols" yaml:"symbols"`
}

// StrategyConfig names a registered signal source and its parameters
type StrategyConfig struct {
	Name   string            `json:"name" yaml:"name"`
	Params strategies.Params `json:"params,omitempty" yaml:"params,omitempty"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv", "sqlite" or "none"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LoadFromFile loads configuration from a file (YAML, falling back to JSON)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := fileDefaults()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = fileDefaults()
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

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
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

// Validate checks the file-level settings and then the run parameters.
func (c *Config) Validate() error {
	if len(c.Strategies) == 0 {
		return fmt.Errorf("at least one strategy is required")
	}
	for i, s := range c.Strategies {
		if _, err := strategies.New(s.Name, s.Params); err != nil {
			return fmt.Errorf("strategies[%d]: %w", i, err)
		}
	}

	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal trades_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite' or 'none'")
	}

	bc, err := c.ToBacktest()
	if err != nil {
		return err
	}
	return bc.Validate()
}

// ToBacktest converts the file settings into a run configuration.
func (c *Config) ToBacktest() (backtest.Config, error) {
	b := c.Backtest

	mode, err := backtest.ParseMode(b.Mode)
	if err != nil {
		return backtest.Config{}, err
	}
	start, err := market.ParseDate(b.StartDate)
	if err != nil {
		return backtest.Config{}, fmt.Errorf("backtest.start_date: %w", err)
	}
	end, err := market.ParseDate(b.EndDate)
	if err != nil {
		return backtest.Config{}, fmt.Errorf("backtest.end_date: %w", err)
	}

	return backtest.Config{
		Mode:              mode,
		Start:             start,
		End:               end,
		Symbols:           c.Data.Symbols,
		InitialCapital:    b.InitialCapital,
		CommissionRate:    b.CommissionRate,
		SlippageRate:      b.SlippageRate,
		MinTradeAmount:    b.MinTradeAmount,
		MaxPositions:      b.MaxPositions,
		PositionSizeRatio: b.PositionSizeRatio,
		StopLossRate:      b.StopLossRate,
		TakeProfitRate:    b.TakeProfitRate,
		MaxDrawdownLimit:  b.MaxDrawdownLimit,
		RiskFreeRate:      b.RiskFreeRate,
		NumSimulations:    b.NumSimulations,
		WindowCount:       b.WindowCount,
		MinHistory:        b.MinHistory,
		AllowPyramiding:   b.AllowPyramiding,
		CloseAtEnd:        b.CloseAtEnd,
		Seed:              b.Seed,
	}, nil
}

// Sources builds the configured signal sources.
func (c *Config) Sources() ([]strategies.Source, error) {
	out := make([]strategies.Source, 0, len(c.Strategies))
	for _, s := range c.Strategies {
		src, err := strategies.New(s.Name, s.Params)
		if err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	d := backtest.DefaultConfig()
	return &Config{
		Backtest: BacktestConfig{
			Mode:              string(d.Mode),
			StartDate:         market.FormatDate(d.Start),
			EndDate:           market.FormatDate(d.End),
			InitialCapital:    d.InitialCapital,
			CommissionRate:    d.CommissionRate,
			SlippageRate:      d.SlippageRate,
			MinTradeAmount:    d.MinTradeAmount,
			MaxPositions:      d.MaxPositions,
			PositionSizeRatio: d.PositionSizeRatio,
			StopLossRate:      d.StopLossRate,
			TakeProfitRate:    d.TakeProfitRate,
			MaxDrawdownLimit:  d.MaxDrawdownLimit,
			RiskFreeRate:      d.RiskFreeRate,
			NumSimulations:    d.NumSimulations,
			WindowCount:       d.WindowCount,
			MinHistory:        d.MinHistory,
			CloseAtEnd:        d.CloseAtEnd,
			Seed:              d.Seed,
		},
		Data: DataConfig{
			Symbols: []string{"AAA"},
		},
		Strategies: []StrategyConfig{
			{Name: "ma-cross", Params: strategies.Params{"fast": 5, "slow": 20}},
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./backtest.sqlite",
		},
	}
}

// fileDefaults is the base a loaded file is decoded onto. Run parameters
// the file leaves out keep their defaults; the strategy list, data and
// journal sections come from the file alone.
func fileDefaults() *Config {
	return &Config{Backtest: Default().Backtest}
}
