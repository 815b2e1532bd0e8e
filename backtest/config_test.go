package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mod     func(*Config)
		wantErr bool
		errMsg  string
	}{
		{name: "defaults with a symbol", mod: func(c *Config) {}},
		{name: "no symbols", mod: func(c *Config) { c.Symbols = nil }, wantErr: true, errMsg: "symbols"},
		{name: "blank symbol", mod: func(c *Config) { c.Symbols = []string{"AAA", ""} }, wantErr: true, errMsg: "symbols[1] is required"},
		{name: "zero capital", mod: func(c *Config) { c.InitialCapital = 0 }, wantErr: true, errMsg: "initial_capital must be greater than 0"},
		{name: "negative commission", mod: func(c *Config) { c.CommissionRate = -0.1 }, wantErr: true, errMsg: "commission_rate must be at least 0"},
		{name: "commission of one", mod: func(c *Config) { c.CommissionRate = 1 }, wantErr: true, errMsg: "commission_rate must be below 1"},
		{name: "costs sum to one", mod: func(c *Config) { c.CommissionRate = 0.6; c.SlippageRate = 0.4 }, wantErr: true, errMsg: "commission_rate + slippage_rate"},
		{name: "zero position ratio", mod: func(c *Config) { c.PositionSizeRatio = 0 }, wantErr: true, errMsg: "position_size_ratio"},
		{name: "full position ratio", mod: func(c *Config) { c.PositionSizeRatio = 1 }},
		{name: "stop loss of one", mod: func(c *Config) { c.StopLossRate = 1 }, wantErr: true, errMsg: "stop_loss_rate"},
		{name: "negative max positions", mod: func(c *Config) { c.MaxPositions = -1 }, wantErr: true, errMsg: "max_positions"},
		{name: "unlimited positions", mod: func(c *Config) { c.MaxPositions = 0 }},
		{name: "end equals start", mod: func(c *Config) { c.End = c.Start }, wantErr: true, errMsg: "end_date must be after start_date"},
		{name: "end before start", mod: func(c *Config) { c.End = c.Start.AddDate(0, 0, -1) }, wantErr: true, errMsg: "end_date"},
		{name: "missing start", mod: func(c *Config) { c.Start = time.Time{} }, wantErr: true, errMsg: "start_date is required"},
		{name: "bad mode", mod: func(c *Config) { c.Mode = "intraday" }, wantErr: true, errMsg: "mode must be one of"},
		{name: "drawdown limit disabled", mod: func(c *Config) { c.MaxDrawdownLimit = 0 }},
		{name: "negative simulations", mod: func(c *Config) { c.NumSimulations = -1 }, wantErr: true, errMsg: "num_simulations"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			cfg.Symbols = []string{"AAA"}
			tt.mod(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidConfig)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigValidateReportsEveryProblem(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.InitialCapital = -1
	cfg.SlippageRate = 2
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "symbols")
	assert.Contains(t, err.Error(), "initial_capital")
	assert.Contains(t, err.Error(), "slippage_rate must be below 1")
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"single_stock", SingleStock, false},
		{"portfolio", Portfolio, false},
		{"Monte-Carlo", MonteCarlo, false},
		{" walk_forward ", WalkForward, false},
		{"daytrade", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidConfig, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestConfigDriven(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Symbols = []string{"AAA", "BBB"}
	assert.Equal(t, []string{"AAA"}, cfg.driven())

	cfg.Mode = Portfolio
	assert.Equal(t, []string{"AAA", "BBB"}, cfg.driven())

	cfg.WindowCount = 0
	assert.Equal(t, DefaultWindowCount, cfg.windows())
}
