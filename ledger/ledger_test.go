package ledger

import (
	"testing"
	"time"

	"github.com/rustyeddy/backtester/strategies"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)

func newLedger(mod ...func(*Config)) *Ledger {
	cfg := Config{
		InitialCapital:    decimal.NewFromInt(10_000_000),
		PositionSizeRatio: 0.01,
		MaxPositions:      10,
		StopLossRate:      0.05,
		TakeProfitRate:    0.10,
	}
	for _, m := range mod {
		m(&cfg)
	}
	return New(cfg)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertIdentity(t *testing.T, l *Ledger) {
	t.Helper()
	assert.True(t, l.Equity().Equal(l.Cash().Add(l.PositionValue())))
	assert.False(t, l.Cash().IsNegative(), "cash went negative: %s", l.Cash())
}

func TestBuySellWithoutFrictions(t *testing.T) {
	t.Parallel()

	l := newLedger()
	sig := &strategies.Signal{Symbol: "AAA", Action: strategies.Buy, Price: 1000, Strategy: "scripted"}

	buy, err := l.Buy("AAA", 1000, t0, sig)
	require.NoError(t, err)
	assert.Equal(t, int64(100), buy.Quantity)
	assert.True(t, dec("-100000").Equal(buy.CashDelta))
	assert.True(t, dec("9900000").Equal(l.Cash()))
	assert.Equal(t, "scripted", buy.Strategy())
	assert.NotEmpty(t, buy.ID)
	assert.NotEmpty(t, buy.Lot)
	assertIdentity(t, l)

	pos, ok := l.Position("AAA")
	require.True(t, ok)
	assert.InDelta(t, 950.0, pos.StopLoss, 1e-9)
	assert.InDelta(t, 1100.0, pos.TakeProfit, 1e-9)

	sell, err := l.Sell("AAA", 1100, t0.AddDate(0, 0, 1), nil)
	require.NoError(t, err)
	assert.Equal(t, Sell, sell.Side)
	assert.Equal(t, buy.Lot, sell.Lot)
	assert.True(t, dec("110000").Equal(sell.CashDelta))
	assert.True(t, dec("10010000").Equal(l.Cash()))
	assert.Zero(t, l.OpenCount())
	assertIdentity(t, l)

	assert.Len(t, l.Trades(), 2)
}

func TestBuyAppliesFrictions(t *testing.T) {
	t.Parallel()

	l := newLedger(func(c *Config) {
		c.CommissionRate = 0.001
		c.SlippageRate = 0.0005
	})

	buy, err := l.Buy("AAA", 1000, t0, nil)
	require.NoError(t, err)
	assert.True(t, dec("100").Equal(buy.Commission), buy.Commission.String())
	assert.True(t, dec("50").Equal(buy.Slippage), buy.Slippage.String())
	assert.True(t, dec("-100150").Equal(buy.CashDelta))

	sell, err := l.Sell("AAA", 1000, t0, nil)
	require.NoError(t, err)
	assert.True(t, dec("99850").Equal(sell.CashDelta))
	assert.True(t, dec("9999700").Equal(l.Cash()))
}

func TestBuyRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		mod   func(*Config)
		setup func(*Ledger)
		price float64
		want  error
	}{
		{
			name:  "already open",
			setup: func(l *Ledger) { _, _ = l.Buy("AAA", 1000, t0, nil) },
			price: 1000,
			want:  ErrAlreadyOpen,
		},
		{
			name:  "max positions",
			mod:   func(c *Config) { c.MaxPositions = 1 },
			setup: func(l *Ledger) { _, _ = l.Buy("BBB", 1000, t0, nil) },
			price: 1000,
			want:  ErrMaxPositions,
		},
		{
			name:  "zero quantity",
			price: 200_000,
			want:  ErrZeroQuantity,
		},
		{
			name:  "below min trade",
			mod:   func(c *Config) { c.MinTradeAmount = 200_000 },
			price: 1000,
			want:  ErrBelowMinTrade,
		},
		{
			name: "insufficient cash",
			mod: func(c *Config) {
				c.PositionSizeRatio = 1
				c.CommissionRate = 0.01
			},
			price: 1000,
			want:  ErrInsufficientCash,
		},
		{
			name:  "bad price",
			price: 0,
			want:  ErrInvalidPrice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var mods []func(*Config)
			if tt.mod != nil {
				mods = append(mods, tt.mod)
			}
			l := newLedger(mods...)
			if tt.setup != nil {
				tt.setup(l)
			}
			cash := l.Cash()
			trades := len(l.Trades())

			_, err := l.Buy("AAA", tt.price, t0, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var lerr *Error
			require.ErrorAs(t, err, &lerr)
			assert.Equal(t, "buy", lerr.Op)
			assert.Equal(t, "AAA", lerr.Symbol)

			// rejected orders leave no trace
			assert.True(t, cash.Equal(l.Cash()))
			assert.Len(t, l.Trades(), trades)
		})
	}
}

func TestSellWithoutPosition(t *testing.T) {
	t.Parallel()

	l := newLedger()
	_, err := l.Sell("AAA", 1000, t0, nil)
	assert.ErrorIs(t, err, ErrNoPosition)
	assert.Contains(t, err.Error(), "ledger: sell AAA")
}

func TestPyramidingAveragesIn(t *testing.T) {
	t.Parallel()

	l := newLedger(func(c *Config) { c.AllowPyramiding = true })

	first, err := l.Buy("AAA", 1000, t0, nil)
	require.NoError(t, err)
	second, err := l.Buy("AAA", 2000, t0.AddDate(0, 0, 1), nil)
	require.NoError(t, err)
	assert.Equal(t, first.Lot, second.Lot)

	pos, ok := l.Position("AAA")
	require.True(t, ok)
	assert.Equal(t, 1, l.OpenCount())
	assert.Equal(t, first.Quantity+second.Quantity, pos.Quantity)
	want := (1000*float64(first.Quantity) + 2000*float64(second.Quantity)) / float64(pos.Quantity)
	assert.InDelta(t, want, pos.AvgPrice, 1e-9)
	assert.InDelta(t, want*0.95, pos.StopLoss, 1e-6)
	assert.Equal(t, t0, pos.EntryTime)
}

func TestCheckStopTake(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		price  float64
		fired  bool
		reason Reason
	}{
		{"stop", 950, true, ReasonStopLoss},
		{"through stop", 900, true, ReasonStopLoss},
		{"take", 1100, true, ReasonTakeProfit},
		{"inside", 1050, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			l := newLedger()
			_, err := l.Buy("AAA", 1000, t0, nil)
			require.NoError(t, err)

			assert.Equal(t, tt.fired, l.Triggered("AAA", tt.price))
			tr, fired := l.CheckStopTake("AAA", tt.price, t0.AddDate(0, 0, 1))
			assert.Equal(t, tt.fired, fired)
			if fired {
				assert.Equal(t, tt.reason, tr.Reason)
				assert.Equal(t, tt.price, tr.Price)
				assert.Zero(t, l.OpenCount())
			} else {
				assert.Equal(t, 1, l.OpenCount())
			}
		})
	}

	l := newLedger()
	_, fired := l.CheckStopTake("AAA", 1, t0)
	assert.False(t, fired)
}

func TestDisabledStopTake(t *testing.T) {
	t.Parallel()

	l := newLedger(func(c *Config) {
		c.StopLossRate = 0
		c.TakeProfitRate = 0
	})
	_, err := l.Buy("AAA", 1000, t0, nil)
	require.NoError(t, err)

	_, fired := l.CheckStopTake("AAA", 1, t0)
	assert.False(t, fired)
	_, fired = l.CheckStopTake("AAA", 1_000_000, t0)
	assert.False(t, fired)
}

func TestMarkToMarketKeepsIdentity(t *testing.T) {
	t.Parallel()

	l := newLedger()
	_, err := l.Buy("AAA", 1000, t0, nil)
	require.NoError(t, err)
	_, err = l.Buy("BBB", 333.33, t0, nil)
	require.NoError(t, err)

	cash := l.Cash()
	l.MarkToMarket("AAA", 1234.56, t0.AddDate(0, 0, 1))
	l.MarkToMarket("BBB", 0.1+0.2, t0.AddDate(0, 0, 1))
	l.MarkToMarket("ZZZ", 10, t0)

	assert.True(t, cash.Equal(l.Cash()))
	assertIdentity(t, l)

	positions := l.Positions()
	require.Len(t, positions, 2)
	assert.Equal(t, "AAA", positions[0].Symbol)
	assert.Equal(t, 1234.56, positions[0].MarkPrice)
	assert.InDelta(t, 0.23456, positions[0].UnrealizedReturn(), 1e-9)
}

func TestClose(t *testing.T) {
	t.Parallel()

	l := newLedger()
	_, err := l.Buy("AAA", 1000, t0, nil)
	require.NoError(t, err)

	tr, err := l.Close("AAA", 1010, t0, ReasonEndOfRun)
	require.NoError(t, err)
	assert.Equal(t, ReasonEndOfRun, tr.Reason)
	assert.Nil(t, tr.Signal)

	_, err = l.Close("AAA", 1010, t0, ReasonEndOfRun)
	assert.ErrorIs(t, err, ErrNoPosition)
}

func TestCommissionMonotonicity(t *testing.T) {
	t.Parallel()

	final := func(rate float64) decimal.Decimal {
		l := newLedger(func(c *Config) { c.CommissionRate = rate })
		for i, p := range []float64{1000, 1050, 990, 1100} {
			ts := t0.AddDate(0, 0, i)
			if i%2 == 0 {
				_, _ = l.Buy("AAA", p, ts, nil)
			} else {
				_, _ = l.Sell("AAA", p, ts, nil)
			}
		}
		return l.Cash()
	}

	prev := final(0)
	for _, rate := range []float64{0.0001, 0.001, 0.01} {
		got := final(rate)
		assert.True(t, got.LessThanOrEqual(prev), "rate %v: %s > %s", rate, got, prev)
		prev = got
	}
}

func TestSideText(t *testing.T) {
	t.Parallel()

	b, err := Sell.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "sell", string(b))

	var s Side
	require.NoError(t, s.UnmarshalText([]byte("buy")))
	assert.Equal(t, Buy, s)
	assert.Error(t, s.UnmarshalText([]byte("short")))
	assert.Equal(t, "side(7)", Side(7).String())
}
