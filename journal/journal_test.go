package journal

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/strategies"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// sampleRun backtests a scripted plan over five days: one winning round trip
// on AAA and one losing round trip on BBB.
func sampleRun(t *testing.T) *backtest.Result {
	t.Helper()

	closes := map[string][]float64{
		"AAA": {100, 105, 110, 112, 115},
		"BBB": {50, 49, 48, 47, 46},
	}
	var bars []market.Bar
	for sym, cs := range closes {
		for i, c := range cs {
			bars = append(bars, market.Bar{Symbol: sym, Date: day(2023, 1, 2+i), Open: c, High: c, Low: c, Close: c, Volume: 1000})
		}
	}

	plan := strategies.NewScripted("plan").
		On("AAA", day(2023, 1, 2), strategies.Buy).
		On("BBB", day(2023, 1, 2), strategies.Buy).
		On("AAA", day(2023, 1, 4), strategies.Sell).
		On("BBB", day(2023, 1, 5), strategies.Sell)

	cfg := backtest.DefaultConfig()
	cfg.Mode = backtest.Portfolio
	cfg.Symbols = []string{"AAA", "BBB"}
	cfg.Start = day(2023, 1, 2)
	cfg.End = day(2023, 1, 6)
	cfg.MinHistory = 0
	cfg.StopLossRate = 0
	cfg.TakeProfitRate = 0

	e := &backtest.Engine{
		Provider: market.NewMemoryProvider(bars...),
		Sources:  []strategies.Source{plan},
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	res, err := e.Run(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, res.Trades, 4)
	require.Len(t, res.RoundTrips, 2)
	return res
}
