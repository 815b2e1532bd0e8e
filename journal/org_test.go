package journal

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTripOrg(t *testing.T) {
	t.Parallel()

	rt := RoundTripRecord{
		Lot:        "01H0000000000000000ABCDEFGH",
		Symbol:     "AAA",
		Strategy:   "ma-cross",
		Entry:      day(2024, 3, 15),
		Exit:       day(2024, 3, 22),
		Quantity:   100,
		EntryPrice: 108.5,
		ExitPrice:  110.75,
		Return:     0.020737,
		PnL:        decimal.RequireFromString("225.00"),
		Reason:     "take_profit",
	}

	result := FormatTripOrg(rt)

	assert.Contains(t, result, "** Trade: AAA (ABCDEFGH)")
	assert.Contains(t, result, ":PROPERTIES:")
	assert.Contains(t, result, ":LOT: 01H0000000000000000ABCDEFGH")
	assert.Contains(t, result, ":STRATEGY: ma-cross")
	assert.Contains(t, result, ":QUANTITY: 100")
	assert.Contains(t, result, ":ENTRY_PRICE: 108.5000")
	assert.Contains(t, result, ":EXIT_PRICE: 110.7500")
	assert.Contains(t, result, ":ENTRY_DATE: 2024-03-15")
	assert.Contains(t, result, ":EXIT_DATE: 2024-03-22")
	assert.Contains(t, result, ":RETURN_PCT: 2.07")
	assert.Contains(t, result, ":REALIZED_PL: 225.00")
	assert.Contains(t, result, ":REASON: take_profit")
	assert.Contains(t, result, ":END:")

	assert.Contains(t, result, "*** Thesis")
	assert.Contains(t, result, "*** Execution")
	assert.Contains(t, result, "*** Review")
}

func TestFormatTripOrgWithoutStrategy(t *testing.T) {
	t.Parallel()

	result := FormatTripOrg(RoundTripRecord{Lot: "short", Symbol: "BBB", PnL: decimal.NewFromInt(-50)})
	assert.Contains(t, result, "** Trade: BBB (short)")
	assert.Contains(t, result, ":REALIZED_PL: -50.00")
	assert.NotContains(t, result, ":STRATEGY:")
}

func TestFormatTripsOrg(t *testing.T) {
	t.Parallel()

	assert.Empty(t, FormatTripsOrg(nil))

	out := FormatTripsOrg([]RoundTripRecord{{Lot: "a", Symbol: "AAA"}, {Lot: "b", Symbol: "BBB"}})
	assert.Equal(t, 2, strings.Count(out, "** Trade:"))
	assert.Contains(t, out, "- \n\n\n** Trade: BBB")
}

func TestExportRunOrg(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	j, _ := newTestSQLite(t)
	res := sampleRun(t)
	require.NoError(t, j.Record(ctx, res))

	var buf bytes.Buffer
	require.NoError(t, j.ExportRunOrg(ctx, res.RunID, &buf))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "* BACKTEST: plan on AAA, BBB\n"))
	assert.Contains(t, out, ":RUN_ID:      "+res.RunID)
	assert.Contains(t, out, ":MODE:        portfolio")
	assert.Contains(t, out, ":START_DATE:  2023-01-02")
	assert.Contains(t, out, ":START_BAL:   10000000.00")
	assert.Contains(t, out, ":END_BAL:     "+res.FinalCapital.StringFixed(2))
	assert.Contains(t, out, ":WIN_RATE:    50.00")
	assert.Contains(t, out, "| Total   | 2 |")
	assert.Contains(t, out, "* Trades")
	assert.Equal(t, 2, strings.Count(out, "** Trade:"))

	err := j.ExportRunOrg(ctx, "missing", &buf)
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestWriteRunOrgWithoutTrips(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	run := RunRecord{RunID: "r1", Mode: "single_stock", Symbols: []string{"AAA"}, TerminatedEarly: true}
	require.NoError(t, WriteRunOrg(&buf, run, nil))
	out := buf.String()
	assert.Contains(t, out, ":PROFIT_FAC:  (no losses)")
	assert.Contains(t, out, "Stopped early by the drawdown limit")
	assert.NotContains(t, out, "* Trades")
}
