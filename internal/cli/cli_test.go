package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rustyeddy/backtester/config"
	"github.com/rustyeddy/backtester/journal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionAndStrategies(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "backtester version "+version)

	out, err = execute(t, "strategies")
	require.NoError(t, err)
	for _, name := range []string{"bollinger", "ema-cross", "ma-cross", "noop", "rsi"} {
		assert.Contains(t, out, name+"\n")
	}
}

func TestBadLogLevel(t *testing.T) {
	t.Parallel()

	_, err := execute(t, "version", "--log-level", "loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--log-level")
}

func TestConfigInitAndValidate(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bt.yaml")
	out, err := execute(t, "config", "init", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Created default configuration: "+path)

	out, err = execute(t, "config", "validate", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration valid")
	assert.Contains(t, out, "Strategy: ma-cross")

	out, err = execute(t, "config", "validate", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Journal: sqlite")

	require.NoError(t, os.WriteFile(path, []byte("backtest:\n  mode: intraday\n"), 0644))
	_, err = execute(t, "config", "validate", "-f", path)
	assert.ErrorContains(t, err, "validation failed")

	_, err = execute(t, "config", "validate")
	assert.Error(t, err)
}

func TestRunAndJournal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "bt.sqlite")
	cfgPath := filepath.Join(dir, "bt.yaml")

	cfg := config.Default()
	cfg.Data.Symbols = []string{"AAA", "BBB"}
	cfg.Backtest.Seed = 7
	cfg.Journal.DBPath = dbPath
	require.NoError(t, cfg.SaveToFile(cfgPath))

	reportPath := filepath.Join(dir, "report.txt")
	out, err := execute(t, "run", "--config", cfgPath, "--mode", "portfolio", "--report", reportPath, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "Backtest Result")
	assert.Contains(t, out, "Mode:            portfolio")
	assert.Contains(t, out, "saved to: "+dbPath)

	report, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Contains(t, string(report), "Backtest Result")

	j, err := journal.NewSQLite(dbPath)
	require.NoError(t, err)
	runs, err := j.ListRuns(context.Background())
	require.NoError(t, err)
	require.NoError(t, j.Close())
	require.Len(t, runs, 1)
	runID := runs[0].RunID

	out, err = execute(t, "journal", "runs", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, runID)
	assert.Contains(t, out, "portfolio")

	out, err = execute(t, "journal", "show", runID, "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Run "+runID+" (portfolio)")
	assert.Contains(t, out, "Symbols:    AAA, BBB")

	out, err = execute(t, "journal", "export", runID, "--db", dbPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "* BACKTEST: ma-cross on AAA, BBB"))

	orgPath := filepath.Join(dir, "run.org")
	tradesPath := filepath.Join(dir, "trades.csv")
	equityPath := filepath.Join(dir, "equity.csv")
	_, err = execute(t, "journal", "export", runID, "--db", dbPath, "-o", orgPath, "--trades", tradesPath, "--equity", equityPath)
	require.NoError(t, err)
	for _, p := range []string{orgPath, tradesPath, equityPath} {
		info, err := os.Stat(p)
		require.NoError(t, err, p)
		assert.Positive(t, info.Size())
	}

	_, err = execute(t, "journal", "show", "missing", "--db", dbPath)
	assert.ErrorIs(t, err, journal.ErrRunNotFound)
}

func TestRunWithCSVJournalAndBarsFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	barsPath := filepath.Join(dir, "bars.csv")
	var bars strings.Builder
	bars.WriteString("date,symbol,open,high,low,close,volume\n")
	for i, c := range []string{"100", "101", "102", "103", "104"} {
		bars.WriteString("2023-01-0" + string(rune('2'+i)) + ",AAA," + c + "," + c + "," + c + "," + c + ",1000\n")
	}
	require.NoError(t, os.WriteFile(barsPath, []byte(bars.String()), 0644))

	cfg := config.Default()
	cfg.Backtest.StartDate = "2023-01-02"
	cfg.Backtest.EndDate = "2023-01-06"
	cfg.Strategies = []config.StrategyConfig{{Name: "noop"}}
	cfg.Journal = config.JournalConfig{
		Type:       "csv",
		TradesFile: filepath.Join(dir, "trades.csv"),
		EquityFile: filepath.Join(dir, "equity.csv"),
	}
	cfgPath := filepath.Join(dir, "bt.json")
	require.NoError(t, cfg.SaveToFile(cfgPath))

	out, err := execute(t, "run", "--config", cfgPath, "--bars", barsPath, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "Trading Days:    5")
	assert.Contains(t, out, cfg.Journal.EquityFile)

	equity, err := os.ReadFile(cfg.Journal.EquityFile)
	require.NoError(t, err)
	assert.Equal(t, 6, strings.Count(string(equity), "\n"))
}

func TestRunMissingConfig(t *testing.T) {
	t.Parallel()

	_, err := execute(t, "run", "--config", filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "load config")
}
