package cli

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/config"
	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/market"
	"github.com/spf13/cobra"
)

// warmupDays of synthetic history precede the run so indicators are primed
// on the first simulated day.
const warmupDays = 120

type runOptions struct {
	bars   string
	mode   string
	report string
}

func newRunCmd(rc *RootConfig) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a backtest from a config file",
		Long: `Run a backtest using settings from a configuration file.

Bars come from data.bars_file (or --bars); without one, a seeded random walk
is generated for the configured symbols. The finished run is recorded in the
configured journal and its report printed.

Example:
  backtester run --config backtest.yaml --mode walk_forward`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBacktest(cmd, rc, opts)
		},
	}

	cmd.Flags().StringVar(&opts.bars, "bars", "", "CSV bars file (overrides data.bars_file)")
	cmd.Flags().StringVar(&opts.mode, "mode", "", "run mode (overrides backtest.mode)")
	cmd.Flags().StringVar(&opts.report, "report", "", "also write the text report to this file")
	return cmd
}

func runBacktest(cmd *cobra.Command, rc *RootConfig, opts *runOptions) error {
	cfg := config.Default()
	if rc.ConfigPath != "" {
		var err error
		if cfg, err = config.LoadFromFile(rc.ConfigPath); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}
	if opts.bars != "" {
		cfg.Data.BarsFile = opts.bars
	}
	if opts.mode != "" {
		cfg.Backtest.Mode = opts.mode
	}
	if cmd.Flags().Changed("db") || (cfg.Journal.Type == "sqlite" && cfg.Journal.DBPath == "") {
		cfg.Journal.DBPath = rc.DBPath
	}

	bc, err := cfg.ToBacktest()
	if err != nil {
		return err
	}
	sources, err := cfg.Sources()
	if err != nil {
		return err
	}
	provider, err := loadProvider(cfg.Data, bc)
	if err != nil {
		return fmt.Errorf("load bars: %w", err)
	}

	engine := &backtest.Engine{
		Provider: provider,
		Sources:  sources,
		Logger:   rc.Logger,
	}

	j, err := openJournal(cfg.Journal)
	if err != nil {
		return fmt.Errorf("create journal: %w", err)
	}
	if j != nil {
		defer j.Close()
		engine.Sinks = append(engine.Sinks, j)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	res, err := engine.Run(ctx, bc)
	if res == nil {
		return err
	}

	out := cmd.OutOrStdout()
	backtest.PrintResult(out, res)
	if opts.report != "" {
		if werr := os.WriteFile(opts.report, []byte(backtest.Report(res)), 0644); werr != nil {
			return fmt.Errorf("write report: %w", werr)
		}
	}
	if err != nil {
		return err
	}

	switch cfg.Journal.Type {
	case "sqlite":
		fmt.Fprintf(out, "\nRun %s saved to: %s\n", res.RunID, cfg.Journal.DBPath)
	case "csv":
		fmt.Fprintf(out, "\nRun %s saved to:\n  - %s\n  - %s\n", res.RunID, cfg.Journal.TradesFile, cfg.Journal.EquityFile)
	}
	return nil
}

func loadProvider(d config.DataConfig, bc backtest.Config) (market.Provider, error) {
	if d.BarsFile != "" {
		bars, err := market.LoadCSV(d.BarsFile)
		if err != nil {
			return nil, err
		}
		return market.NewMemoryProvider(bars...), nil
	}
	from := bc.Start.AddDate(0, 0, -warmupDays)
	return market.NewMemoryProvider(market.RandomWalk(bc.Symbols, from, bc.End, bc.Seed)...), nil
}

// openJournal returns nil when journaling is off.
func openJournal(c config.JournalConfig) (journal.Journal, error) {
	switch c.Type {
	case "sqlite":
		return journal.NewSQLite(c.DBPath)
	case "csv":
		return journal.NewCSV(c.TradesFile, c.EquityFile)
	}
	return nil, nil
}
