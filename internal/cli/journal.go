package cli

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rustyeddy/backtester/journal"
	"github.com/spf13/cobra"
)

func newJournalCmd(rc *RootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Query recorded backtest runs",
		Long: `Query and export backtest runs recorded in the SQLite journal.

Subcommands:
  runs    - List recorded runs
  show    - Show one run and its round trips
  export  - Export one run as Org-mode and/or CSV

Examples:
  backtester journal runs
  backtester journal show 01HZX3...
  backtester journal export 01HZX3... -o run.org --trades trades.csv`,
	}

	cmd.AddCommand(
		newJournalRunsCmd(rc),
		newJournalShowCmd(rc),
		newJournalExportCmd(rc),
	)
	return cmd
}

func openSQLite(rc *RootConfig) (*journal.SQLite, error) {
	if _, err := os.Stat(rc.DBPath); err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	j, err := journal.NewSQLite(rc.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return j, nil
}

func newJournalRunsCmd(rc *RootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := openSQLite(rc)
			if err != nil {
				return err
			}
			defer j.Close()

			runs, err := j.ListRuns(cmd.Context())
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded.")
				return nil
			}
			fmt.Fprintf(out, "%-26s  %-12s  %-10s  %-10s  %9s  %7s  %s\n",
				"RUN ID", "MODE", "START", "END", "RETURN", "TRADES", "STRATEGIES")
			for _, r := range runs {
				fmt.Fprintf(out, "%-26s  %-12s  %-10s  %-10s  %8.2f%%  %7d  %s\n",
					r.RunID, r.Mode, r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"),
					r.TotalReturn*100, r.Trades, strings.Join(r.Strategies, ","))
			}
			return nil
		},
	}
}

func newJournalShowCmd(rc *RootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run and its round trips",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := openSQLite(rc)
			if err != nil {
				return err
			}
			defer j.Close()

			run, err := j.GetRun(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("get run: %w", err)
			}
			trips, err := j.ListRoundTripsByRunID(cmd.Context(), run.RunID)
			if err != nil {
				return fmt.Errorf("list round trips: %w", err)
			}
			printRun(cmd.OutOrStdout(), run, trips)
			return nil
		},
	}
}

func printRun(w io.Writer, r journal.RunRecord, trips []journal.RoundTripRecord) {
	fmt.Fprintf(w, "Run %s (%s)\n", r.RunID, r.Mode)
	fmt.Fprintf(w, "  Period:     %s .. %s\n", r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"))
	fmt.Fprintf(w, "  Symbols:    %s\n", strings.Join(r.Symbols, ", "))
	fmt.Fprintf(w, "  Strategies: %s\n", strings.Join(r.Strategies, ", "))
	fmt.Fprintf(w, "  Capital:    %s -> %s (%.2f%%)\n",
		r.InitialCapital.StringFixed(2), r.FinalCapital.StringFixed(2), r.TotalReturn*100)
	fmt.Fprintf(w, "  Sharpe:     %.4f  Sortino: %s  Max DD: %.2f%%\n", r.Sharpe, r.Sortino, r.MaxDrawdown*100)
	fmt.Fprintf(w, "  Trades:     %d (%d round trips, %d won, %d lost)\n", r.Trades, r.RoundTrips, r.Wins, r.Losses)
	if r.TerminatedEarly {
		fmt.Fprintln(w, "  Stopped early by the drawdown limit")
	}
	if len(trips) == 0 {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-8s  %-10s  %-10s  %8s  %12s  %12s  %14s  %s\n",
		"SYMBOL", "ENTRY", "EXIT", "QTY", "ENTRY PX", "EXIT PX", "P/L", "REASON")
	for _, rt := range trips {
		fmt.Fprintf(w, "%-8s  %-10s  %-10s  %8d  %12.4f  %12.4f  %14s  %s\n",
			rt.Symbol, rt.Entry.Format("2006-01-02"), rt.Exit.Format("2006-01-02"),
			rt.Quantity, rt.EntryPrice, rt.ExitPrice, rt.PnL.StringFixed(2), rt.Reason)
	}
}

func newJournalExportCmd(rc *RootConfig) *cobra.Command {
	var orgPath, tradesPath, equityPath string

	cmd := &cobra.Command{
		Use:   "export <run-id>",
		Short: "Export a run as Org-mode (stdout by default) and CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := openSQLite(rc)
			if err != nil {
				return err
			}
			defer j.Close()

			ctx := cmd.Context()
			runID := args[0]

			var org bytes.Buffer
			if err := j.ExportRunOrg(ctx, runID, &org); err != nil {
				return fmt.Errorf("export org: %w", err)
			}
			if orgPath == "" {
				if _, err := cmd.OutOrStdout().Write(org.Bytes()); err != nil {
					return err
				}
			} else if err := os.WriteFile(orgPath, org.Bytes(), 0644); err != nil {
				return fmt.Errorf("write org: %w", err)
			}

			if tradesPath != "" {
				trades, err := j.ListTradesByRunID(ctx, runID)
				if err != nil {
					return fmt.Errorf("list trades: %w", err)
				}
				if err := writeCSVFile(tradesPath, func(w *csv.Writer) error {
					return journal.WriteTradesCSV(w, trades)
				}); err != nil {
					return err
				}
			}
			if equityPath != "" {
				curve, err := j.ListEquityByRunID(ctx, runID)
				if err != nil {
					return fmt.Errorf("list equity: %w", err)
				}
				if err := writeCSVFile(equityPath, func(w *csv.Writer) error {
					return journal.WriteEquityCSV(w, curve)
				}); err != nil {
					return err
				}
			}
			if orgPath != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Exported run %s to %s\n", runID, orgPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&orgPath, "output", "o", "", "Org file to write (default stdout)")
	cmd.Flags().StringVar(&tradesPath, "trades", "", "also write trades CSV")
	cmd.Flags().StringVar(&equityPath, "equity", "", "also write equity CSV")
	return cmd
}

func writeCSVFile(path string, write func(*csv.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(csv.NewWriter(f)); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
