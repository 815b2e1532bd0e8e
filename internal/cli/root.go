// Package cli wires the backtester commands together.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// RootConfig carries the persistent flags to every subcommand.
type RootConfig struct {
	ConfigPath string
	DBPath     string
	LogLevel   string

	Logger *slog.Logger
}

const version = "0.3.0"

func NewRootCmd() *cobra.Command {
	rc := &RootConfig{}

	cmd := &cobra.Command{
		Use:           "backtester",
		Short:         "Backtester: day-stepped strategy backtests, Monte Carlo and walk-forward studies",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&rc.ConfigPath, "config", "", "Path to config file (YAML or JSON)")
	cmd.PersistentFlags().StringVar(&rc.DBPath, "db", "./backtest.sqlite", "SQLite journal database")
	cmd.PersistentFlags().StringVar(&rc.LogLevel, "log-level", "info", "Log level: debug|info|warn|error")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		lvl, err := parseLevel(rc.LogLevel)
		if err != nil {
			return err
		}
		rc.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: lvl}))
		slog.SetDefault(rc.Logger)
		return nil
	}

	cmd.AddCommand(
		newRunCmd(rc),
		newConfigCmd(rc),
		newJournalCmd(rc),
		newStrategiesCmd(),
	)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "backtester version %s\n", version)
		},
	})

	return cmd
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("bad --log-level %q: %w", s, err)
	}
	return lvl, nil
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
