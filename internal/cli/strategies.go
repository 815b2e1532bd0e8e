package cli

import (
	"fmt"

	"github.com/rustyeddy/backtester/strategies"
	"github.com/spf13/cobra"
)

func newStrategiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List the registered signal sources",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range strategies.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}
