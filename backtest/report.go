package backtest

import (
	"fmt"
	"io"
	"strings"

	"github.com/rustyeddy/backtester/market"
)

const rule = "--------------------------------------------------"

// Report renders r as the plain-text summary printed by the CLI.
func Report(r *Result) string {
	var b strings.Builder
	PrintResult(&b, r)
	return b.String()
}

func pct(x float64) string { return fmt.Sprintf("%.2f%%", x*100) }

func PrintResult(w io.Writer, r *Result) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")

	if r.RunID != "" {
		fmt.Fprintf(w, "Run ID:          %s\n", r.RunID)
	}
	fmt.Fprintf(w, "Mode:            %s\n", r.Mode)
	fmt.Fprintf(w, "Symbols:         %s\n", strings.Join(r.Config.Symbols, ", "))

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Period")
	fmt.Fprintln(w, rule)
	if len(r.EquityCurve) == 0 {
		fmt.Fprintln(w, "No trading days simulated.")
	} else {
		fmt.Fprintf(w, "Start:           %s\n", market.FormatDate(r.Start))
		fmt.Fprintf(w, "End:             %s\n", market.FormatDate(r.End))
		fmt.Fprintf(w, "Trading Days:    %d\n", len(r.EquityCurve))
	}
	if r.TerminatedEarly {
		fmt.Fprintf(w, "Stopped Early:   max drawdown limit %s reached\n", pct(r.Config.MaxDrawdownLimit))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Returns")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Initial Capital: %s\n", r.InitialCapital.StringFixed(2))
	fmt.Fprintf(w, "Final Capital:   %s\n", r.FinalCapital.StringFixed(2))
	fmt.Fprintf(w, "Total Return:    %s\n", pct(r.Metrics.TotalReturn))
	fmt.Fprintf(w, "Annual Return:   %s\n", pct(r.Metrics.AnnualReturn))

	ts := r.TradeStats
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Trades:          %d (%d buys, %d sells)\n", ts.Trades, ts.Buys, ts.Sells)
	fmt.Fprintf(w, "Round Trips:     %d\n", ts.RoundTrips)
	fmt.Fprintf(w, "Wins / Losses:   %d / %d\n", ts.Wins, ts.Losses)
	fmt.Fprintf(w, "Win Rate:        %s\n", pct(ts.WinRate))
	fmt.Fprintf(w, "Net Profit:      %s\n", ts.NetProfit.StringFixed(2))
	fmt.Fprintf(w, "Gross Profit:    %s\n", ts.GrossProfit.StringFixed(2))
	fmt.Fprintf(w, "Gross Loss:      %s\n", ts.GrossLoss.StringFixed(2))
	if ts.ProfitFactor > 0 {
		fmt.Fprintf(w, "Profit Factor:   %.2f\n", ts.ProfitFactor)
	}
	fmt.Fprintf(w, "Costs:           %s commission, %s slippage\n",
		ts.Commission.StringFixed(2), ts.Slippage.StringFixed(2))
	if r.Rejected > 0 {
		fmt.Fprintf(w, "Rejected Orders: %d\n", r.Rejected)
	}

	m := r.Metrics
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Risk")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Volatility:      %s\n", pct(m.Volatility))
	fmt.Fprintf(w, "Sharpe:          %.4f\n", m.Sharpe)
	fmt.Fprintf(w, "Sortino:         %s\n", m.Sortino)
	fmt.Fprintf(w, "Calmar:          %.4f\n", m.Calmar)
	fmt.Fprintf(w, "Max Drawdown:    %s (%d days)\n", pct(m.MaxDrawdown), m.MaxDrawdownDuration)
	fmt.Fprintf(w, "VaR 95:          %s\n", pct(m.VaR95))
	fmt.Fprintf(w, "CVaR 95:         %s\n", pct(m.CVaR95))

	if len(r.Strategies) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Strategies")
		fmt.Fprintln(w, rule)
		for _, s := range r.Strategies {
			fmt.Fprintf(w, "%-16s signals %d, trades %d, round trips %d (%d won), P/L %s\n",
				s.Name+":", s.Signals, s.Trades, s.RoundTrips, s.Wins, s.PnL.StringFixed(2))
		}
	}

	if mc := r.MonteCarlo; mc != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Monte Carlo")
		fmt.Fprintln(w, rule)
		if mc.Empty {
			fmt.Fprintln(w, "No round trips to reorder.")
		} else {
			fmt.Fprintf(w, "Simulations:     %d\n", mc.Simulations)
			fmt.Fprintf(w, "Mean Return:     %s (std %s)\n", pct(mc.MeanReturn), pct(mc.StdReturn))
			fmt.Fprintf(w, "Range:           %s .. %s\n", pct(mc.MinReturn), pct(mc.MaxReturn))
			fmt.Fprintf(w, "Drawdown:        mean %s, max %s\n", pct(mc.MeanDrawdown), pct(mc.MaxDrawdown))
			fmt.Fprintf(w, "Mean Sharpe:     %.4f\n", mc.MeanSharpe)
			fmt.Fprintf(w, "Win Rate:        %s\n", pct(mc.WinRate))
			fmt.Fprintf(w, "VaR 95:          %s\n", pct(mc.VaR95))
			fmt.Fprintf(w, "CVaR 95:         %s\n", pct(mc.CVaR95))
		}
	}

	if len(r.Windows) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Walk-Forward Windows")
		fmt.Fprintln(w, rule)
		for _, win := range r.Windows {
			span := market.FormatDate(win.Start) + " .. " + market.FormatDate(win.End)
			if win.Skipped {
				fmt.Fprintf(w, "#%d %s  skipped (no data)\n", win.Index, span)
				continue
			}
			fmt.Fprintf(w, "#%d %s  return %s, trades %d\n", win.Index, span, pct(win.TotalReturn), win.Trades)
		}
		fmt.Fprintf(w, "Mean Window:     %s\n", pct(meanWindowReturn(r.Windows)))
		fmt.Fprintf(w, "Consistency:     %s of windows profitable\n", pct(consistency(r.Windows)))
	}
}
