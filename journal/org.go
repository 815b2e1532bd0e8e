package journal

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/shopspring/decimal"
)

// FormatTripOrg renders a closed position as an Org-mode block suitable for
// pasting into a journal. Structured facts live in a PROPERTIES drawer; the
// Thesis/Execution/Review headings are left for notes.
func FormatTripOrg(rt RoundTripRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "** Trade: %s (%s)\n", rt.Symbol, shortID(rt.Lot))
	b.WriteString(":PROPERTIES:\n")
	fmt.Fprintf(&b, ":LOT: %s\n", rt.Lot)
	fmt.Fprintf(&b, ":SYMBOL: %s\n", rt.Symbol)
	if rt.Strategy != "" {
		fmt.Fprintf(&b, ":STRATEGY: %s\n", rt.Strategy)
	}
	fmt.Fprintf(&b, ":QUANTITY: %d\n", rt.Quantity)
	fmt.Fprintf(&b, ":ENTRY_PRICE: %.4f\n", rt.EntryPrice)
	fmt.Fprintf(&b, ":EXIT_PRICE: %.4f\n", rt.ExitPrice)
	fmt.Fprintf(&b, ":ENTRY_DATE: %s\n", rt.Entry.UTC().Format(time.DateOnly))
	fmt.Fprintf(&b, ":EXIT_DATE: %s\n", rt.Exit.UTC().Format(time.DateOnly))
	fmt.Fprintf(&b, ":RETURN_PCT: %.2f\n", rt.Return*100)
	fmt.Fprintf(&b, ":REALIZED_PL: %s\n", rt.PnL.StringFixed(2))
	fmt.Fprintf(&b, ":REASON: %s\n", rt.Reason)
	b.WriteString(":END:\n")
	b.WriteString("\n")
	b.WriteString("*** Thesis\n- \n\n")
	b.WriteString("*** Execution\n- \n\n")
	b.WriteString("*** Review\n- \n")
	return b.String()
}

// FormatTripsOrg renders multiple round trips separated by blank lines.
func FormatTripsOrg(trips []RoundTripRecord) string {
	var b strings.Builder
	for i, rt := range trips {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(FormatTripOrg(rt))
	}
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[len(full)-8:]
}

var runOrgFuncs = template.FuncMap{
	"mul100": func(x float64) float64 { return x * 100.0 },
	"date":   func(t time.Time) string { return t.UTC().Format(time.DateOnly) },
	"money":  func(d decimal.Decimal) string { return d.StringFixed(2) },
	"join":   strings.Join,
	"trips":  FormatTripsOrg,
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

var runOrgTemplate = template.Must(template.New("run").Funcs(runOrgFuncs).Parse(RunOrgTemplate))

type runOrgView struct {
	RunRecord
	Trips []RoundTripRecord
}

// WriteRunOrg renders a run and its round trips as an Org-mode document.
func WriteRunOrg(w io.Writer, run RunRecord, trips []RoundTripRecord) error {
	return runOrgTemplate.Execute(w, runOrgView{RunRecord: run, Trips: trips})
}

// ExportRunOrg loads a stored run and writes it with WriteRunOrg.
func (j *SQLite) ExportRunOrg(ctx context.Context, runID string, w io.Writer) error {
	run, err := j.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	trips, err := j.ListRoundTripsByRunID(ctx, runID)
	if err != nil {
		return err
	}
	return WriteRunOrg(w, run, trips)
}

const RunOrgTemplate = `* BACKTEST: {{join .Strategies ", "}} on {{join .Symbols ", "}}
:PROPERTIES:
:RUN_ID:      {{.RunID}}
:MODE:        {{.Mode}}
:STRATEGIES:  {{join .Strategies ","}}
:SYMBOLS:     {{join .Symbols ","}}
:START_DATE:  {{date .Start}}
:END_DATE:    {{date .End}}
:START_BAL:   {{money .InitialCapital}}
:END_BAL:     {{money .FinalCapital}}
:NET_PL:      {{money .NetProfit}}
:RETURN_PCT:  {{printf "%.2f" (mul100 .TotalReturn)}}
:MAX_DD_PCT:  {{printf "%.2f" (mul100 .MaxDrawdown)}}
:TRADES:      {{.Trades}}
:WINS:        {{.Wins}}
:LOSSES:      {{.Losses}}
:WIN_RATE:    {{printf "%.2f" (mul100 .WinRate)}}
:PROFIT_FAC:  {{if ne .ProfitFactor 0.0}}{{printf "%.2f" .ProfitFactor}}{{else}}(no losses){{end}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Performance Summary
- Net P/L:          *{{money .NetProfit}}*
- Return:           *{{printf "%.2f" (mul100 .TotalReturn)}}%*
- Annual Return:    *{{printf "%.2f" (mul100 .AnnualReturn)}}%*
- Max Drawdown:     *{{printf "%.2f" (mul100 .MaxDrawdown)}}%*
- Sharpe:           *{{printf "%.4f" .Sharpe}}*
- Sortino:          *{{.Sortino}}*
- Calmar:           *{{printf "%.4f" .Calmar}}*
{{- if .TerminatedEarly}}
- Stopped early by the drawdown limit
{{- end}}

** Trade Distribution
| Outcome | Count |
|---------+-------|
| Wins    | {{.Wins}} |
| Losses  | {{.Losses}} |
| Total   | {{.RoundTrips}} |
{{- if .Trips}}

* Trades
{{trips .Trips}}
{{- end}}
`
