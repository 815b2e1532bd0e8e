package backtest

import (
	"errors"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rustyeddy/backtester/ledger"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backtester_runs_total",
		Help: "Backtest runs by mode and outcome",
	}, []string{"mode", "outcome"})

	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "backtester_run_duration_seconds",
		Help:    "Wall time of one backtest run",
		Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30, 120},
	}, []string{"mode"})

	daysSimulated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backtester_days_simulated_total",
		Help: "Trading days stepped by the driver",
	})

	tradesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backtester_trades_total",
		Help: "Ledger fills by side and reason",
	}, []string{"side", "reason"})

	rejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backtester_ledger_rejections_total",
		Help: "Orders refused by the ledger, by kind",
	}, []string{"kind"})
)

func observeTrade(t ledger.Trade) {
	tradesTotal.WithLabelValues(t.Side.String(), string(t.Reason)).Inc()
}

func observeRejection(err error) {
	kind := "other"
	var lerr *ledger.Error
	if errors.As(err, &lerr) && lerr.Kind != nil {
		kind = strings.ReplaceAll(lerr.Kind.Error(), " ", "_")
	}
	rejectionsTotal.WithLabelValues(kind).Inc()
}
