package backtest

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/montecarlo"
)

// Mode selects how a run is driven.
type Mode string

const (
	SingleStock Mode = "single_stock"
	Portfolio   Mode = "portfolio"
	MonteCarlo  Mode = "monte_carlo"
	WalkForward Mode = "walk_forward"
)

// DefaultWindowCount is the walk-forward window count used when none is set.
const DefaultWindowCount = 4

// Modes lists every mode in declaration order.
var Modes = []Mode{SingleStock, Portfolio, MonteCarlo, WalkForward}

// ParseMode accepts a mode name with "-" or "_" in any case.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	for _, known := range Modes {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, s)
}

var ErrInvalidConfig = errors.New("backtest: invalid config")

// Config is everything a run needs besides its data and signal sources.
// Rates are fractions; all of them must lie in [0,1).
type Config struct {
	Mode              Mode      `json:"mode" validate:"required,oneof=single_stock portfolio monte_carlo walk_forward"`
	Start             time.Time `json:"start_date" validate:"required"`
	End               time.Time `json:"end_date" validate:"required"`
	Symbols           []string  `json:"symbols" validate:"required,min=1,dive,required"`
	InitialCapital    float64   `json:"initial_capital" validate:"gt=0"`
	CommissionRate    float64   `json:"commission_rate" validate:"gte=0,lt=1"`
	SlippageRate      float64   `json:"slippage_rate" validate:"gte=0,lt=1"`
	MinTradeAmount    float64   `json:"min_trade_amount" validate:"gte=0"`
	MaxPositions      int       `json:"max_positions" validate:"gte=0"`
	PositionSizeRatio float64   `json:"position_size_ratio" validate:"gt=0,lte=1"`
	StopLossRate      float64   `json:"stop_loss_rate" validate:"gte=0,lt=1"`
	TakeProfitRate    float64   `json:"take_profit_rate" validate:"gte=0,lt=1"`
	MaxDrawdownLimit  float64   `json:"max_drawdown_limit" validate:"gte=0,lt=1"`
	RiskFreeRate      float64   `json:"risk_free_rate" validate:"gte=0,lt=1"`
	NumSimulations    int       `json:"num_simulations" validate:"gte=0"`
	WindowCount       int       `json:"window_count" validate:"gte=0"`
	MinHistory        int       `json:"min_history" validate:"gte=0"`
	AllowPyramiding   bool      `json:"allow_pyramiding"`
	CloseAtEnd        bool      `json:"close_at_end"`
	Seed              int64     `json:"seed"`
}

// DefaultConfig returns the stock settings for a one-year single-symbol run.
func DefaultConfig() Config {
	return Config{
		Mode:              SingleStock,
		Start:             time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC),
		End:               time.Date(2023, 12, 29, 0, 0, 0, 0, time.UTC),
		InitialCapital:    10_000_000,
		CommissionRate:    0.0001,
		SlippageRate:      0.00005,
		MinTradeAmount:    10_000,
		MaxPositions:      10,
		PositionSizeRatio: 0.1,
		StopLossRate:      0.05,
		TakeProfitRate:    0.10,
		MaxDrawdownLimit:  0.20,
		RiskFreeRate:      0.03,
		NumSimulations:    montecarlo.DefaultSimulations,
		WindowCount:       DefaultWindowCount,
		MinHistory:        10,
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate reports every problem with c, wrapped in ErrInvalidConfig.
func (c Config) Validate() error {
	var problems []string

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		for _, fe := range verrs {
			problems = append(problems, describe(fe))
		}
	}

	if !c.Start.IsZero() && !c.End.IsZero() && !market.DateOf(c.End).After(market.DateOf(c.Start)) {
		problems = append(problems, "end_date must be after start_date")
	}
	if c.CommissionRate+c.SlippageRate >= 1 {
		problems = append(problems, "commission_rate + slippage_rate must be below 1")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lt":
		return fmt.Sprintf("%s must be below %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s needs at least %s entries", field, fe.Param())
	}
	return fmt.Sprintf("%s failed %s", field, fe.Tag())
}

// windows returns the walk-forward window count with the default applied.
func (c Config) windows() int {
	if c.WindowCount <= 0 {
		return DefaultWindowCount
	}
	return c.WindowCount
}

// driven returns the symbols a single pass trades: the first one in
// SingleStock mode, all of them otherwise.
func (c Config) driven() []string {
	if c.Mode == SingleStock && len(c.Symbols) > 0 {
		return c.Symbols[:1]
	}
	return c.Symbols
}
