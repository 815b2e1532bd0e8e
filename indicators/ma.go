package indicators

// SMA is the simple moving average of the last period closes.
func SMA(closes []float64, period int) (float64, error) {
	if err := checkPeriod(period, len(closes), period); err != nil {
		return 0, err
	}

	sum := 0.0
	for _, c := range closes[len(closes)-period:] {
		sum += c
	}
	return sum / float64(period), nil
}

// EMA is the exponential moving average, seeded with the SMA of the first
// period closes and smoothed by 2/(period+1) from there on.
func EMA(closes []float64, period int) (float64, error) {
	if err := checkPeriod(period, len(closes), period); err != nil {
		return 0, err
	}

	multiplier := 2.0 / float64(period+1)

	sma := 0.0
	for _, c := range closes[:period] {
		sma += c
	}
	ema := sma / float64(period)

	for _, c := range closes[period:] {
		ema = (c-ema)*multiplier + ema
	}
	return ema, nil
}
