package indicators

// RSI is the relative strength index over the last period price changes,
// using plain averages of gains and losses. It needs period+1 closes.
//
// A window with no losses reads 100; a flat window reads 50.
func RSI(closes []float64, period int) (float64, error) {
	if err := checkPeriod(period, len(closes), period+1); err != nil {
		return 0, err
	}

	var gain, loss float64
	tail := closes[len(closes)-period-1:]
	for i := 1; i < len(tail); i++ {
		d := tail[i] - tail[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}

	switch {
	case gain == 0 && loss == 0:
		return 50, nil
	case loss == 0:
		return 100, nil
	}
	rs := (gain / float64(period)) / (loss / float64(period))
	return 100 - 100/(1+rs), nil
}
