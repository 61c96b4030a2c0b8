package calculator

// RSI computes the Wilder-smoothed relative strength index.
// It needs at least period+1 closes. The result is always within [0, 100];
// a series with no movement at all yields 50.
func RSI(closes []float64, period int) (float64, bool) {
	if period <= 0 || len(closes) < period+1 {
		return 0, false
	}

	// initial averages over the first `period` changes
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	switch {
	case avgGain == 0 && avgLoss == 0:
		return 50, true
	case avgLoss == 0:
		return 100, true
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), true
}
