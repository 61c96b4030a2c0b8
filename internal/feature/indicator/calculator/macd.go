package calculator

// MACDResult holds the MACD line and, when enough history exists, its signal line and histogram.
type MACDResult struct {
	Line      float64
	Signal    float64
	Histogram float64
	HasSignal bool
}

// MACD computes the fast/slow EMA difference and an EMA signal line over that difference.
// The line needs slow closes; the signal needs slow+signal-1 closes.
func MACD(closes []float64, fast, slow, signal int) (MACDResult, bool) {
	if fast <= 0 || slow <= fast || signal <= 0 || len(closes) < slow {
		return MACDResult{}, false
	}

	fastS := EMASeries(closes, fast)
	slowS := EMASeries(closes, slow)

	// align both series on the same closing index
	offset := slow - fast
	line := make([]float64, len(slowS))
	for i := range slowS {
		line[i] = fastS[i+offset] - slowS[i]
	}

	res := MACDResult{Line: line[len(line)-1]}
	if sig, ok := EMA(line, signal); ok {
		res.Signal = sig
		res.Histogram = res.Line - sig
		res.HasSignal = true
	}
	return res, true
}
