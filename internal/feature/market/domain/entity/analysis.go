package entity

import indicatorentity "psx_backend/internal/feature/indicator/domain/entity"

// Signal labels used in StockAnalysis.
const (
	SignalOverbought = "Overbought"
	SignalOversold   = "Oversold"
	SignalNeutral    = "Neutral"

	SignalAboveUpperBand = "Above Upper Band"
	SignalBelowLowerBand = "Below Lower Band"
	SignalWithinBands    = "Within Bands"
	SignalUnknown        = "Unknown"

	SignalBullish = "Bullish"
	SignalBearish = "Bearish"
)

// StockAnalysis combines a quote with indicators computed from its history and the derived signals.
type StockAnalysis struct {
	Quote           Quote
	Indicators      indicatorentity.IndicatorSet
	RSISignal       string
	BollingerSignal string
	OverallSignal   string
}
