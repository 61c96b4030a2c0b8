// Package entity defines the indicator output model.
package entity

// Field names reported in IndicatorSet.Missing.
const (
	FieldRSI             = "rsi"
	FieldMACD            = "macd"
	FieldMACDSignal      = "macd_signal"
	FieldSMA20           = "sma20"
	FieldBollingerUpper  = "bollinger_upper"
	FieldBollingerMiddle = "bollinger_middle"
	FieldBollingerLower  = "bollinger_lower"
)

// IndicatorSet is the set of technical indicators computed from one price window.
// A nil field means the window was too short for that indicator; its name is then listed in Missing.
type IndicatorSet struct {
	Symbol string
	Points int

	RSI           *float64
	MACD          *float64
	MACDSignal    *float64
	MACDHistogram *float64

	SMA20           *float64
	BollingerUpper  *float64
	BollingerMiddle *float64
	BollingerLower  *float64

	Missing []string
}

// Complete reports whether every indicator could be computed.
func (s IndicatorSet) Complete() bool { return len(s.Missing) == 0 }
