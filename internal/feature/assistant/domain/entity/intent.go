// Package entity defines intents, classifications and answers of the assistant.
package entity

import "time"

// Intent is a named capability the assistant can route a question to.
type Intent string

const (
	IntentTopGainers        Intent = "top_gainers"
	IntentTopLosers         Intent = "top_losers"
	IntentStockAnalysis     Intent = "stock_analysis"
	IntentOversoldScan      Intent = "oversold_scan"
	IntentOverboughtScan    Intent = "overbought_scan"
	IntentPortfolioAnalysis Intent = "portfolio_analysis"
	IntentCurrentPrices     Intent = "current_prices"
	IntentHelp              Intent = "help"
)

// Intents lists every intent in a stable order.
var Intents = []Intent{
	IntentTopGainers,
	IntentTopLosers,
	IntentStockAnalysis,
	IntentOversoldScan,
	IntentOverboughtScan,
	IntentPortfolioAnalysis,
	IntentCurrentPrices,
	IntentHelp,
}

// Valid reports whether i is a known intent.
func (i Intent) Valid() bool {
	for _, known := range Intents {
		if i == known {
			return true
		}
	}
	return false
}

// Classification is the routing decision for a question.
// Limit and Threshold are zero when the question did not specify them.
type Classification struct {
	Intent    Intent
	Symbols   []string
	Limit     int
	Threshold float64
}

// StockCard is a compact quote shown next to an answer.
type StockCard struct {
	Symbol        string
	Name          string
	Price         float64
	ChangePercent float64
	RSI           *float64
	Signal        string
}

// Result is what a capability produced before phrasing: markdown facts plus cards.
type Result struct {
	Intent Intent
	Facts  string
	Stocks []StockCard
}

// Answer is the reply to a question.
type Answer struct {
	Intent    Intent
	Text      string
	Stocks    []StockCard
	Timestamp time.Time
}
