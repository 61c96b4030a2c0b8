package entity

import (
	"time"

	"github.com/shopspring/decimal"

	indicatorentity "psx_backend/internal/feature/indicator/domain/entity"
	marketentity "psx_backend/internal/feature/market/domain/entity"
)

// Recommendation is the categorical advice attached to a position.
type Recommendation string

const (
	RecommendHold    Recommendation = "HOLD"
	RecommendSell    Recommendation = "SELL"
	RecommendBuyMore Recommendation = "BUY_MORE"
	RecommendReview  Recommendation = "REVIEW"
)

// PositionAnalysis is a holding valued at the current quote.
type PositionAnalysis struct {
	Holding    Holding
	Quote      marketentity.Quote
	Indicators indicatorentity.IndicatorSet

	CostBasis   decimal.Decimal
	MarketValue decimal.Decimal
	PnL         decimal.Decimal
	PnLPercent  decimal.Decimal

	// RSI is the value the flags were derived from; nil when neither history nor the quote carried one.
	RSI        *float64
	Oversold   bool
	Overbought bool

	Recommendation Recommendation
}

// Unavailable is a holding whose quote could not be obtained. It is excluded from totals.
type Unavailable struct {
	Symbol string
	Reason string
}

// PortfolioSummary aggregates the analyzed positions.
// TotalPnL always equals the sum of Positions[i].PnL.
type PortfolioSummary struct {
	Positions   []PositionAnalysis
	Unavailable []Unavailable

	TotalCostBasis   decimal.Decimal
	TotalMarketValue decimal.Decimal
	TotalPnL         decimal.Decimal
	TotalPnLPercent  decimal.Decimal

	// Gainers and Losers rank the held symbols by the quote's daily percent change.
	Gainers []string
	Losers  []string

	Recommendations []string
	GeneratedAt     time.Time
}

// Position returns the first position for symbol.
func (s PortfolioSummary) Position(symbol string) (PositionAnalysis, bool) {
	for _, p := range s.Positions {
		if p.Holding.Symbol == symbol {
			return p, true
		}
	}
	return PositionAnalysis{}, false
}
