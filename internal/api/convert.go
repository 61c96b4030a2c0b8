package api

import (
	"github.com/shopspring/decimal"

	assistantentity "psx_backend/internal/feature/assistant/domain/entity"
	indicatorentity "psx_backend/internal/feature/indicator/domain/entity"
	marketentity "psx_backend/internal/feature/market/domain/entity"
	portfolioentity "psx_backend/internal/feature/portfolio/domain/entity"
)

// moneyPlaces is the number of decimal places used for rendered money and percent values.
const moneyPlaces = 2

// FromQuote converts a market quote.
func FromQuote(q marketentity.Quote) QuoteResponse {
	return QuoteResponse{
		Symbol:        q.Symbol,
		Name:          q.Name,
		Price:         q.Price,
		Open:          q.Open,
		High:          q.High,
		Low:           q.Low,
		Volume:        q.Volume,
		Change:        q.Change(),
		ChangePercent: q.ChangePercent,
		RSI:           q.RSI,
		Timestamp:     q.Timestamp,
	}
}

// FromQuotes converts a ranked quote list, never returning nil.
func FromQuotes(qs []marketentity.Quote) []QuoteResponse {
	out := make([]QuoteResponse, 0, len(qs))
	for _, q := range qs {
		out = append(out, FromQuote(q))
	}
	return out
}

// FromIndicators converts an indicator set.
func FromIndicators(s indicatorentity.IndicatorSet) IndicatorResponse {
	return IndicatorResponse{
		Points:          s.Points,
		RSI:             s.RSI,
		MACD:            s.MACD,
		MACDSignal:      s.MACDSignal,
		MACDHistogram:   s.MACDHistogram,
		SMA20:           s.SMA20,
		BollingerUpper:  s.BollingerUpper,
		BollingerMiddle: s.BollingerMiddle,
		BollingerLower:  s.BollingerLower,
		Missing:         s.Missing,
	}
}

// FromStockAnalysis converts a single-stock analysis.
func FromStockAnalysis(a marketentity.StockAnalysis) StockAnalysisResponse {
	return StockAnalysisResponse{
		Quote:           FromQuote(a.Quote),
		Indicators:      FromIndicators(a.Indicators),
		RSISignal:       a.RSISignal,
		BollingerSignal: a.BollingerSignal,
		OverallSignal:   a.OverallSignal,
	}
}

// ToHoldings converts request holdings. Validation happens in the portfolio usecase.
func ToHoldings(in []HoldingRequest) []portfolioentity.Holding {
	out := make([]portfolioentity.Holding, 0, len(in))
	for _, h := range in {
		out = append(out, portfolioentity.Holding{Symbol: h.Symbol, Quantity: h.Quantity, BuyPrice: h.BuyPrice})
	}
	return out
}

// FromSummary converts a portfolio summary, rounding money and percent values to two places.
func FromSummary(s portfolioentity.PortfolioSummary) PortfolioSummaryResponse {
	out := PortfolioSummaryResponse{
		Positions:        make([]PositionResponse, 0, len(s.Positions)),
		Unavailable:      make([]UnavailableResponse, 0, len(s.Unavailable)),
		TotalCostBasis:   round(s.TotalCostBasis),
		TotalMarketValue: round(s.TotalMarketValue),
		TotalPnL:         round(s.TotalPnL),
		TotalPnLPercent:  round(s.TotalPnLPercent),
		Gainers:          nonNil(s.Gainers),
		Losers:           nonNil(s.Losers),
		Recommendations:  nonNil(s.Recommendations),
		GeneratedAt:      s.GeneratedAt,
	}
	for _, p := range s.Positions {
		out.Positions = append(out.Positions, PositionResponse{
			Symbol:         p.Holding.Symbol,
			Quantity:       p.Holding.Quantity,
			BuyPrice:       p.Holding.BuyPrice,
			CurrentPrice:   p.Quote.Price,
			ChangePercent:  p.Quote.ChangePercent,
			CostBasis:      round(p.CostBasis),
			MarketValue:    round(p.MarketValue),
			PnL:            round(p.PnL),
			PnLPercent:     round(p.PnLPercent),
			RSI:            p.RSI,
			Oversold:       p.Oversold,
			Overbought:     p.Overbought,
			Recommendation: string(p.Recommendation),
		})
	}
	for _, u := range s.Unavailable {
		out.Unavailable = append(out.Unavailable, UnavailableResponse{Symbol: u.Symbol, Reason: u.Reason})
	}
	return out
}

// FromAnswer converts an assistant answer.
func FromAnswer(a assistantentity.Answer) QueryResponse {
	out := QueryResponse{
		Response:  a.Text,
		Intent:    string(a.Intent),
		Timestamp: a.Timestamp,
		Stocks:    make([]StockCard, 0, len(a.Stocks)),
	}
	for _, s := range a.Stocks {
		out.Stocks = append(out.Stocks, StockCard{
			Symbol:        s.Symbol,
			Name:          s.Name,
			Price:         s.Price,
			ChangePercent: s.ChangePercent,
			RSI:           s.RSI,
			Signal:        s.Signal,
		})
	}
	return out
}

func round(d decimal.Decimal) decimal.Decimal { return d.Round(moneyPlaces) }

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
