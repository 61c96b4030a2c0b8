// Package api defines the JSON request and response bodies of the HTTP API.
package api

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/shopspring/decimal"
)

// ErrorResponse defines model for ErrorResponse.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse defines model for HealthResponse.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// CandleResponse defines model for CandleResponse.
type CandleResponse struct {
	Time   string  `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// QuoteResponse defines model for QuoteResponse.
type QuoteResponse struct {
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name,omitempty"`
	Price         float64   `json:"price"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Volume        int64     `json:"volume"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	RSI           *float64  `json:"rsi,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// IndicatorResponse defines model for IndicatorResponse. Absent indicators are null and listed in Missing.
type IndicatorResponse struct {
	Points          int      `json:"points"`
	RSI             *float64 `json:"rsi"`
	MACD            *float64 `json:"macd"`
	MACDSignal      *float64 `json:"macd_signal"`
	MACDHistogram   *float64 `json:"macd_histogram"`
	SMA20           *float64 `json:"sma20"`
	BollingerUpper  *float64 `json:"bollinger_upper"`
	BollingerMiddle *float64 `json:"bollinger_middle"`
	BollingerLower  *float64 `json:"bollinger_lower"`
	Missing         []string `json:"missing,omitempty"`
}

// StockAnalysisResponse defines model for StockAnalysisResponse.
type StockAnalysisResponse struct {
	Quote           QuoteResponse     `json:"quote"`
	Indicators      IndicatorResponse `json:"indicators"`
	RSISignal       string            `json:"rsi_signal"`
	BollingerSignal string            `json:"bollinger_signal"`
	OverallSignal   string            `json:"overall_signal"`
}

// CurrentPricesResponse maps the requested symbol to its price. Unknown symbols are omitted.
type CurrentPricesResponse map[string]float64

// HoldingRequest defines model for HoldingRequest. Quantity and BuyPrice accept JSON numbers or strings.
type HoldingRequest struct {
	Symbol   string          `json:"symbol" binding:"required"`
	Quantity decimal.Decimal `json:"quantity"`
	BuyPrice decimal.Decimal `json:"buy_price"`
}

// PortfolioAnalyzeRequest defines model for PortfolioAnalyzeRequest.
type PortfolioAnalyzeRequest struct {
	Portfolio []HoldingRequest `json:"portfolio" binding:"required,dive"`
}

// PositionResponse defines model for PositionResponse.
type PositionResponse struct {
	Symbol         string          `json:"symbol"`
	Quantity       decimal.Decimal `json:"quantity"`
	BuyPrice       decimal.Decimal `json:"buy_price"`
	CurrentPrice   float64         `json:"current_price"`
	ChangePercent  float64         `json:"change_percent"`
	CostBasis      decimal.Decimal `json:"cost_basis"`
	MarketValue    decimal.Decimal `json:"market_value"`
	PnL            decimal.Decimal `json:"pnl"`
	PnLPercent     decimal.Decimal `json:"pnl_percent"`
	RSI            *float64        `json:"rsi"`
	Oversold       bool            `json:"oversold"`
	Overbought     bool            `json:"overbought"`
	Recommendation string          `json:"recommendation"`
}

// UnavailableResponse defines model for UnavailableResponse.
type UnavailableResponse struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

// PortfolioSummaryResponse defines model for PortfolioSummaryResponse.
type PortfolioSummaryResponse struct {
	Positions        []PositionResponse    `json:"positions"`
	Unavailable      []UnavailableResponse `json:"unavailable"`
	TotalCostBasis   decimal.Decimal       `json:"total_cost_basis"`
	TotalMarketValue decimal.Decimal       `json:"total_market_value"`
	TotalPnL         decimal.Decimal       `json:"total_pnl"`
	TotalPnLPercent  decimal.Decimal       `json:"total_pnl_percent"`
	Gainers          []string              `json:"gainers"`
	Losers           []string              `json:"losers"`
	Recommendations  []string              `json:"recommendations"`
	GeneratedAt      time.Time             `json:"generated_at"`
}

// AlertRuleRequest defines model for AlertRuleRequest.
type AlertRuleRequest struct {
	Symbol    string  `json:"symbol" binding:"required"`
	AlertType string  `json:"alert_type" binding:"required"`
	Threshold float64 `json:"threshold"`
	Condition string  `json:"condition,omitempty"`
	IsActive  *bool   `json:"is_active,omitempty"`
}

// SendUpdateRequest defines model for SendUpdateRequest.
type SendUpdateRequest struct {
	Email     openapi_types.Email `json:"email" binding:"required"`
	Portfolio []HoldingRequest    `json:"portfolio" binding:"dive"`
	Alerts    []AlertRuleRequest  `json:"alerts" binding:"dive"`
}

// AlertEventResponse defines model for AlertEventResponse.
type AlertEventResponse struct {
	ID        openapi_types.UUID `json:"id"`
	Kind      string             `json:"kind"`
	Symbol    string             `json:"symbol"`
	Severity  string             `json:"severity"`
	Reason    string             `json:"reason"`
	Value     float64            `json:"value"`
	Threshold float64            `json:"threshold"`
}

// SendUpdateResponse defines model for SendUpdateResponse.
type SendUpdateResponse struct {
	Delivered bool                     `json:"delivered"`
	Error     string                   `json:"error,omitempty"`
	Alerts    []AlertEventResponse     `json:"alerts"`
	Summary   PortfolioSummaryResponse `json:"summary"`
}

// AlertRecordResponse defines model for AlertRecordResponse.
type AlertRecordResponse struct {
	AlertEventResponse
	Recipient   string    `json:"recipient"`
	Delivered   bool      `json:"delivered"`
	Error       string    `json:"error,omitempty"`
	TriggeredAt time.Time `json:"triggered_at"`
}

// QueryRequest defines model for QueryRequest.
type QueryRequest struct {
	Query     string           `json:"query" binding:"required"`
	Portfolio []HoldingRequest `json:"portfolio" binding:"dive"`
}

// StockCard defines model for StockCard.
type StockCard struct {
	Symbol        string   `json:"symbol"`
	Name          string   `json:"name,omitempty"`
	Price         float64  `json:"price"`
	ChangePercent float64  `json:"change_percent"`
	RSI           *float64 `json:"rsi,omitempty"`
	Signal        string   `json:"signal,omitempty"`
}

// QueryResponse defines model for QueryResponse.
type QueryResponse struct {
	Response  string      `json:"response"`
	Intent    string      `json:"intent"`
	Timestamp time.Time   `json:"timestamp"`
	Stocks    []StockCard `json:"stocks"`
}
