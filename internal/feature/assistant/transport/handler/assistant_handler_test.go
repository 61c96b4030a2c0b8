package handler_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"psx_backend/internal/feature/assistant/domain"
	"psx_backend/internal/feature/assistant/domain/entity"
	"psx_backend/internal/feature/assistant/transport/handler"
	"psx_backend/internal/feature/assistant/usecase"
	marketdomain "psx_backend/internal/feature/market/domain"
	portfoliodomain "psx_backend/internal/feature/portfolio/domain"
)

// mockAssistantUsecase はAssistantUsecaseのモック実装です。
type mockAssistantUsecase struct {
	AskFunc func(ctx context.Context, q usecase.Query) (entity.Answer, error)
}

func (m *mockAssistantUsecase) Ask(ctx context.Context, q usecase.Query) (entity.Answer, error) {
	return m.AskFunc(ctx, q)
}

func TestAssistantHandler_Query(t *testing.T) {
	gin.SetMode(gin.TestMode)

	ts := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	rsi := 22.5

	tests := []struct {
		name           string
		body           string
		mockAsk        func(ctx context.Context, q usecase.Query) (entity.Answer, error)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "success: answer with stock cards",
			body: `{"query":"oversold stocks"}`,
			mockAsk: func(ctx context.Context, q usecase.Query) (entity.Answer, error) {
				assert.Equal(t, "oversold stocks", q.Question)
				assert.Empty(t, q.Holdings)
				return entity.Answer{
					Intent:    entity.IntentOversoldScan,
					Text:      "OGDC looks oversold.",
					Stocks:    []entity.StockCard{{Symbol: "PSX:OGDC", Price: 140, RSI: &rsi}},
					Timestamp: ts,
				}, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody: `{"response":"OGDC looks oversold.","intent":"oversold_scan","timestamp":"2025-01-15T10:00:00Z",
				"stocks":[{"symbol":"PSX:OGDC","price":140,"change_percent":0,"rsi":22.5}]}`,
		},
		{
			name: "success: holdings are forwarded",
			body: `{"query":"how am I doing","portfolio":[{"symbol":"SHEZ","quantity":100,"buy_price":280}]}`,
			mockAsk: func(ctx context.Context, q usecase.Query) (entity.Answer, error) {
				require.Len(t, q.Holdings, 1)
				assert.Equal(t, "SHEZ", q.Holdings[0].Symbol)
				return entity.Answer{Intent: entity.IntentPortfolioAnalysis, Text: "up", Timestamp: ts}, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"response":"up","intent":"portfolio_analysis","timestamp":"2025-01-15T10:00:00Z","stocks":[]}`,
		},
		{
			name:           "failure: missing query",
			body:           `{}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"invalid request body"}`,
		},
		{
			name: "failure: blank question",
			body: `{"query":"   "}`,
			mockAsk: func(ctx context.Context, q usecase.Query) (entity.Answer, error) {
				return entity.Answer{}, domain.ErrEmptyQuestion
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   fmt.Sprintf(`{"error":%q}`, domain.ErrEmptyQuestion.Error()),
		},
		{
			name: "failure: invalid holding",
			body: `{"query":"analyze","portfolio":[{"symbol":"SHEZ","quantity":-1,"buy_price":280}]}`,
			mockAsk: func(ctx context.Context, q usecase.Query) (entity.Answer, error) {
				return entity.Answer{}, fmt.Errorf("portfolio_analysis: %w", portfoliodomain.ErrInvalidHolding)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   fmt.Sprintf(`{"error":%q}`, "portfolio_analysis: "+portfoliodomain.ErrInvalidHolding.Error()),
		},
		{
			name: "failure: unknown symbol",
			body: `{"query":"analyze NOPE"}`,
			mockAsk: func(ctx context.Context, q usecase.Query) (entity.Answer, error) {
				return entity.Answer{}, fmt.Errorf("stock_analysis: %w", marketdomain.ErrSymbolNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   fmt.Sprintf(`{"error":%q}`, "stock_analysis: "+marketdomain.ErrSymbolNotFound.Error()),
		},
		{
			name: "failure: upstream error",
			body: `{"query":"top gainers"}`,
			mockAsk: func(ctx context.Context, q usecase.Query) (entity.Answer, error) {
				return entity.Answer{}, errors.New("top_gainers: scan market: tradingview http 503")
			},
			expectedStatus: http.StatusBadGateway,
			expectedBody:   `{"error":"top_gainers: scan market: tradingview http 503"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUC := &mockAssistantUsecase{AskFunc: tt.mockAsk}
			h := handler.NewAssistantHandler(mockUC)

			router := gin.New()
			router.POST("/api/v1/query", h.Query)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/query", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}
