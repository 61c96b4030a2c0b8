package router

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	alertentity "psx_backend/internal/feature/alert/domain/entity"
	alerthandler "psx_backend/internal/feature/alert/transport/handler"
	alertusecase "psx_backend/internal/feature/alert/usecase"
	assistantentity "psx_backend/internal/feature/assistant/domain/entity"
	assistanthandler "psx_backend/internal/feature/assistant/transport/handler"
	assistantusecase "psx_backend/internal/feature/assistant/usecase"
	marketentity "psx_backend/internal/feature/market/domain/entity"
	markethandler "psx_backend/internal/feature/market/transport/handler"
	portfolioentity "psx_backend/internal/feature/portfolio/domain/entity"
	portfoliohandler "psx_backend/internal/feature/portfolio/transport/handler"
	"psx_backend/internal/platform/config"
	jwtmw "psx_backend/internal/platform/jwt"
	"psx_backend/internal/platform/metrics"
)

// stubMarket は呼ばれたメソッド名を記録するだけのスタブです。
type stubMarket struct{ called string }

func (s *stubMarket) TopGainers(context.Context, int) ([]marketentity.Quote, error) {
	s.called = "TopGainers"
	return nil, nil
}
func (s *stubMarket) TopLosers(context.Context, int) ([]marketentity.Quote, error) {
	s.called = "TopLosers"
	return nil, nil
}
func (s *stubMarket) Oversold(context.Context, float64, int) ([]marketentity.Quote, error) {
	s.called = "Oversold"
	return nil, nil
}
func (s *stubMarket) Overbought(context.Context, float64, int) ([]marketentity.Quote, error) {
	s.called = "Overbought"
	return nil, nil
}
func (s *stubMarket) StockAnalysis(_ context.Context, symbol string) (marketentity.StockAnalysis, error) {
	s.called = "StockAnalysis:" + symbol
	return marketentity.StockAnalysis{}, nil
}
func (s *stubMarket) CurrentPrices(context.Context, []string) (map[string]float64, error) {
	s.called = "CurrentPrices"
	return map[string]float64{}, nil
}
func (s *stubMarket) History(_ context.Context, symbol string, _ int) ([]marketentity.Candle, error) {
	s.called = "History:" + symbol
	return nil, nil
}

type stubPortfolio struct{}

func (stubPortfolio) Analyze(context.Context, []portfolioentity.Holding) (portfolioentity.PortfolioSummary, error) {
	return portfolioentity.PortfolioSummary{}, nil
}

type stubAlerts struct{ sent int }

func (s *stubAlerts) SendUpdate(context.Context, alertusecase.UpdateRequest) (alertusecase.UpdateResult, error) {
	s.sent++
	return alertusecase.UpdateResult{Delivered: true}, nil
}
func (s *stubAlerts) History(context.Context, string, int) ([]alertentity.Record, error) {
	return nil, nil
}

type stubAssistant struct{}

func (stubAssistant) Ask(context.Context, assistantusecase.Query) (assistantentity.Answer, error) {
	return assistantentity.Answer{Intent: assistantentity.IntentHelp}, nil
}

const secret = "router-secret"

func newTestRouter(t *testing.T) (*gin.Engine, *stubMarket, *stubAlerts) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	market := &stubMarket{}
	alerts := &stubAlerts{}
	r := NewRouter(Handlers{
		Market:    markethandler.NewMarketHandler(market, market),
		Portfolio: portfoliohandler.NewPortfolioHandler(stubPortfolio{}),
		Alert:     alerthandler.NewAlertHandler(alerts),
		Assistant: assistanthandler.NewAssistantHandler(stubAssistant{}),
	}, Options{
		Server:    config.ServerConfig{CORSOrigins: []string{"https://app.example.com"}},
		JWTSecret: secret,
		Metrics:   metrics.New("test"),
	})
	return r, market, alerts
}

func do(r *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_StockRoutes(t *testing.T) {
	r, market, _ := newTestRouter(t)

	tests := []struct {
		method, path, body string
		want               string
	}{
		{http.MethodGet, "/api/v1/stocks/top-gainers", "", "TopGainers"},
		{http.MethodGet, "/api/v1/stocks/top-losers", "", "TopLosers"},
		{http.MethodGet, "/api/v1/stocks/oversold", "", "Oversold"},
		{http.MethodGet, "/api/v1/stocks/overbought", "", "Overbought"},
		{http.MethodPost, "/api/v1/stocks/current-prices", `["SHEZ"]`, "CurrentPrices"},
		{http.MethodGet, "/api/v1/stocks/SHEZ", "", "StockAnalysis:SHEZ"},
		{http.MethodGet, "/api/v1/stocks/OGDC/history", "", "History:OGDC"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := do(r, tt.method, tt.path, tt.body, map[string]string{"Content-Type": "application/json"})
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, market.called)
		})
	}
}

func TestRouter_SendUpdateRequiresToken(t *testing.T) {
	r, _, alerts := newTestRouter(t)
	body := `{"email":"me@example.com","portfolio":[{"symbol":"SHEZ","quantity":1,"buy_price":1}]}`
	jsonHeader := map[string]string{"Content-Type": "application/json"}

	w := do(r, http.MethodPost, "/api/v1/email/send-update", body, jsonHeader)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, alerts.sent)

	token, err := jwtmw.NewGenerator(secret, time.Hour).GenerateToken("ops")
	require.NoError(t, err)
	w = do(r, http.MethodPost, "/api/v1/email/send-update", body, map[string]string{
		"Content-Type":  "application/json",
		"Authorization": "Bearer " + token,
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, alerts.sent)
}

func TestRouter_PublicEndpoints(t *testing.T) {
	r, _, _ := newTestRouter(t)

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/healthz", "", nil).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/v1/alerts/history", "", nil).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/v1/query", `{"query":"help"}`, map[string]string{"Content-Type": "application/json"}).Code)

	w := do(r, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test_http_requests_total")
}

func TestRouter_CORS(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := do(r, http.MethodOptions, "/api/v1/query", "", map[string]string{
		"Origin":                        "https://app.example.com",
		"Access-Control-Request-Method": http.MethodPost,
	})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	w = do(r, http.MethodOptions, "/api/v1/query", "", map[string]string{
		"Origin":                        "https://evil.example.com",
		"Access-Control-Request-Method": http.MethodPost,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}
