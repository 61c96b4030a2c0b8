// Package handler はmarketフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"

	"psx_backend/internal/api"
	"psx_backend/internal/feature/market/domain"
	"psx_backend/internal/feature/market/domain/entity"
	"psx_backend/internal/feature/market/usecase"
)

const (
	// DefaultHistoryPoints は履歴エンドポイントのデフォルト件数です。
	DefaultHistoryPoints = 120
	// MaxHistoryPoints は履歴エンドポイントの最大件数です。
	MaxHistoryPoints = 1000
)

// MarketUsecase は市場データのユースケースインターフェースです。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type MarketUsecase interface {
	TopGainers(ctx context.Context, limit int) ([]entity.Quote, error)
	TopLosers(ctx context.Context, limit int) ([]entity.Quote, error)
	Oversold(ctx context.Context, threshold float64, limit int) ([]entity.Quote, error)
	Overbought(ctx context.Context, threshold float64, limit int) ([]entity.Quote, error)
	StockAnalysis(ctx context.Context, symbol string) (entity.StockAnalysis, error)
	CurrentPrices(ctx context.Context, symbols []string) (map[string]float64, error)
}

// HistoryUsecase は日足履歴のユースケースインターフェースです。
type HistoryUsecase interface {
	History(ctx context.Context, symbol string, points int) ([]entity.Candle, error)
}

// MarketHandler は市場データのHTTPリクエストを処理します。
type MarketHandler struct {
	uc      MarketUsecase
	history HistoryUsecase
}

// NewMarketHandler は MarketHandler の新しいインスタンスを生成します。
func NewMarketHandler(uc MarketUsecase, history HistoryUsecase) *MarketHandler {
	return &MarketHandler{uc: uc, history: history}
}

// TopGainers は騰落率の高い順に銘柄を返します。
//
// エンドポイント例:
// GET /api/v1/stocks/top-gainers?limit=10
func (h *MarketHandler) TopGainers(c *gin.Context) {
	h.ranking(c, h.uc.TopGainers)
}

// TopLosers は騰落率の低い順に銘柄を返します。
//
// エンドポイント例:
// GET /api/v1/stocks/top-losers?limit=10
func (h *MarketHandler) TopLosers(c *gin.Context) {
	h.ranking(c, h.uc.TopLosers)
}

func (h *MarketHandler) ranking(c *gin.Context, fetch func(context.Context, int) ([]entity.Quote, error)) {
	limit, ok := bindInt(c, "limit", usecase.DefaultLimit)
	if !ok {
		return
	}
	qs, err := fetch(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.FromQuotes(qs))
}

// Oversold はRSIが閾値を下回る銘柄を返します。
//
// エンドポイント例:
// GET /api/v1/stocks/oversold?threshold=30&limit=10
func (h *MarketHandler) Oversold(c *gin.Context) {
	h.scan(c, h.uc.Oversold)
}

// Overbought はRSIが閾値を上回る銘柄を返します。
//
// エンドポイント例:
// GET /api/v1/stocks/overbought?threshold=70&limit=10
func (h *MarketHandler) Overbought(c *gin.Context) {
	h.scan(c, h.uc.Overbought)
}

func (h *MarketHandler) scan(c *gin.Context, fetch func(context.Context, float64, int) ([]entity.Quote, error)) {
	// 閾値が未指定の場合は0を渡し、ユースケース側の設定値を使う
	var threshold float64
	if err := runtime.BindQueryParameter("form", true, false, "threshold", c.Request.URL.Query(), &threshold); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "threshold must be a number"})
		return
	}
	if threshold < 0 || threshold > 100 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "threshold must be between 0 and 100"})
		return
	}
	limit, ok := bindInt(c, "limit", usecase.DefaultLimit)
	if !ok {
		return
	}
	qs, err := fetch(c.Request.Context(), threshold, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.FromQuotes(qs))
}

// Stock は1銘柄の相場とテクニカル指標、シグナルを返します。
//
// エンドポイント例:
// GET /api/v1/stocks/SHEZ
func (h *MarketHandler) Stock(c *gin.Context) {
	a, err := h.uc.StockAnalysis(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.FromStockAnalysis(a))
}

// CurrentPrices は銘柄コードの配列を受け取り、銘柄ごとの現在値を返します。
//
// エンドポイント例:
// POST /api/v1/stocks/current-prices ["SHEZ","OGDC"]
func (h *MarketHandler) CurrentPrices(c *gin.Context) {
	var symbols []string
	if err := c.ShouldBindJSON(&symbols); err != nil || len(symbols) == 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "body must be a non-empty array of symbols"})
		return
	}
	if len(symbols) > usecase.MaxLimit {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "too many symbols"})
		return
	}
	prices, err := h.uc.CurrentPrices(c.Request.Context(), symbols)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.CurrentPricesResponse(prices))
}

// History は日足の履歴を古い順に返します。
//
// エンドポイント例:
// GET /api/v1/stocks/SHEZ/history?points=120
func (h *MarketHandler) History(c *gin.Context) {
	points, ok := bindInt(c, "points", DefaultHistoryPoints)
	if !ok {
		return
	}
	if points < 1 || points > MaxHistoryPoints {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "points must be between 1 and 1000"})
		return
	}
	candles, err := h.history.History(c.Request.Context(), c.Param("symbol"), points)
	if err != nil {
		writeError(c, err)
		return
	}

	// データをフォーマット
	out := make([]api.CandleResponse, 0, len(candles))
	for _, x := range candles {
		out = append(out, api.CandleResponse{
			Time:   x.Time.UTC().Format("2006-01-02"),
			Open:   x.Open,
			High:   x.High,
			Low:    x.Low,
			Close:  x.Close,
			Volume: x.Volume,
		})
	}
	c.JSON(http.StatusOK, out)
}

// bindInt は整数のクエリパラメータを読み取ります。未指定なら def を返し、不正な値なら400を書き込みます。
func bindInt(c *gin.Context, name string, def int) (int, bool) {
	if _, present := c.GetQuery(name); !present {
		return def, true
	}
	var v int
	if err := runtime.BindQueryParameter("form", true, false, name, c.Request.URL.Query(), &v); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: name + " must be an integer"})
		return 0, false
	}
	return v, true
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrInvalidLimit):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrSymbolNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: err.Error()})
	default:
		slog.Error("market request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusBadGateway, api.ErrorResponse{Error: err.Error()})
	}
}
