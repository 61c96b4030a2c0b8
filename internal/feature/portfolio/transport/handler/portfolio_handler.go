// Package handler はportfolioフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"psx_backend/internal/api"
	"psx_backend/internal/feature/portfolio/domain"
	"psx_backend/internal/feature/portfolio/domain/entity"
)

// PortfolioUsecase はポートフォリオ分析のユースケースインターフェースです。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type PortfolioUsecase interface {
	Analyze(ctx context.Context, holdings []entity.Holding) (entity.PortfolioSummary, error)
}

// PortfolioHandler はポートフォリオ関連のHTTPリクエストを処理します。
type PortfolioHandler struct {
	uc PortfolioUsecase
}

// NewPortfolioHandler は PortfolioHandler の新しいインスタンスを生成します。
func NewPortfolioHandler(uc PortfolioUsecase) *PortfolioHandler {
	return &PortfolioHandler{uc: uc}
}

// Analyze は保有一覧を受け取り、損益とシグナルの集計を返します。
//
// エンドポイント例:
// POST /api/v1/portfolio/analyze {"portfolio":[{"symbol":"SHEZ","quantity":100,"buy_price":280}]}
func (h *PortfolioHandler) Analyze(c *gin.Context) {
	var req api.PortfolioAnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("invalid portfolio request", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request body"})
		return
	}

	summary, err := h.uc.Analyze(c.Request.Context(), api.ToHoldings(req.Portfolio))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidHolding) {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
			return
		}
		slog.Error("portfolio analysis failed", "error", err)
		c.JSON(http.StatusBadGateway, api.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, api.FromSummary(summary))
}
