// Package handler はassistantフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"psx_backend/internal/api"
	"psx_backend/internal/feature/assistant/domain"
	"psx_backend/internal/feature/assistant/domain/entity"
	"psx_backend/internal/feature/assistant/usecase"
	marketdomain "psx_backend/internal/feature/market/domain"
	portfoliodomain "psx_backend/internal/feature/portfolio/domain"
)

// AssistantUsecase は質問応答のユースケースインターフェースです。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type AssistantUsecase interface {
	Ask(ctx context.Context, q usecase.Query) (entity.Answer, error)
}

// AssistantHandler は自然言語クエリのHTTPリクエストを処理します。
type AssistantHandler struct {
	uc AssistantUsecase
}

// NewAssistantHandler は AssistantHandler の新しいインスタンスを生成します。
func NewAssistantHandler(uc AssistantUsecase) *AssistantHandler {
	return &AssistantHandler{uc: uc}
}

// Query は質問を分類して該当する機能の結果を回答として返します。
//
// エンドポイント例:
// POST /api/v1/query {"query":"top 5 gainers today"}
func (h *AssistantHandler) Query(c *gin.Context) {
	var req api.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("invalid query request", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request body"})
		return
	}

	ans, err := h.uc.Ask(c.Request.Context(), usecase.Query{
		Question: req.Query,
		Holdings: api.ToHoldings(req.Portfolio),
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptyQuestion),
			errors.Is(err, domain.ErrUnknownIntent),
			errors.Is(err, portfoliodomain.ErrInvalidHolding):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		case errors.Is(err, marketdomain.ErrSymbolNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: err.Error()})
		default:
			slog.Error("query failed", "error", err)
			c.JSON(http.StatusBadGateway, api.ErrorResponse{Error: err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, api.FromAnswer(ans))
}
