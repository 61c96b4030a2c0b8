// Package handler はalertフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"

	"psx_backend/internal/api"
	"psx_backend/internal/feature/alert/domain"
	"psx_backend/internal/feature/alert/domain/entity"
	"psx_backend/internal/feature/alert/usecase"
	portfoliodomain "psx_backend/internal/feature/portfolio/domain"
)

// AlertUsecase はメール更新と監査ログ参照のユースケースインターフェースです。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type AlertUsecase interface {
	SendUpdate(ctx context.Context, req usecase.UpdateRequest) (usecase.UpdateResult, error)
	History(ctx context.Context, symbol string, limit int) ([]entity.Record, error)
}

// AlertHandler はアラート関連のHTTPリクエストを処理します。
type AlertHandler struct {
	uc AlertUsecase
}

// NewAlertHandler は AlertHandler の新しいインスタンスを生成します。
func NewAlertHandler(uc AlertUsecase) *AlertHandler {
	return &AlertHandler{uc: uc}
}

// SendUpdate はポートフォリオを分析し、アラートを評価してメールを送信します。
// 送信に失敗した場合は 502 とともに発火したアラートを返します。
//
// エンドポイント例:
// POST /api/v1/email/send-update {"email":"a@example.com","portfolio":[...],"alerts":[...]}
func (h *AlertHandler) SendUpdate(c *gin.Context) {
	var req api.SendUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("invalid send-update request", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request body"})
		return
	}

	res, err := h.uc.SendUpdate(c.Request.Context(), usecase.UpdateRequest{
		Recipient: string(req.Email),
		Holdings:  api.ToHoldings(req.Portfolio),
		Rules:     toRules(req.Alerts),
	})
	switch {
	case err == nil:
		c.JSON(http.StatusOK, toUpdateResponse(res, ""))
	case errors.Is(err, domain.ErrNotificationDeliveryFailed):
		c.JSON(http.StatusBadGateway, toUpdateResponse(res, err.Error()))
	case errors.Is(err, portfoliodomain.ErrInvalidHolding),
		errors.Is(err, domain.ErrInvalidRule),
		errors.Is(err, domain.ErrInvalidRecipient):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
	default:
		slog.Error("send update failed", "error", err)
		c.JSON(http.StatusBadGateway, api.ErrorResponse{Error: err.Error()})
	}
}

// History は監査ログを新しい順に返します。
//
// エンドポイント例:
// GET /api/v1/alerts/history?symbol=SHEZ&limit=20
func (h *AlertHandler) History(c *gin.Context) {
	var limit int
	if err := runtime.BindQueryParameter("form", true, false, "limit", c.Request.URL.Query(), &limit); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "limit must be an integer"})
		return
	}

	records, err := h.uc.History(c.Request.Context(), c.Query("symbol"), limit)
	if err != nil {
		slog.Error("alert history failed", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to load alert history"})
		return
	}

	out := make([]api.AlertRecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, api.AlertRecordResponse{
			AlertEventResponse: toEventResponse(r.Event),
			Recipient:          r.Recipient,
			Delivered:          r.Delivered,
			Error:              r.Error,
			TriggeredAt:        r.TriggeredAt,
		})
	}
	c.JSON(http.StatusOK, out)
}

func toRules(in []api.AlertRuleRequest) []entity.Rule {
	out := make([]entity.Rule, 0, len(in))
	for _, r := range in {
		active := true
		if r.IsActive != nil {
			active = *r.IsActive
		}
		out = append(out, entity.Rule{
			Symbol:    r.Symbol,
			Kind:      entity.Kind(strings.ToLower(r.AlertType)),
			Condition: strings.ToLower(r.Condition),
			Threshold: r.Threshold,
			Active:    active,
		})
	}
	return out
}

func toEventResponse(e entity.Event) api.AlertEventResponse {
	return api.AlertEventResponse{
		ID:        e.ID,
		Kind:      string(e.Kind),
		Symbol:    e.Symbol,
		Severity:  string(e.Severity),
		Reason:    e.Reason,
		Value:     e.Value,
		Threshold: e.Threshold,
	}
}

func toUpdateResponse(res usecase.UpdateResult, errMsg string) api.SendUpdateResponse {
	alerts := make([]api.AlertEventResponse, 0, len(res.Events))
	for _, e := range res.Events {
		alerts = append(alerts, toEventResponse(e))
	}
	return api.SendUpdateResponse{
		Delivered: res.Delivered,
		Error:     errMsg,
		Alerts:    alerts,
		Summary:   api.FromSummary(res.Summary),
	}
}
