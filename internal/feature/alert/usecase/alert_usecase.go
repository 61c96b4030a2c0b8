// Package usecase はアラート評価と通知のビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"psx_backend/internal/feature/alert/domain"
	"psx_backend/internal/feature/alert/domain/entity"
	marketdomain "psx_backend/internal/feature/market/domain"
	marketentity "psx_backend/internal/feature/market/domain/entity"
	portfolioentity "psx_backend/internal/feature/portfolio/domain/entity"
)

// History の件数上限です。
const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

// PortfolioAnalyzer は保有一覧を分析します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type PortfolioAnalyzer interface {
	Analyze(ctx context.Context, holdings []portfolioentity.Holding) (portfolioentity.PortfolioSummary, error)
}

// QuoteSource は保有していない銘柄のユーザールール評価に使います。
type QuoteSource interface {
	Quote(ctx context.Context, symbol string) (marketentity.Quote, error)
}

// Renderer は分析結果とアラートから通知本文を組み立てます。
type Renderer interface {
	Render(to string, s portfolioentity.PortfolioSummary, events []entity.Event) (entity.Message, error)
}

// Notifier は通知を送信します。リトライは実装側の責務です。
type Notifier interface {
	Send(ctx context.Context, msg entity.Message) error
	Channel() string
}

// AlertRepository はアラートの監査ログを永続化します。
type AlertRepository interface {
	Save(ctx context.Context, records []entity.Record) error
	List(ctx context.Context, f HistoryFilter) ([]entity.Record, error)
}

// Metrics はアラートの発火と通知失敗を計測します。nil でも構いません。
type Metrics interface {
	AlertTriggered(kind, severity string)
	NotificationFailed(channel string)
}

// HistoryFilter は監査ログの絞り込み条件です。
type HistoryFilter struct {
	Symbol string
	Limit  int
}

// UpdateRequest はメール更新の入力です。
type UpdateRequest struct {
	Recipient string
	Holdings  []portfolioentity.Holding
	Rules     []entity.Rule
}

// UpdateResult は送信の成否にかかわらず、分析結果と発火したアラートを保持します。
type UpdateResult struct {
	Summary   portfolioentity.PortfolioSummary
	Events    []entity.Event
	Delivered bool
}

// alertUsecase は分析、評価、通知、記録を順に実行します。
type alertUsecase struct {
	analyzer  PortfolioAnalyzer
	quotes    QuoteSource
	evaluator Evaluator
	renderer  Renderer
	notifier  Notifier
	repo      AlertRepository
	metrics   Metrics
	now       func() time.Time
	newID     func() uuid.UUID
}

// NewAlertUsecase は alertUsecase の新しいインスタンスを生成します。
func NewAlertUsecase(
	analyzer PortfolioAnalyzer,
	quotes QuoteSource,
	evaluator Evaluator,
	renderer Renderer,
	notifier Notifier,
	repo AlertRepository,
	metrics Metrics,
) *alertUsecase {
	return &alertUsecase{
		analyzer:  analyzer,
		quotes:    quotes,
		evaluator: evaluator,
		renderer:  renderer,
		notifier:  notifier,
		repo:      repo,
		metrics:   metrics,
		now:       time.Now,
		newID:     uuid.New,
	}
}

// SendUpdate はポートフォリオを分析してアラートを評価し、メールを送信して記録します。
// 送信に失敗した場合も発火したアラートは delivered=false で記録され、
// 結果とともに domain.ErrNotificationDeliveryFailed をラップしたエラーを返します。
func (u *alertUsecase) SendUpdate(ctx context.Context, req UpdateRequest) (UpdateResult, error) {
	recipient := strings.TrimSpace(req.Recipient)
	if recipient == "" {
		return UpdateResult{}, domain.ErrInvalidRecipient
	}
	for _, r := range req.Rules {
		if !r.Active {
			continue
		}
		if err := r.Validate(); err != nil {
			return UpdateResult{}, err
		}
	}

	summary, err := u.analyzer.Analyze(ctx, req.Holdings)
	if err != nil {
		return UpdateResult{}, err
	}

	extra, err := u.ruleQuotes(ctx, summary, req.Rules)
	if err != nil {
		return UpdateResult{}, err
	}

	events := u.evaluator.Evaluate(summary, req.Rules, extra)
	for i := range events {
		events[i].ID = u.newID()
		if u.metrics != nil {
			u.metrics.AlertTriggered(string(events[i].Kind), string(events[i].Severity))
		}
	}
	res := UpdateResult{Summary: summary, Events: events}

	msg, err := u.renderer.Render(recipient, summary, events)
	if err != nil {
		return res, fmt.Errorf("render update: %w", err)
	}

	sendErr := u.notifier.Send(ctx, msg)
	res.Delivered = sendErr == nil
	if sendErr != nil {
		slog.Error("notification delivery failed", "channel", u.notifier.Channel(), "recipient", recipient, "error", sendErr)
		if u.metrics != nil {
			u.metrics.NotificationFailed(u.notifier.Channel())
		}
	}

	u.record(ctx, recipient, events, sendErr)

	if sendErr != nil {
		return res, fmt.Errorf("%w: %v", domain.ErrNotificationDeliveryFailed, sendErr)
	}
	slog.Info("update sent", "recipient", recipient, "alerts", len(events), "positions", len(summary.Positions))
	return res, nil
}

// record は監査ログへ書き込みます。書き込みの失敗は通知結果を変えません。
func (u *alertUsecase) record(ctx context.Context, recipient string, events []entity.Event, sendErr error) {
	if u.repo == nil || len(events) == 0 {
		return
	}
	at := u.now().UTC()
	records := make([]entity.Record, 0, len(events))
	for _, ev := range events {
		r := entity.Record{Event: ev, Recipient: recipient, Delivered: sendErr == nil, TriggeredAt: at}
		if sendErr != nil {
			r.Error = sendErr.Error()
		}
		records = append(records, r)
	}
	// リクエストがキャンセルされても監査ログは残す
	if err := u.repo.Save(context.WithoutCancel(ctx), records); err != nil {
		slog.Error("failed to record alerts", "count", len(records), "error", err)
	}
}

// ruleQuotes は保有していない銘柄を対象とするアクティブなルールの相場を取得します。
func (u *alertUsecase) ruleQuotes(ctx context.Context, s portfolioentity.PortfolioSummary, rules []entity.Rule) (map[string]marketentity.Quote, error) {
	held := make(map[string]struct{}, len(s.Positions))
	for _, p := range s.Positions {
		held[p.Holding.Symbol] = struct{}{}
	}
	want := make(map[string]struct{})
	for _, r := range rules {
		sym := marketdomain.NormalizeSymbol(r.Symbol)
		if _, ok := held[sym]; ok || !r.Active {
			continue
		}
		want[sym] = struct{}{}
	}
	out := make(map[string]marketentity.Quote, len(want))
	if len(want) == 0 || u.quotes == nil {
		return out, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for sym := range want {
		g.Go(func() error {
			q, err := u.quotes.Quote(gctx, sym)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				if !errors.Is(err, marketdomain.ErrSymbolNotFound) {
					slog.Warn("rule quote unavailable", "symbol", sym, "error", err)
				}
				return nil
			}
			mu.Lock()
			out[sym] = q
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// History は監査ログを新しい順に返します。limit が0以下なら既定値を使います。
func (u *alertUsecase) History(ctx context.Context, symbol string, limit int) ([]entity.Record, error) {
	if u.repo == nil {
		return []entity.Record{}, nil
	}
	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}
	f := HistoryFilter{Limit: limit}
	if symbol != "" {
		f.Symbol = marketdomain.NormalizeSymbol(symbol)
	}
	return u.repo.List(ctx, f)
}
