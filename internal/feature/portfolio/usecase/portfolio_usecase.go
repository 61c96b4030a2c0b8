// Package usecase はポートフォリオ分析のビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	indicatorentity "psx_backend/internal/feature/indicator/domain/entity"
	marketdomain "psx_backend/internal/feature/market/domain"
	marketentity "psx_backend/internal/feature/market/domain/entity"
	"psx_backend/internal/feature/portfolio/domain/entity"
	"psx_backend/internal/shared/thresholds"
)

// ReasonNotFound と ReasonUnavailable は Unavailable.Reason に入る文言です。
const (
	ReasonNotFound    = "symbol not found"
	ReasonUnavailable = "data unavailable"
)

// DefaultConcurrency は同時に取得する銘柄数の既定値です。
const DefaultConcurrency = 8

// QuoteSource は銘柄の現在値を取得します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type QuoteSource interface {
	Quote(ctx context.Context, symbol string) (marketentity.Quote, error)
}

// IndicatorEngine は銘柄のテクニカル指標を計算します。
type IndicatorEngine interface {
	Compute(ctx context.Context, symbol string) (indicatorentity.IndicatorSet, error)
}

// Config はポートフォリオ分析の設定です。
type Config struct {
	Thresholds     thresholds.Thresholds
	MaxConcurrency int
	Now            func() time.Time
}

// Lookup は1銘柄の取得結果です。Err が nil でなければ Quote は無効です。
type Lookup struct {
	Quote      marketentity.Quote
	Indicators indicatorentity.IndicatorSet
	Err        error
}

// portfolioUsecase は保有銘柄と相場・指標から損益とシグナルを算出します。
type portfolioUsecase struct {
	quotes     QuoteSource
	indicators IndicatorEngine
	cfg        Config
}

// NewPortfolioUsecase は portfolioUsecase の新しいインスタンスを生成します。
func NewPortfolioUsecase(quotes QuoteSource, indicators IndicatorEngine, cfg Config) *portfolioUsecase {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = DefaultConcurrency
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &portfolioUsecase{quotes: quotes, indicators: indicators, cfg: cfg}
}

// Analyze は保有一覧を検証し、銘柄ごとに1回だけ相場と指標を取得して PortfolioSummary を返します。
// 不正な保有が1件でもあれば domain.ErrInvalidHolding で全体が失敗します。
// 相場を取得できない銘柄は理由とともに Unavailable として報告され、合計からは除外されます。
// 全銘柄が取得できなくても分析は失敗しません。
func (u *portfolioUsecase) Analyze(ctx context.Context, holdings []entity.Holding) (entity.PortfolioSummary, error) {
	normalized, err := Normalize(holdings)
	if err != nil {
		return entity.PortfolioSummary{}, err
	}

	lookups, err := u.fetch(ctx, normalized)
	if err != nil {
		return entity.PortfolioSummary{}, err
	}

	return Summarize(normalized, lookups, u.cfg.Thresholds, u.cfg.Now().UTC()), nil
}

// Normalize は銘柄表記を正規化し、各保有を検証します。入力スライスは変更しません。
func Normalize(holdings []entity.Holding) ([]entity.Holding, error) {
	out := make([]entity.Holding, len(holdings))
	for i, h := range holdings {
		h.Symbol = marketdomain.NormalizeSymbol(h.Symbol)
		if err := h.Validate(); err != nil {
			return nil, err
		}
		out[i] = h
	}
	return out, nil
}

func (u *portfolioUsecase) fetch(ctx context.Context, holdings []entity.Holding) (map[string]Lookup, error) {
	var (
		mu  sync.Mutex
		out = make(map[string]Lookup, len(holdings))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.cfg.MaxConcurrency)

	seen := make(map[string]struct{}, len(holdings))
	for _, h := range holdings {
		if _, dup := seen[h.Symbol]; dup {
			continue
		}
		seen[h.Symbol] = struct{}{}
		symbol := h.Symbol
		g.Go(func() error {
			l := u.lookup(gctx, symbol)
			if l.Err != nil && gctx.Err() != nil {
				return gctx.Err()
			}
			mu.Lock()
			out[symbol] = l
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (u *portfolioUsecase) lookup(ctx context.Context, symbol string) Lookup {
	q, err := u.quotes.Quote(ctx, symbol)
	if err != nil {
		slog.Warn("quote unavailable", "symbol", symbol, "error", err)
		return Lookup{Err: err}
	}
	l := Lookup{Quote: q, Indicators: indicatorentity.IndicatorSet{Symbol: symbol}}
	if u.indicators == nil {
		return l
	}
	set, err := u.indicators.Compute(ctx, symbol)
	if err != nil {
		// 指標は欠けても損益は計算できる
		slog.Info("indicators unavailable", "symbol", symbol, "error", err)
		return l
	}
	l.Indicators = set
	return l
}

// Summarize は取得済みの相場から PortfolioSummary を組み立てる純粋関数です。
// 保有は入力順のまま、同じ銘柄の複数保有はそれぞれ別のポジションになります。
func Summarize(holdings []entity.Holding, lookups map[string]Lookup, th thresholds.Thresholds, now time.Time) entity.PortfolioSummary {
	s := entity.PortfolioSummary{
		Positions:        make([]entity.PositionAnalysis, 0, len(holdings)),
		TotalCostBasis:   decimal.Zero,
		TotalMarketValue: decimal.Zero,
		TotalPnL:         decimal.Zero,
		TotalPnLPercent:  decimal.Zero,
		GeneratedAt:      now,
	}

	reported := make(map[string]struct{})
	held := make(map[string]marketentity.Quote)
	for _, h := range holdings {
		l, ok := lookups[h.Symbol]
		if !ok || l.Err != nil {
			if _, dup := reported[h.Symbol]; !dup {
				reported[h.Symbol] = struct{}{}
				s.Unavailable = append(s.Unavailable, entity.Unavailable{Symbol: h.Symbol, Reason: reason(l.Err)})
			}
			continue
		}
		p := Position(h, l.Quote, l.Indicators, th)
		s.Positions = append(s.Positions, p)
		held[h.Symbol] = l.Quote

		s.TotalCostBasis = s.TotalCostBasis.Add(p.CostBasis)
		s.TotalMarketValue = s.TotalMarketValue.Add(p.MarketValue)
		s.TotalPnL = s.TotalPnL.Add(p.PnL)
	}
	if s.TotalCostBasis.IsPositive() {
		s.TotalPnLPercent = s.TotalPnL.Div(s.TotalCostBasis).Mul(hundred)
	}

	quotes := make([]marketentity.Quote, 0, len(held))
	for _, q := range held {
		quotes = append(quotes, q)
	}
	for _, q := range marketentity.RankByChange(quotes, marketentity.Descending) {
		if q.ChangePercent > 0 {
			s.Gainers = append(s.Gainers, q.Symbol)
		}
	}
	for _, q := range marketentity.RankByChange(quotes, marketentity.Ascending) {
		if q.ChangePercent < 0 {
			s.Losers = append(s.Losers, q.Symbol)
		}
	}

	s.Recommendations = recommendations(s, th)
	return s
}

var hundred = decimal.NewFromInt(100)

// Position は1つの保有を現在値で評価します。
// P&L = (price - buy) * quantity、P&L% = (price / buy - 1) * 100。
func Position(h entity.Holding, q marketentity.Quote, set indicatorentity.IndicatorSet, th thresholds.Thresholds) entity.PositionAnalysis {
	price := decimal.NewFromFloat(q.Price)
	p := entity.PositionAnalysis{
		Holding:     h,
		Quote:       q,
		Indicators:  set,
		CostBasis:   h.CostBasis(),
		MarketValue: price.Mul(h.Quantity),
		PnL:         price.Sub(h.BuyPrice).Mul(h.Quantity),
		PnLPercent:  price.Div(h.BuyPrice).Sub(decimal.NewFromInt(1)).Mul(hundred),
	}

	// 履歴から計算したRSIを優先し、なければスキャナーのRSIを使う
	p.RSI = set.RSI
	if p.RSI == nil {
		p.RSI = q.RSI
	}
	if p.RSI != nil {
		p.Oversold = th.Oversold(*p.RSI)
		p.Overbought = th.Overbought(*p.RSI)
	}

	p.Recommendation = Recommend(p, th)
	return p
}

// Recommend は売られすぎ・買われすぎと損益からポジションの推奨を決めます。
func Recommend(p entity.PositionAnalysis, th thresholds.Thresholds) entity.Recommendation {
	switch {
	case p.Overbought && p.PnL.IsPositive():
		return entity.RecommendSell
	case p.Oversold:
		return entity.RecommendBuyMore
	case p.PnLPercent.LessThanOrEqual(decimal.NewFromFloat(th.PnLLossPct)):
		return entity.RecommendReview
	default:
		return entity.RecommendHold
	}
}

func recommendations(s entity.PortfolioSummary, th thresholds.Thresholds) []string {
	var out []string
	for _, p := range s.Positions {
		rsi := "n/a"
		if p.RSI != nil {
			rsi = fmt.Sprintf("%.1f", *p.RSI)
		}
		switch p.Recommendation {
		case entity.RecommendSell:
			out = append(out, fmt.Sprintf("%s: overbought (RSI %s) while up %s%%, consider taking profit", p.Holding.Symbol, rsi, p.PnLPercent.StringFixed(2)))
		case entity.RecommendBuyMore:
			out = append(out, fmt.Sprintf("%s: oversold (RSI %s), consider averaging down", p.Holding.Symbol, rsi))
		case entity.RecommendReview:
			out = append(out, fmt.Sprintf("%s: down %s%%, review the position", p.Holding.Symbol, p.PnLPercent.Abs().StringFixed(2)))
		}
	}
	switch {
	case len(s.Positions) == 0:
	case s.TotalPnLPercent.GreaterThanOrEqual(decimal.NewFromFloat(th.PnLGainPct)):
		out = append(out, fmt.Sprintf("Portfolio is up %s%% overall", s.TotalPnLPercent.StringFixed(2)))
	case s.TotalPnLPercent.LessThanOrEqual(decimal.NewFromFloat(th.PnLLossPct)):
		out = append(out, fmt.Sprintf("Portfolio is down %s%% overall, consider rebalancing", s.TotalPnLPercent.Abs().StringFixed(2)))
	}
	if len(s.Unavailable) > 0 {
		out = append(out, fmt.Sprintf("%d symbol(s) had no market data and were excluded from totals", len(s.Unavailable)))
	}
	return out
}

func reason(err error) string {
	if errors.Is(err, marketdomain.ErrSymbolNotFound) {
		return ReasonNotFound
	}
	return ReasonUnavailable
}
