package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	indicatorentity "psx_backend/internal/feature/indicator/domain/entity"
	"psx_backend/internal/feature/market/domain"
	"psx_backend/internal/feature/market/domain/entity"
	"psx_backend/internal/shared/thresholds"
)

const (
	// DefaultLimit はランキング系クエリのデフォルト件数です。
	DefaultLimit = 10
	// MaxLimit はランキング系クエリの最大件数です。
	MaxLimit = 100
	// DefaultConcurrency は銘柄ごとの同時取得数のデフォルト値です。
	DefaultConcurrency = 8
	// overallSignalMovePct は総合シグナル判定に使う騰落率の閾値です。
	overallSignalMovePct = 2.0
)

// ErrInvalidLimit は件数の指定が範囲外の場合に返されます。
var ErrInvalidLimit = errors.New("limit must be between 1 and 100")

// QuoteSource は相場情報を提供する外部コラボレーターです。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type QuoteSource interface {
	// Quote は1銘柄の最新相場を返します。見つからない場合は domain.ErrSymbolNotFound を返します。
	Quote(ctx context.Context, symbol string) (entity.Quote, error)
	// Scan は市場全体のスナップショット（RSI列付き）を返します。
	Scan(ctx context.Context) ([]entity.Quote, error)
}

// IndicatorEngine は銘柄のテクニカル指標を計算します。
type IndicatorEngine interface {
	Compute(ctx context.Context, symbol string) (indicatorentity.IndicatorSet, error)
}

// Config はmarketユースケースの設定です。
type Config struct {
	Thresholds     thresholds.Thresholds
	MaxConcurrency int
}

// marketUsecase は値上がり・値下がりランキング、RSIスキャン、個別銘柄分析を提供します。
type marketUsecase struct {
	quotes     QuoteSource
	indicators IndicatorEngine
	cfg        Config
}

// NewMarketUsecase はmarketUsecaseの新しいインスタンスを生成します。
func NewMarketUsecase(quotes QuoteSource, indicators IndicatorEngine, cfg Config) *marketUsecase {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = DefaultConcurrency
	}
	return &marketUsecase{quotes: quotes, indicators: indicators, cfg: cfg}
}

// TopGainers は騰落率の降順で最大 limit 件を返します。データが少ない場合はその件数だけ返します。
func (u *marketUsecase) TopGainers(ctx context.Context, limit int) ([]entity.Quote, error) {
	return u.movers(ctx, limit, entity.Descending)
}

// TopLosers は騰落率の昇順で最大 limit 件を返します。
func (u *marketUsecase) TopLosers(ctx context.Context, limit int) ([]entity.Quote, error) {
	return u.movers(ctx, limit, entity.Ascending)
}

func (u *marketUsecase) movers(ctx context.Context, limit int, order entity.Order) ([]entity.Quote, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	qs, err := u.quotes.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan market: %w", err)
	}
	return entity.Head(entity.RankByChange(qs, order), limit), nil
}

// Oversold はRSIが threshold 未満の銘柄をRSIの昇順で返します。threshold が0以下なら設定値を使います。
func (u *marketUsecase) Oversold(ctx context.Context, threshold float64, limit int) ([]entity.Quote, error) {
	if threshold <= 0 {
		threshold = u.cfg.Thresholds.RSIOversold
	}
	return u.scanRSI(ctx, limit, entity.Ascending, func(rsi float64) bool { return rsi < threshold })
}

// Overbought はRSIが threshold を超える銘柄をRSIの降順で返します。
func (u *marketUsecase) Overbought(ctx context.Context, threshold float64, limit int) ([]entity.Quote, error) {
	if threshold <= 0 {
		threshold = u.cfg.Thresholds.RSIOverbought
	}
	return u.scanRSI(ctx, limit, entity.Descending, func(rsi float64) bool { return rsi > threshold })
}

func (u *marketUsecase) scanRSI(ctx context.Context, limit int, order entity.Order, keep func(float64) bool) ([]entity.Quote, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	qs, err := u.quotes.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan market: %w", err)
	}
	filtered := make([]entity.Quote, 0, len(qs))
	for _, q := range qs {
		if q.RSI != nil && keep(*q.RSI) {
			filtered = append(filtered, q)
		}
	}
	return entity.Head(entity.RankByRSI(filtered, order), limit), nil
}

// StockAnalysis は相場と指標を組み合わせて個別銘柄の分析を返します。
// 指標の計算に失敗しても相場が取得できていれば部分的な分析を返します。
func (u *marketUsecase) StockAnalysis(ctx context.Context, symbol string) (entity.StockAnalysis, error) {
	symbol = domain.NormalizeSymbol(symbol)
	if symbol == "" {
		return entity.StockAnalysis{}, fmt.Errorf("%w: empty symbol", domain.ErrSymbolNotFound)
	}

	var (
		quote entity.Quote
		set   indicatorentity.IndicatorSet
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		q, err := u.quotes.Quote(gctx, symbol)
		if err != nil {
			return err
		}
		quote = q
		return nil
	})
	g.Go(func() error {
		s, err := u.indicators.Compute(gctx, symbol)
		if err != nil {
			if gctx.Err() == nil {
				slog.Warn("indicator computation failed", "symbol", symbol, "error", err)
			}
			s = indicatorentity.IndicatorSet{Symbol: symbol}
		}
		set = s
		return nil
	})
	if err := g.Wait(); err != nil {
		return entity.StockAnalysis{}, err
	}
	return Analyze(quote, set, u.cfg.Thresholds), nil
}

// Analyze は相場と指標からシグナルを導出する純粋関数です。
func Analyze(q entity.Quote, set indicatorentity.IndicatorSet, th thresholds.Thresholds) entity.StockAnalysis {
	a := entity.StockAnalysis{
		Quote:           q,
		Indicators:      set,
		RSISignal:       entity.SignalUnknown,
		BollingerSignal: entity.SignalUnknown,
		OverallSignal:   entity.SignalNeutral,
	}

	if set.RSI != nil {
		switch {
		case th.Overbought(*set.RSI):
			a.RSISignal = entity.SignalOverbought
		case th.Oversold(*set.RSI):
			a.RSISignal = entity.SignalOversold
		default:
			a.RSISignal = entity.SignalNeutral
		}
	}

	if set.BollingerUpper != nil && set.BollingerLower != nil {
		switch {
		case q.Price > *set.BollingerUpper:
			a.BollingerSignal = entity.SignalAboveUpperBand
		case q.Price < *set.BollingerLower:
			a.BollingerSignal = entity.SignalBelowLowerBand
		default:
			a.BollingerSignal = entity.SignalWithinBands
		}
	}

	switch {
	case q.ChangePercent > overallSignalMovePct && (set.RSI == nil || !th.Overbought(*set.RSI)):
		a.OverallSignal = entity.SignalBullish
	case q.ChangePercent < -overallSignalMovePct:
		a.OverallSignal = entity.SignalBearish
	}
	return a
}

// CurrentPrices は銘柄ごとに並行して相場を取得し、取得できた銘柄の価格を返します。
// 見つからない銘柄は結果から除外されます。キーは入力された表記のままです。
func (u *marketUsecase) CurrentPrices(ctx context.Context, symbols []string) (map[string]float64, error) {
	var (
		mu  sync.Mutex
		out = make(map[string]float64, len(symbols))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.cfg.MaxConcurrency)

	seen := make(map[string]struct{}, len(symbols))
	for _, raw := range symbols {
		if _, dup := seen[raw]; dup {
			continue
		}
		seen[raw] = struct{}{}
		g.Go(func() error {
			q, err := u.quotes.Quote(gctx, domain.NormalizeSymbol(raw))
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				slog.Warn("price unavailable", "symbol", raw, "error", err)
				return nil
			}
			mu.Lock()
			out[raw] = q.Price
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func checkLimit(limit int) error {
	if limit < 1 || limit > MaxLimit {
		return fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	return nil
}
