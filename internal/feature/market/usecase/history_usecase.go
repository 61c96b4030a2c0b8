// Package usecase はmarketフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"psx_backend/internal/feature/market/domain"
	"psx_backend/internal/feature/market/domain/entity"
	"psx_backend/internal/shared/ratelimiter"
)

const (
	// DailyInterval は履歴に使用する時間足です。
	DailyInterval = "1day"
	// DefaultStaleAfter は保存済み日足を最新とみなす期間です（週末と祝日をまたぐため4日）。
	DefaultStaleAfter = 96 * time.Hour
	// IngestOutputSize は取り込み時に1回のリクエストで取得する件数です。
	IngestOutputSize = 200
)

// MarketRepository は外部APIから日足を取得するリポジトリのインターフェイスです。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type MarketRepository interface {
	GetTimeSeries(ctx context.Context, symbol, interval string, outputsize int) ([]entity.Candle, error)
}

// CandleRepository は保存済み日足の読み書きを抽象化します。
type CandleRepository interface {
	// Find は新しい順に日足を返します。
	Find(ctx context.Context, symbol, interval string, outputsize int) ([]entity.Candle, error)
	UpsertBatch(ctx context.Context, candles []entity.Candle) error
}

// HistoryConfig は履歴取得の設定です。
type HistoryConfig struct {
	StaleAfter time.Duration
	Now        func() time.Time
}

// historyUsecase は保存済みの日足を優先し、古い場合のみ外部APIから取り込みます。
type historyUsecase struct {
	market      MarketRepository
	candle      CandleRepository
	rateLimiter ratelimiter.RateLimiterInterface
	cfg         HistoryConfig
}

// NewHistoryUsecase は新しい historyUsecase を作成します。
func NewHistoryUsecase(market MarketRepository, candle CandleRepository, rl ratelimiter.RateLimiterInterface, cfg HistoryConfig) *historyUsecase {
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = DefaultStaleAfter
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &historyUsecase{market: market, candle: candle, rateLimiter: rl, cfg: cfg}
}

// History は古い順に最大 points 件の日足を返します。
// 保存済みデータが新しければそれを使い、そうでなければ外部APIから取得して保存します。
// 外部APIが失敗しても保存済みデータがあればそれを返します。
func (hu *historyUsecase) History(ctx context.Context, symbol string, points int) ([]entity.Candle, error) {
	symbol = domain.NormalizeSymbol(symbol)
	stored, err := hu.candle.Find(ctx, symbol, DailyInterval, points)
	if err != nil {
		return nil, fmt.Errorf("find candles: %w", err)
	}
	if hu.fresh(stored) {
		return oldestFirst(stored), nil
	}

	fetched, err := hu.fetch(ctx, symbol, max(points, IngestOutputSize))
	if err != nil {
		if len(stored) > 0 {
			slog.Warn("history refresh failed, serving stored candles", "symbol", symbol, "stored", len(stored), "error", err)
			return oldestFirst(stored), nil
		}
		return nil, err
	}
	if err := hu.candle.UpsertBatch(ctx, fetched); err != nil {
		// 保存に失敗しても取得済みのデータは返す
		slog.Error("failed to store candles", "symbol", symbol, "error", err)
	}

	out := oldestFirst(fetched)
	if len(out) > points {
		out = out[len(out)-points:]
	}
	return out, nil
}

// IngestAll は指定された全銘柄の日足を取得し、データベースに永続化します。
// 1つの銘柄でエラーが発生しても処理を止めずに次の銘柄へ進み、失敗した銘柄数を返します。
func (hu *historyUsecase) IngestAll(ctx context.Context, symbols []string) (int, error) {
	failed := 0
	for _, s := range symbols {
		if err := ctx.Err(); err != nil {
			return failed, err
		}
		sym := domain.NormalizeSymbol(s)
		cs, err := hu.fetch(ctx, sym, IngestOutputSize)
		if err == nil {
			err = hu.candle.UpsertBatch(ctx, cs)
		}
		if err != nil {
			if ctx.Err() != nil {
				return failed, ctx.Err()
			}
			slog.Error("failed to ingest data", "symbol", sym, "error", err)
			failed++
			continue
		}
		slog.Info("ingested candles", "symbol", sym, "count", len(cs))
	}
	return failed, nil
}

func (hu *historyUsecase) fetch(ctx context.Context, symbol string, outputsize int) ([]entity.Candle, error) {
	if hu.rateLimiter != nil {
		if err := hu.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	cs, err := hu.market.GetTimeSeries(ctx, symbol, DailyInterval, outputsize)
	if err != nil {
		return nil, fmt.Errorf("fetch history for %s: %w", symbol, err)
	}
	if len(cs) == 0 {
		return nil, fmt.Errorf("%w: no history for %s", domain.ErrSymbolNotFound, symbol)
	}
	// 取得したデータに銘柄コードと時間足を設定
	for i := range cs {
		cs[i].Symbol = symbol
		cs[i].Interval = DailyInterval
	}
	return cs, nil
}

// fresh は最新の日足が StaleAfter 以内かどうかを判定します。stored は新しい順です。
func (hu *historyUsecase) fresh(stored []entity.Candle) bool {
	if len(stored) == 0 {
		return false
	}
	return hu.cfg.Now().Sub(stored[0].Time) < hu.cfg.StaleAfter
}

// oldestFirst は時刻の昇順に並べ替えたコピーを返します。
func oldestFirst(cs []entity.Candle) []entity.Candle {
	out := make([]entity.Candle, len(cs))
	copy(out, cs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}
