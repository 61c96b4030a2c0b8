// Package usecase はテクニカル指標の計算ユースケースを実装します。
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"psx_backend/internal/feature/indicator/calculator"
	"psx_backend/internal/feature/indicator/domain"
	"psx_backend/internal/feature/indicator/domain/entity"
	marketentity "psx_backend/internal/feature/market/domain/entity"
)

const (
	// RSIPeriod はRSIの期間です。
	RSIPeriod = 14
	// MinPoints はいずれかの指標を計算するのに必要な最小データ数です。
	MinPoints = RSIPeriod + 1
	// MACDFast, MACDSlow, MACDSignal はMACDのEMA期間です。
	MACDFast   = 12
	MACDSlow   = 26
	MACDSignal = 9
	// BollingerPeriod と BollingerK はボリンジャーバンドの期間と標準偏差の倍率です。
	BollingerPeriod = 20
	BollingerK      = 2.0
	// DefaultPoints は履歴取得件数のデフォルト値です。
	DefaultPoints = 120
)

// HistoryRepository は終値の履歴を取得するリポジトリです。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type HistoryRepository interface {
	// History は古い順に並んだ日足を最大 points 件返します。
	History(ctx context.Context, symbol string, points int) ([]marketentity.Candle, error)
}

// indicatorUsecase は履歴を取得してIndicatorSetを計算します。
type indicatorUsecase struct {
	history HistoryRepository
	points  int
}

// NewIndicatorUsecase はindicatorUsecaseの新しいインスタンスを生成します。
func NewIndicatorUsecase(history HistoryRepository, points int) *indicatorUsecase {
	if points < MACDSlow+MACDSignal {
		points = DefaultPoints
	}
	return &indicatorUsecase{history: history, points: points}
}

// Compute は銘柄の履歴を取得し、指標を計算します。
// 履歴が短い場合はエラーにせず、欠けたフィールドを Missing に記録した部分結果を返します。
func (u *indicatorUsecase) Compute(ctx context.Context, symbol string) (entity.IndicatorSet, error) {
	candles, err := u.history.History(ctx, symbol, u.points)
	if err != nil {
		return entity.IndicatorSet{}, fmt.Errorf("load history for %s: %w", symbol, err)
	}
	set := Compute(symbol, marketentity.Closes(candles))
	if err := Insufficient(set); err != nil {
		slog.Info("partial indicator set", "symbol", symbol, "error", err)
	}
	return set, nil
}

// Compute は古い順の終値からIndicatorSetを計算する純粋関数です。
func Compute(symbol string, closes []float64) entity.IndicatorSet {
	set := entity.IndicatorSet{Symbol: symbol, Points: len(closes)}

	// 最小件数未満ではすべての指標を欠損扱いにする
	if len(closes) < MinPoints {
		set.Missing = []string{
			entity.FieldRSI, entity.FieldMACD, entity.FieldMACDSignal,
			entity.FieldSMA20, entity.FieldBollingerUpper, entity.FieldBollingerMiddle, entity.FieldBollingerLower,
		}
		return set
	}

	if v, ok := calculator.RSI(closes, RSIPeriod); ok {
		set.RSI = &v
	} else {
		set.Missing = append(set.Missing, entity.FieldRSI)
	}

	if m, ok := calculator.MACD(closes, MACDFast, MACDSlow, MACDSignal); ok {
		line := m.Line
		set.MACD = &line
		if m.HasSignal {
			sig, hist := m.Signal, m.Histogram
			set.MACDSignal = &sig
			set.MACDHistogram = &hist
		} else {
			set.Missing = append(set.Missing, entity.FieldMACDSignal)
		}
	} else {
		set.Missing = append(set.Missing, entity.FieldMACD, entity.FieldMACDSignal)
	}

	if b, ok := calculator.Bollinger(closes, BollingerPeriod, BollingerK); ok {
		upper, mid, lower := b.Upper, b.Middle, b.Lower
		set.SMA20 = &mid
		set.BollingerUpper = &upper
		set.BollingerMiddle = &mid
		set.BollingerLower = &lower
	} else {
		set.Missing = append(set.Missing,
			entity.FieldSMA20, entity.FieldBollingerUpper, entity.FieldBollingerMiddle, entity.FieldBollingerLower)
	}

	return set
}

// Insufficient は欠損フィールドがある場合に ErrInsufficientHistory をラップしたエラーを返します。
func Insufficient(set entity.IndicatorSet) error {
	if set.Complete() {
		return nil
	}
	return fmt.Errorf("%w: %s has %d points, missing %s",
		domain.ErrInsufficientHistory, set.Symbol, set.Points, strings.Join(set.Missing, ","))
}
