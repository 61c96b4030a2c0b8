// Package adapters はmarketフィーチャーの永続化アダプターを提供します。
package adapters

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"psx_backend/internal/feature/market/domain/entity"
	"psx_backend/internal/feature/market/usecase"
)

type candleStore struct {
	db *gorm.DB
}

var _ usecase.CandleRepository = (*candleStore)(nil)

// NewCandleRepository はgormを使用した日足ストアを生成します（sqlite / postgres 共通）。
func NewCandleRepository(db *gorm.DB) *candleStore {
	return &candleStore{db: db}
}

// CandleModel は candles テーブルの行です。
// interval は postgres の予約語のため bar_interval 列に保存します。
type CandleModel struct {
	ID       uint      `gorm:"primaryKey"`
	Symbol   string    `gorm:"size:32;not null;uniqueIndex:candle_sym_int_time,priority:1"`
	Interval string    `gorm:"column:bar_interval;size:16;not null;uniqueIndex:candle_sym_int_time,priority:2"`
	Time     time.Time `gorm:"not null;uniqueIndex:candle_sym_int_time,priority:3"`

	Open   float64 `gorm:"not null"`
	High   float64 `gorm:"not null"`
	Low    float64 `gorm:"not null"`
	Close  float64 `gorm:"not null"`
	Volume int64   `gorm:"not null;default:0"`
}

func (CandleModel) TableName() string {
	return "candles"
}

func toModel(e entity.Candle) CandleModel {
	return CandleModel{
		Symbol:   e.Symbol,
		Interval: e.Interval,
		Time:     e.Time.UTC(),
		Open:     e.Open,
		High:     e.High,
		Low:      e.Low,
		Close:    e.Close,
		Volume:   e.Volume,
	}
}

func toEntity(m CandleModel) entity.Candle {
	return entity.Candle{
		Symbol:   m.Symbol,
		Interval: m.Interval,
		Time:     m.Time.UTC(),
		Open:     m.Open,
		High:     m.High,
		Low:      m.Low,
		Close:    m.Close,
		Volume:   m.Volume,
	}
}

// UpsertBatch は (symbol, interval, time) をキーに日足を挿入または更新します。
func (r *candleStore) UpsertBatch(ctx context.Context, candles []entity.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	ms := make([]CandleModel, 0, len(candles))
	for _, e := range candles {
		ms = append(ms, toModel(e))
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}, {Name: "bar_interval"}, {Name: "time"}},
		DoUpdates: clause.AssignmentColumns([]string{"open", "high", "low", "close", "volume"}),
	}).CreateInBatches(&ms, 200).Error
}

// Find は新しい順に最大 outputsize 件の日足を返します。
func (r *candleStore) Find(ctx context.Context, symbol, interval string, outputsize int) ([]entity.Candle, error) {
	var rows []CandleModel
	q := r.db.WithContext(ctx).
		Where(&CandleModel{Symbol: symbol, Interval: interval}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "time"}, Desc: true})
	if outputsize > 0 {
		q = q.Limit(outputsize)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]entity.Candle, 0, len(rows))
	for _, m := range rows {
		out = append(out, toEntity(m))
	}
	return out, nil
}
