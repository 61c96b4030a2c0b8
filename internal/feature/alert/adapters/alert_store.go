// Package adapters はalertフィーチャーの永続化アダプターを提供します。
package adapters

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"psx_backend/internal/feature/alert/domain/entity"
	"psx_backend/internal/feature/alert/usecase"
)

type alertStore struct {
	db *gorm.DB
}

var _ usecase.AlertRepository = (*alertStore)(nil)

// NewAlertRepository はgormを使用したアラート監査ログを生成します（sqlite / postgres 共通）。
func NewAlertRepository(db *gorm.DB) *alertStore {
	return &alertStore{db: db}
}

// AlertModel は alerts テーブルの行です。
type AlertModel struct {
	ID          string    `gorm:"primaryKey;size:36"`
	Kind        string    `gorm:"size:32;not null"`
	Symbol      string    `gorm:"size:32;not null;index:alert_sym_time,priority:1"`
	Severity    string    `gorm:"size:16;not null"`
	Reason      string    `gorm:"size:512;not null"`
	Value       float64   `gorm:"not null"`
	Threshold   float64   `gorm:"not null"`
	Recipient   string    `gorm:"size:255;not null"`
	Delivered   bool      `gorm:"not null;default:false"`
	Error       string    `gorm:"size:1024"`
	TriggeredAt time.Time `gorm:"not null;index;index:alert_sym_time,priority:2"`
}

func (AlertModel) TableName() string {
	return "alerts"
}

func toModel(r entity.Record) AlertModel {
	return AlertModel{
		ID:          r.ID.String(),
		Kind:        string(r.Kind),
		Symbol:      r.Symbol,
		Severity:    string(r.Severity),
		Reason:      r.Reason,
		Value:       r.Value,
		Threshold:   r.Threshold,
		Recipient:   r.Recipient,
		Delivered:   r.Delivered,
		Error:       r.Error,
		TriggeredAt: r.TriggeredAt.UTC(),
	}
}

func toEntity(m AlertModel) (entity.Record, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return entity.Record{}, fmt.Errorf("alert %q: %w", m.ID, err)
	}
	return entity.Record{
		Event: entity.Event{
			ID:        id,
			Kind:      entity.Kind(m.Kind),
			Symbol:    m.Symbol,
			Severity:  entity.Severity(m.Severity),
			Reason:    m.Reason,
			Value:     m.Value,
			Threshold: m.Threshold,
		},
		Recipient:   m.Recipient,
		Delivered:   m.Delivered,
		Error:       m.Error,
		TriggeredAt: m.TriggeredAt.UTC(),
	}, nil
}

// Save は監査レコードを一括で保存します。同じIDの再保存は無視されます。
func (s *alertStore) Save(ctx context.Context, records []entity.Record) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([]AlertModel, 0, len(records))
	for _, r := range records {
		rows = append(rows, toModel(r))
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		CreateInBatches(&rows, 100).Error
}

// List は監査レコードを新しい順に返します。
func (s *alertStore) List(ctx context.Context, f usecase.HistoryFilter) ([]entity.Record, error) {
	q := s.db.WithContext(ctx).Model(&AlertModel{})
	if f.Symbol != "" {
		q = q.Where("symbol = ?", f.Symbol)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var rows []AlertModel
	if err := q.Order("triggered_at DESC").Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]entity.Record, 0, len(rows))
	for _, m := range rows {
		r, err := toEntity(m)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
