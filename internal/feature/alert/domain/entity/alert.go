// Package entity defines alert events, user rules and the audit record.
package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"psx_backend/internal/feature/alert/domain"
)

// Severity grades an alert.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Kind names the rule that fired.
type Kind string

const (
	KindPnLGain       Kind = "pnl_gain"
	KindPnLLoss       Kind = "pnl_loss"
	KindRSIOversold   Kind = "rsi_oversold"
	KindRSIOverbought Kind = "rsi_overbought"
	KindDailyMove     Kind = "daily_move"
	KindPriceTarget   Kind = "price_target"
	KindVolumeSpike   Kind = "volume_spike"
)

// Conditions for price_target rules.
const (
	ConditionAbove = "above"
	ConditionBelow = "below"
)

// Event is one triggered alert.
type Event struct {
	ID        uuid.UUID
	Kind      Kind
	Symbol    string
	Severity  Severity
	Reason    string
	Value     float64
	Threshold float64
}

// Rule is a user-defined alert. Only price_target, rsi_oversold, rsi_overbought and volume_spike are accepted.
type Rule struct {
	Symbol    string
	Kind      Kind
	Condition string
	Threshold float64
	Active    bool
}

// Validate checks the kind, condition and threshold of an active rule.
func (r Rule) Validate() error {
	if r.Symbol == "" {
		return fmt.Errorf("%w: symbol is required", domain.ErrInvalidRule)
	}
	switch r.Kind {
	case KindPriceTarget:
		if r.Condition != ConditionAbove && r.Condition != ConditionBelow {
			return fmt.Errorf("%w: %s price_target condition must be above or below, got %q", domain.ErrInvalidRule, r.Symbol, r.Condition)
		}
		if r.Threshold <= 0 {
			return fmt.Errorf("%w: %s price target must be positive", domain.ErrInvalidRule, r.Symbol)
		}
	case KindRSIOversold, KindRSIOverbought:
		if r.Threshold < 0 || r.Threshold > 100 {
			return fmt.Errorf("%w: %s rsi threshold must be within [0,100]", domain.ErrInvalidRule, r.Symbol)
		}
	case KindVolumeSpike:
		if r.Threshold <= 0 {
			return fmt.Errorf("%w: %s min volume must be positive", domain.ErrInvalidRule, r.Symbol)
		}
	default:
		return fmt.Errorf("%w: unsupported alert type %q", domain.ErrInvalidRule, r.Kind)
	}
	return nil
}

// Record is an audited alert together with its delivery outcome.
type Record struct {
	Event
	Recipient   string
	Delivered   bool
	Error       string
	TriggeredAt time.Time
}

// Message is a rendered notification.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}
