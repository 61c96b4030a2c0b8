// Package thresholds holds the signal boundaries shared by the portfolio analyzer and the alert evaluator.
package thresholds

import "fmt"

// Thresholds are the configurable boundaries for RSI flags and P&L / daily-move alerts.
// Percent values are expressed in percent (5 means 5%).
type Thresholds struct {
	RSIOversold   float64 `yaml:"rsi_oversold"`
	RSIOverbought float64 `yaml:"rsi_overbought"`
	PnLGainPct    float64 `yaml:"pnl_gain_pct"`
	PnLLossPct    float64 `yaml:"pnl_loss_pct"`
	DailyMovePct  float64 `yaml:"daily_move_pct"`
}

// Default returns RSI 30/70, P&L +5%/-5% and a 5% daily move.
func Default() Thresholds {
	return Thresholds{
		RSIOversold:   30,
		RSIOverbought: 70,
		PnLGainPct:    5,
		PnLLossPct:    -5,
		DailyMovePct:  5,
	}
}

// Oversold reports whether rsi is strictly below the oversold boundary.
func (t Thresholds) Oversold(rsi float64) bool { return rsi < t.RSIOversold }

// Overbought reports whether rsi is strictly above the overbought boundary.
func (t Thresholds) Overbought(rsi float64) bool { return rsi > t.RSIOverbought }

// Validate checks that the boundaries are ordered and within range.
func (t Thresholds) Validate() error {
	if t.RSIOversold < 0 || t.RSIOverbought > 100 {
		return fmt.Errorf("rsi thresholds must be within [0,100]: %v/%v", t.RSIOversold, t.RSIOverbought)
	}
	if t.RSIOversold >= t.RSIOverbought {
		return fmt.Errorf("rsi_oversold (%v) must be below rsi_overbought (%v)", t.RSIOversold, t.RSIOverbought)
	}
	if t.PnLGainPct <= 0 {
		return fmt.Errorf("pnl_gain_pct must be positive: %v", t.PnLGainPct)
	}
	if t.PnLLossPct >= 0 {
		return fmt.Errorf("pnl_loss_pct must be negative: %v", t.PnLLossPct)
	}
	if t.DailyMovePct <= 0 {
		return fmt.Errorf("daily_move_pct must be positive: %v", t.DailyMovePct)
	}
	return nil
}
