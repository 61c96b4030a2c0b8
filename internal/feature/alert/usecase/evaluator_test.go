package usecase

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"psx_backend/internal/feature/alert/domain/entity"
	marketentity "psx_backend/internal/feature/market/domain/entity"
	portfolioentity "psx_backend/internal/feature/portfolio/domain/entity"
	"psx_backend/internal/shared/thresholds"
)

func ptr(v float64) *float64 { return &v }

func position(symbol string, pnlPct string, change float64, rsi *float64) portfolioentity.PositionAnalysis {
	th := thresholds.Default()
	p := portfolioentity.PositionAnalysis{
		Holding:    portfolioentity.Holding{Symbol: symbol, Quantity: decimal.NewFromInt(1), BuyPrice: decimal.NewFromInt(100)},
		Quote:      marketentity.Quote{Symbol: symbol, Price: 100, ChangePercent: change, Volume: 1000},
		PnLPercent: decimal.RequireFromString(pnlPct),
		RSI:        rsi,
	}
	if rsi != nil {
		p.Oversold = th.Oversold(*rsi)
		p.Overbought = th.Overbought(*rsi)
	}
	return p
}

func kinds(evs []entity.Event) []string {
	out := make([]string, 0, len(evs))
	for _, e := range evs {
		out = append(out, string(e.Kind)+":"+e.Symbol)
	}
	return out
}

func TestEvaluator_Evaluate_ThresholdRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		position portfolioentity.PositionAnalysis
		want     []string
		severity entity.Severity
	}{
		{name: "quiet position", position: position("PSX:SHEZ", "1.5", 0.3, ptr(50)), want: []string{}},
		{name: "gain at threshold", position: position("PSX:SHEZ", "5", 0, nil), want: []string{"pnl_gain:PSX:SHEZ"}, severity: entity.SeverityInfo},
		{name: "loss", position: position("PSX:OGDC", "-6.67", 0, nil), want: []string{"pnl_loss:PSX:OGDC"}, severity: entity.SeverityWarning},
		{name: "deep loss is critical", position: position("PSX:OGDC", "-12", 0, nil), want: []string{"pnl_loss:PSX:OGDC"}, severity: entity.SeverityCritical},
		{name: "oversold", position: position("PSX:LUCK", "0", 0, ptr(22)), want: []string{"rsi_oversold:PSX:LUCK"}, severity: entity.SeverityInfo},
		{name: "overbought", position: position("PSX:LUCK", "0", 0, ptr(81)), want: []string{"rsi_overbought:PSX:LUCK"}, severity: entity.SeverityWarning},
		{name: "rsi exactly at boundary does not fire", position: position("PSX:LUCK", "0", 0, ptr(30)), want: []string{}},
		{name: "daily drop", position: position("PSX:HUBC", "0", -5.2, nil), want: []string{"daily_move:PSX:HUBC"}, severity: entity.SeverityWarning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := NewEvaluator(thresholds.Default())
			evs := e.Evaluate(portfolioentity.PortfolioSummary{Positions: []portfolioentity.PositionAnalysis{tt.position}}, nil, nil)
			assert.Equal(t, tt.want, kinds(evs))
			if len(evs) == 1 {
				assert.Equal(t, tt.severity, evs[0].Severity)
				assert.NotEmpty(t, evs[0].Reason)
			}
		})
	}
}

func TestEvaluator_Evaluate_UserRules(t *testing.T) {
	t.Parallel()

	s := portfolioentity.PortfolioSummary{Positions: []portfolioentity.PositionAnalysis{
		position("PSX:SHEZ", "0", 0, ptr(45)),
	}}
	quotes := map[string]marketentity.Quote{
		"PSX:OGDC": {Symbol: "PSX:OGDC", Price: 140, Volume: 2_000_000, RSI: ptr(68)},
	}
	rules := []entity.Rule{
		{Symbol: "SHEZ", Kind: entity.KindPriceTarget, Condition: entity.ConditionAbove, Threshold: 99, Active: true},
		{Symbol: "SHEZ", Kind: entity.KindPriceTarget, Condition: entity.ConditionBelow, Threshold: 99, Active: true},
		{Symbol: "OGDC", Kind: entity.KindVolumeSpike, Threshold: 1_000_000, Active: true},
		{Symbol: "OGDC", Kind: entity.KindRSIOverbought, Threshold: 65, Active: true},
		{Symbol: "OGDC", Kind: entity.KindRSIOversold, Threshold: 0, Active: true},
		{Symbol: "OGDC", Kind: entity.KindPriceTarget, Condition: entity.ConditionBelow, Threshold: 150, Active: false},
		{Symbol: "MISSING", Kind: entity.KindVolumeSpike, Threshold: 1, Active: true},
	}

	evs := NewEvaluator(thresholds.Default()).Evaluate(s, rules, quotes)
	assert.Equal(t, []string{
		"price_target:PSX:SHEZ",
		"volume_spike:PSX:OGDC",
		"rsi_overbought:PSX:OGDC",
	}, kinds(evs))

	require.Len(t, evs, 3)
	assert.Equal(t, 100.0, evs[0].Value)
	assert.Equal(t, 2_000_000.0, evs[1].Value)
	assert.Equal(t, 65.0, evs[2].Threshold)
}

func TestEvaluator_Evaluate_DedupeAndIdempotence(t *testing.T) {
	t.Parallel()

	s := portfolioentity.PortfolioSummary{Positions: []portfolioentity.PositionAnalysis{
		position("PSX:LUCK", "-8", -6, ptr(20)),
		position("PSX:LUCK", "-9", -6, ptr(20)),
	}}
	rules := []entity.Rule{{Symbol: "LUCK", Kind: entity.KindRSIOversold, Threshold: 25, Active: true}}

	e := NewEvaluator(thresholds.Default())
	first := e.Evaluate(s, rules, nil)
	second := e.Evaluate(s, rules, nil)

	// 損益はロットごと、RSIと騰落率は銘柄ごとに1件
	assert.Equal(t, []string{"pnl_loss:PSX:LUCK", "rsi_oversold:PSX:LUCK", "daily_move:PSX:LUCK", "pnl_loss:PSX:LUCK"}, kinds(first))
	assert.Equal(t, first, second)
}

func TestEvaluator_Evaluate_PnLPerLot(t *testing.T) {
	t.Parallel()

	s := portfolioentity.PortfolioSummary{Positions: []portfolioentity.PositionAnalysis{
		position("PSX:SHEZ", "7.14", 0.5, nil),
		position("PSX:SHEZ", "20", 0.5, nil),
		position("PSX:SHEZ", "1", 0.5, nil),
	}}

	evs := NewEvaluator(thresholds.Default()).Evaluate(s, nil, nil)
	require.Len(t, evs, 2)
	assert.Equal(t, entity.KindPnLGain, evs[0].Kind)
	assert.InDelta(t, 7.14, evs[0].Value, 1e-9)
	assert.Equal(t, entity.KindPnLGain, evs[1].Kind)
	assert.InDelta(t, 20, evs[1].Value, 1e-9)
}
