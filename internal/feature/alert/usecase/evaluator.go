package usecase

import (
	"fmt"
	"math"

	"psx_backend/internal/feature/alert/domain/entity"
	marketdomain "psx_backend/internal/feature/market/domain"
	marketentity "psx_backend/internal/feature/market/domain/entity"
	portfolioentity "psx_backend/internal/feature/portfolio/domain/entity"
	"psx_backend/internal/shared/thresholds"
)

// Evaluator は分析結果に閾値ルールとユーザー定義ルールを適用します。
// 状態を持たないため、同じ入力には常に同じイベント列を返します。
type Evaluator struct {
	th thresholds.Thresholds
}

// NewEvaluator は指定した閾値で Evaluator を生成します。
func NewEvaluator(th thresholds.Thresholds) Evaluator {
	return Evaluator{th: th}
}

// Evaluate はポジションごとに閾値ルールを、続いてユーザー定義ルールを評価します。
// quotes は保有していない銘柄に対するユーザールール用の相場です。
// 損益のイベントはポジション（買付ロット）ごとに出ます。
// RSIや騰落率のように銘柄単位の値から出るイベントは、同じ銘柄と種別で最初の1件だけが残ります。
// イベントの ID は設定しません。
func (e Evaluator) Evaluate(s portfolioentity.PortfolioSummary, rules []entity.Rule, quotes map[string]marketentity.Quote) []entity.Event {
	var out []entity.Event
	seen := make(map[string]struct{})
	emit := func(ev entity.Event, lot int) {
		key := fmt.Sprintf("%s|%s|%d", ev.Kind, ev.Symbol, lot)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, ev)
	}

	type snapshot struct {
		quote marketentity.Quote
		rsi   *float64
	}
	snaps := make(map[string]snapshot, len(s.Positions)+len(quotes))
	for sym, q := range quotes {
		snaps[marketdomain.NormalizeSymbol(sym)] = snapshot{quote: q, rsi: q.RSI}
	}

	for i, p := range s.Positions {
		for _, ev := range e.positionEvents(p) {
			lot := -1
			if ev.Kind == entity.KindPnLGain || ev.Kind == entity.KindPnLLoss {
				lot = i
			}
			emit(ev, lot)
		}
		snaps[p.Holding.Symbol] = snapshot{quote: p.Quote, rsi: p.RSI}
	}

	for _, r := range rules {
		if !r.Active {
			continue
		}
		sym := marketdomain.NormalizeSymbol(r.Symbol)
		snap, ok := snaps[sym]
		if !ok {
			continue
		}
		if ev, fired := e.ruleEvent(r, sym, snap.quote, snap.rsi); fired {
			emit(ev, -1)
		}
	}
	return out
}

func (e Evaluator) positionEvents(p portfolioentity.PositionAnalysis) []entity.Event {
	var out []entity.Event
	sym := p.Holding.Symbol
	pct, _ := p.PnLPercent.Round(2).Float64()

	switch {
	case pct >= e.th.PnLGainPct:
		out = append(out, entity.Event{
			Kind: entity.KindPnLGain, Symbol: sym, Severity: entity.SeverityInfo,
			Reason: fmt.Sprintf("%s is up %.2f%% from the buy price", sym, pct),
			Value:  pct, Threshold: e.th.PnLGainPct,
		})
	case pct <= e.th.PnLLossPct:
		sev := entity.SeverityWarning
		if pct <= 2*e.th.PnLLossPct {
			sev = entity.SeverityCritical
		}
		out = append(out, entity.Event{
			Kind: entity.KindPnLLoss, Symbol: sym, Severity: sev,
			Reason: fmt.Sprintf("%s is down %.2f%% from the buy price", sym, math.Abs(pct)),
			Value:  pct, Threshold: e.th.PnLLossPct,
		})
	}

	if p.RSI != nil {
		rsi := *p.RSI
		switch {
		case p.Oversold:
			out = append(out, entity.Event{
				Kind: entity.KindRSIOversold, Symbol: sym, Severity: entity.SeverityInfo,
				Reason: fmt.Sprintf("%s RSI %.1f is below %.0f (oversold)", sym, rsi, e.th.RSIOversold),
				Value:  rsi, Threshold: e.th.RSIOversold,
			})
		case p.Overbought:
			out = append(out, entity.Event{
				Kind: entity.KindRSIOverbought, Symbol: sym, Severity: entity.SeverityWarning,
				Reason: fmt.Sprintf("%s RSI %.1f is above %.0f (overbought)", sym, rsi, e.th.RSIOverbought),
				Value:  rsi, Threshold: e.th.RSIOverbought,
			})
		}
	}

	if move := p.Quote.ChangePercent; math.Abs(move) >= e.th.DailyMovePct {
		dir := "up"
		if move < 0 {
			dir = "down"
		}
		out = append(out, entity.Event{
			Kind: entity.KindDailyMove, Symbol: sym, Severity: entity.SeverityWarning,
			Reason: fmt.Sprintf("%s moved %s %.2f%% today", sym, dir, math.Abs(move)),
			Value:  move, Threshold: e.th.DailyMovePct,
		})
	}
	return out
}

func (e Evaluator) ruleEvent(r entity.Rule, sym string, q marketentity.Quote, rsi *float64) (entity.Event, bool) {
	ev := entity.Event{Kind: r.Kind, Symbol: sym, Severity: entity.SeverityInfo, Threshold: r.Threshold}
	switch r.Kind {
	case entity.KindPriceTarget:
		ev.Value = q.Price
		if r.Condition == entity.ConditionAbove && q.Price >= r.Threshold {
			ev.Reason = fmt.Sprintf("%s price %.2f reached the target above %.2f", sym, q.Price, r.Threshold)
			return ev, true
		}
		if r.Condition == entity.ConditionBelow && q.Price <= r.Threshold {
			ev.Reason = fmt.Sprintf("%s price %.2f fell to the target below %.2f", sym, q.Price, r.Threshold)
			return ev, true
		}
	case entity.KindRSIOversold:
		th := r.Threshold
		if th == 0 {
			th = e.th.RSIOversold
		}
		ev.Threshold = th
		if rsi != nil && *rsi < th {
			ev.Value = *rsi
			ev.Reason = fmt.Sprintf("%s RSI %.1f is below %.0f (oversold)", sym, *rsi, th)
			return ev, true
		}
	case entity.KindRSIOverbought:
		th := r.Threshold
		if th == 0 {
			th = e.th.RSIOverbought
		}
		ev.Threshold = th
		if rsi != nil && *rsi > th {
			ev.Value = *rsi
			ev.Severity = entity.SeverityWarning
			ev.Reason = fmt.Sprintf("%s RSI %.1f is above %.0f (overbought)", sym, *rsi, th)
			return ev, true
		}
	case entity.KindVolumeSpike:
		ev.Value = float64(q.Volume)
		if ev.Value >= r.Threshold {
			ev.Reason = fmt.Sprintf("%s volume %d is at or above %.0f", sym, q.Volume, r.Threshold)
			return ev, true
		}
	}
	return entity.Event{}, false
}
