package usecase

import (
	"context"
	"errors"
	"sync"

	indicatorentity "psx_backend/internal/feature/indicator/domain/entity"
	marketentity "psx_backend/internal/feature/market/domain/entity"
)

// mockQuoteSource はQuoteSourceのモック実装です。
type mockQuoteSource struct {
	mu         sync.Mutex
	QuoteFunc  func(ctx context.Context, symbol string) (marketentity.Quote, error)
	QuoteCalls map[string]int
}

func (m *mockQuoteSource) Quote(ctx context.Context, symbol string) (marketentity.Quote, error) {
	m.mu.Lock()
	if m.QuoteCalls == nil {
		m.QuoteCalls = map[string]int{}
	}
	m.QuoteCalls[symbol]++
	m.mu.Unlock()
	if m.QuoteFunc == nil {
		return marketentity.Quote{}, errors.New("QuoteFunc is not implemented")
	}
	return m.QuoteFunc(ctx, symbol)
}

// mockIndicatorEngine はIndicatorEngineのモック実装です。
type mockIndicatorEngine struct {
	ComputeFunc func(ctx context.Context, symbol string) (indicatorentity.IndicatorSet, error)
}

func (m *mockIndicatorEngine) Compute(ctx context.Context, symbol string) (indicatorentity.IndicatorSet, error) {
	if m.ComputeFunc == nil {
		return indicatorentity.IndicatorSet{Symbol: symbol}, nil
	}
	return m.ComputeFunc(ctx, symbol)
}

func quotesFrom(prices map[string]marketentity.Quote) func(ctx context.Context, symbol string) (marketentity.Quote, error) {
	return func(ctx context.Context, symbol string) (marketentity.Quote, error) {
		q, ok := prices[symbol]
		if !ok {
			return marketentity.Quote{}, errNotFound(symbol)
		}
		q.Symbol = symbol
		return q, nil
	}
}

func ptr(v float64) *float64 { return &v }
