package usecase

import (
	"context"
	"errors"
	"sync"

	indicatorentity "psx_backend/internal/feature/indicator/domain/entity"
	"psx_backend/internal/feature/market/domain/entity"
)

// mockQuoteSource はQuoteSourceのモック実装です。
type mockQuoteSource struct {
	mu         sync.Mutex
	QuoteFunc  func(ctx context.Context, symbol string) (entity.Quote, error)
	ScanFunc   func(ctx context.Context) ([]entity.Quote, error)
	QuoteCalls map[string]int
}

func (m *mockQuoteSource) Quote(ctx context.Context, symbol string) (entity.Quote, error) {
	m.mu.Lock()
	if m.QuoteCalls == nil {
		m.QuoteCalls = map[string]int{}
	}
	m.QuoteCalls[symbol]++
	m.mu.Unlock()
	if m.QuoteFunc == nil {
		return entity.Quote{}, errors.New("QuoteFunc is not implemented")
	}
	return m.QuoteFunc(ctx, symbol)
}

func (m *mockQuoteSource) Scan(ctx context.Context) ([]entity.Quote, error) {
	if m.ScanFunc == nil {
		return nil, errors.New("ScanFunc is not implemented")
	}
	return m.ScanFunc(ctx)
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

// mockMarketRepository はMarketRepositoryのモック実装です。
type mockMarketRepository struct {
	GetTimeSeriesFunc  func(ctx context.Context, symbol, interval string, outputsize int) ([]entity.Candle, error)
	GetTimeSeriesCalls int
}

func (m *mockMarketRepository) GetTimeSeries(ctx context.Context, symbol, interval string, outputsize int) ([]entity.Candle, error) {
	m.GetTimeSeriesCalls++
	if m.GetTimeSeriesFunc != nil {
		return m.GetTimeSeriesFunc(ctx, symbol, interval, outputsize)
	}
	return nil, errors.New("GetTimeSeriesFunc is not implemented")
}

// mockCandleRepository はCandleRepositoryのモック実装です。
type mockCandleRepository struct {
	FindFunc         func(ctx context.Context, symbol, interval string, outputsize int) ([]entity.Candle, error)
	UpsertBatchFunc  func(ctx context.Context, candles []entity.Candle) error
	UpsertBatchCalls int
}

func (m *mockCandleRepository) Find(ctx context.Context, symbol, interval string, outputsize int) ([]entity.Candle, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, symbol, interval, outputsize)
	}
	return nil, nil
}

func (m *mockCandleRepository) UpsertBatch(ctx context.Context, candles []entity.Candle) error {
	m.UpsertBatchCalls++
	if m.UpsertBatchFunc != nil {
		return m.UpsertBatchFunc(ctx, candles)
	}
	return nil
}

// mockRateLimiter はRateLimiterInterfaceのモック実装です。
type mockRateLimiter struct {
	WaitCalls int
}

func (m *mockRateLimiter) Wait(ctx context.Context) error {
	m.WaitCalls++
	return ctx.Err()
}

func f64(v float64) *float64 { return &v }
