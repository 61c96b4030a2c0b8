package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	indicatorentity "psx_backend/internal/feature/indicator/domain/entity"
	marketdomain "psx_backend/internal/feature/market/domain"
	marketentity "psx_backend/internal/feature/market/domain/entity"
	"psx_backend/internal/feature/portfolio/domain"
	"psx_backend/internal/feature/portfolio/domain/entity"
	"psx_backend/internal/shared/thresholds"
)

func errNotFound(symbol string) error {
	return fmt.Errorf("%w: %s", marketdomain.ErrSymbolNotFound, symbol)
}

func holding(symbol string, qty int64, buy string) entity.Holding {
	return entity.Holding{Symbol: symbol, Quantity: decimal.NewFromInt(qty), BuyPrice: decimal.RequireFromString(buy)}
}

var fixedNow = time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

func newUsecase(q *mockQuoteSource, ind IndicatorEngine) *portfolioUsecase {
	return NewPortfolioUsecase(q, ind, Config{
		Thresholds: thresholds.Default(),
		Now:        func() time.Time { return fixedNow },
	})
}

func TestPortfolioUsecase_Analyze_Example(t *testing.T) {
	t.Parallel()

	q := &mockQuoteSource{QuoteFunc: quotesFrom(map[string]marketentity.Quote{
		"PSX:SHEZ": {Price: 300, ChangePercent: 1.2},
		"PSX:OGDC": {Price: 140, ChangePercent: -0.8},
	})}
	uc := newUsecase(q, &mockIndicatorEngine{})

	s, err := uc.Analyze(context.Background(), []entity.Holding{
		holding("SHEZ", 100, "280"),
		holding("OGDC", 200, "150"),
	})
	require.NoError(t, err)
	require.Len(t, s.Positions, 2)

	shez := s.Positions[0]
	assert.Equal(t, "PSX:SHEZ", shez.Holding.Symbol)
	assert.True(t, shez.PnL.Equal(decimal.NewFromInt(2000)), shez.PnL.String())
	assert.Equal(t, "7.14", shez.PnLPercent.StringFixed(2))
	assert.Equal(t, entity.RecommendHold, shez.Recommendation)

	ogdc := s.Positions[1]
	assert.True(t, ogdc.PnL.Equal(decimal.NewFromInt(-2000)), ogdc.PnL.String())
	assert.Equal(t, "-6.67", ogdc.PnLPercent.StringFixed(2))
	assert.Equal(t, entity.RecommendReview, ogdc.Recommendation)

	assert.True(t, s.TotalPnL.IsZero())
	assert.True(t, s.TotalCostBasis.Equal(decimal.NewFromInt(58000)))
	assert.True(t, s.TotalMarketValue.Equal(decimal.NewFromInt(58000)))
	assert.Equal(t, []string{"PSX:SHEZ"}, s.Gainers)
	assert.Equal(t, []string{"PSX:OGDC"}, s.Losers)
	assert.Empty(t, s.Unavailable)
	assert.Equal(t, fixedNow, s.GeneratedAt)
	assert.Contains(t, s.Recommendations, "PSX:OGDC: down 6.67%, review the position")
}

func TestPortfolioUsecase_Analyze(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		quotes  map[string]marketentity.Quote
		quoteFn func(ctx context.Context, symbol string) (marketentity.Quote, error)
		input   []entity.Holding
		check   func(t *testing.T, s entity.PortfolioSummary, q *mockQuoteSource)
		wantErr error
	}{
		{
			name:    "invalid holding fails the whole request",
			quotes:  map[string]marketentity.Quote{"PSX:SHEZ": {Price: 300}},
			input:   []entity.Holding{holding("SHEZ", 100, "280"), holding("OGDC", 0, "150")},
			wantErr: domain.ErrInvalidHolding,
			check: func(t *testing.T, _ entity.PortfolioSummary, q *mockQuoteSource) {
				assert.Empty(t, q.QuoteCalls, "no fetch happens before validation")
			},
		},
		{
			name:    "bare exchange prefix is not a symbol",
			input:   []entity.Holding{holding("psx:", 10, "10")},
			wantErr: domain.ErrInvalidHolding,
			check: func(t *testing.T, _ entity.PortfolioSummary, q *mockQuoteSource) {
				assert.Empty(t, q.QuoteCalls)
			},
		},
		{
			name:   "unknown symbol is reported and excluded from totals",
			quotes: map[string]marketentity.Quote{"PSX:SHEZ": {Price: 300}},
			input:  []entity.Holding{holding("SHEZ", 100, "280"), holding("NOPE", 10, "10")},
			check: func(t *testing.T, s entity.PortfolioSummary, _ *mockQuoteSource) {
				require.Len(t, s.Positions, 1)
				assert.Equal(t, []entity.Unavailable{{Symbol: "PSX:NOPE", Reason: ReasonNotFound}}, s.Unavailable)
				assert.True(t, s.TotalPnL.Equal(decimal.NewFromInt(2000)))
				assert.True(t, s.TotalCostBasis.Equal(decimal.NewFromInt(28000)))
			},
		},
		{
			name:   "duplicate symbols are fetched once and valued separately",
			quotes: map[string]marketentity.Quote{"PSX:SHEZ": {Price: 300}},
			input:  []entity.Holding{holding("SHEZ", 100, "280"), holding("psx:shez", 50, "310")},
			check: func(t *testing.T, s entity.PortfolioSummary, q *mockQuoteSource) {
				assert.Equal(t, 1, q.QuoteCalls["PSX:SHEZ"])
				require.Len(t, s.Positions, 2)
				assert.True(t, s.Positions[1].PnL.Equal(decimal.NewFromInt(-500)))
				assert.True(t, s.TotalPnL.Equal(decimal.NewFromInt(1500)))
			},
		},
		{
			name:  "every symbol failing upstream is reported, not fatal",
			input: []entity.Holding{holding("SHEZ", 1, "1"), holding("OGDC", 1, "1")},
			quoteFn: func(ctx context.Context, symbol string) (marketentity.Quote, error) {
				return marketentity.Quote{}, errors.New("tradingview http 503")
			},
			check: func(t *testing.T, s entity.PortfolioSummary, _ *mockQuoteSource) {
				assert.Empty(t, s.Positions)
				assert.ElementsMatch(t, []entity.Unavailable{
					{Symbol: "PSX:SHEZ", Reason: ReasonUnavailable},
					{Symbol: "PSX:OGDC", Reason: ReasonUnavailable},
				}, s.Unavailable)
				assert.True(t, s.TotalCostBasis.IsZero())
				assert.True(t, s.TotalMarketValue.IsZero())
				assert.True(t, s.TotalPnL.IsZero())
			},
		},
		{
			name:  "partial upstream failure is reported per symbol",
			input: []entity.Holding{holding("SHEZ", 100, "280"), holding("OGDC", 1, "1")},
			quoteFn: func(ctx context.Context, symbol string) (marketentity.Quote, error) {
				if symbol == "PSX:OGDC" {
					return marketentity.Quote{}, errors.New("timeout")
				}
				return marketentity.Quote{Symbol: symbol, Price: 300}, nil
			},
			check: func(t *testing.T, s entity.PortfolioSummary, _ *mockQuoteSource) {
				assert.Len(t, s.Positions, 1)
				assert.Equal(t, []entity.Unavailable{{Symbol: "PSX:OGDC", Reason: ReasonUnavailable}}, s.Unavailable)
			},
		},
		{
			name:  "empty portfolio yields zero totals",
			input: nil,
			check: func(t *testing.T, s entity.PortfolioSummary, _ *mockQuoteSource) {
				assert.Empty(t, s.Positions)
				assert.True(t, s.TotalPnL.IsZero())
				assert.True(t, s.TotalPnLPercent.IsZero())
				assert.Empty(t, s.Recommendations)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			q := &mockQuoteSource{QuoteFunc: tt.quoteFn}
			if q.QuoteFunc == nil {
				q.QuoteFunc = quotesFrom(tt.quotes)
			}
			uc := newUsecase(q, &mockIndicatorEngine{})

			s, err := uc.Analyze(context.Background(), tt.input)
			if tt.wantErr != nil {
				require.Error(t, err)
				if errors.Is(tt.wantErr, domain.ErrInvalidHolding) {
					assert.ErrorIs(t, err, domain.ErrInvalidHolding)
				} else {
					assert.ErrorContains(t, err, tt.wantErr.Error())
				}
			} else {
				require.NoError(t, err)
			}
			if tt.check != nil {
				tt.check(t, s, q)
			}
		})
	}
}

func TestPortfolioUsecase_Analyze_IndicatorFlags(t *testing.T) {
	t.Parallel()

	q := &mockQuoteSource{QuoteFunc: quotesFrom(map[string]marketentity.Quote{
		"PSX:SHEZ": {Price: 300},
		"PSX:OGDC": {Price: 100},
		"PSX:LUCK": {Price: 500, RSI: ptr(25)},
		"PSX:HUBC": {Price: 90},
	})}
	ind := &mockIndicatorEngine{ComputeFunc: func(ctx context.Context, symbol string) (indicatorentity.IndicatorSet, error) {
		switch symbol {
		case "PSX:SHEZ":
			return indicatorentity.IndicatorSet{Symbol: symbol, RSI: ptr(75)}, nil
		case "PSX:OGDC":
			return indicatorentity.IndicatorSet{Symbol: symbol, RSI: ptr(20)}, nil
		case "PSX:HUBC":
			return indicatorentity.IndicatorSet{}, errors.New("insufficient history")
		}
		return indicatorentity.IndicatorSet{Symbol: symbol}, nil
	}}
	uc := newUsecase(q, ind)

	s, err := uc.Analyze(context.Background(), []entity.Holding{
		holding("SHEZ", 10, "280"),
		holding("OGDC", 10, "150"),
		holding("LUCK", 10, "500"),
		holding("HUBC", 10, "100"),
	})
	require.NoError(t, err)
	require.Len(t, s.Positions, 4)

	shez, _ := s.Position("PSX:SHEZ")
	assert.True(t, shez.Overbought)
	assert.Equal(t, entity.RecommendSell, shez.Recommendation)

	ogdc, _ := s.Position("PSX:OGDC")
	assert.True(t, ogdc.Oversold)
	assert.Equal(t, entity.RecommendBuyMore, ogdc.Recommendation, "oversold wins over the loss rule")

	luck, _ := s.Position("PSX:LUCK")
	require.NotNil(t, luck.RSI)
	assert.Equal(t, 25.0, *luck.RSI, "falls back to the quote's RSI")
	assert.True(t, luck.Oversold)

	hubc, _ := s.Position("PSX:HUBC")
	assert.Nil(t, hubc.RSI)
	assert.False(t, hubc.Oversold || hubc.Overbought)
	assert.Equal(t, entity.RecommendReview, hubc.Recommendation)
}

func TestPortfolioUsecase_Analyze_ContextCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	q := &mockQuoteSource{QuoteFunc: func(ctx context.Context, symbol string) (marketentity.Quote, error) {
		return marketentity.Quote{}, ctx.Err()
	}}
	uc := newUsecase(q, nil)

	_, err := uc.Analyze(ctx, []entity.Holding{holding("SHEZ", 1, "1")})
	assert.ErrorIs(t, err, context.Canceled)
}

// TestSummarize_TotalEqualsSum は合計損益が各ポジションの損益の和に一致することを検証します。
func TestSummarize_TotalEqualsSum(t *testing.T) {
	t.Parallel()

	prices := []float64{12.34, 0.5, 1500, 99.99, 3.1, 250.75}
	buys := []string{"10.01", "0.75", "1499.99", "120", "3.1", "200.333"}

	var holdings []entity.Holding
	lookups := map[string]Lookup{}
	for i := range prices {
		sym := fmt.Sprintf("PSX:S%d", i)
		holdings = append(holdings, holding(sym, int64(i*37+1), buys[i]))
		lookups[sym] = Lookup{Quote: marketentity.Quote{Symbol: sym, Price: prices[i], ChangePercent: float64(i) - 2}}
	}

	s := Summarize(holdings, lookups, thresholds.Default(), fixedNow)

	sum := decimal.Zero
	for _, p := range s.Positions {
		want := decimal.NewFromFloat(p.Quote.Price).Sub(p.Holding.BuyPrice).Mul(p.Holding.Quantity)
		assert.True(t, p.PnL.Equal(want), "%s: %s != %s", p.Holding.Symbol, p.PnL, want)
		sum = sum.Add(p.PnL)
	}
	assert.True(t, s.TotalPnL.Equal(sum))
	assert.Equal(t, []string{"PSX:S5", "PSX:S4", "PSX:S3"}, s.Gainers)
	assert.Equal(t, []string{"PSX:S0", "PSX:S1"}, s.Losers)
}
