package keyword

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"psx_backend/internal/feature/assistant/domain/entity"
)

func TestClassifier_Classify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		question string
		want     entity.Classification
	}{
		{
			name:     "top gainers with limit",
			question: "Show me the top 5 gainers on PSX today",
			want:     entity.Classification{Intent: entity.IntentTopGainers, Limit: 5},
		},
		{
			name:     "losers",
			question: "which stocks are the biggest losers?",
			want:     entity.Classification{Intent: entity.IntentTopLosers},
		},
		{
			name:     "oversold with rsi threshold",
			question: "List oversold stocks with RSI below 25",
			want:     entity.Classification{Intent: entity.IntentOversoldScan, Threshold: 25},
		},
		{
			name:     "overbought",
			question: "anything overbought right now? top 3",
			want:     entity.Classification{Intent: entity.IntentOverboughtScan, Limit: 3},
		},
		{
			name:     "portfolio",
			question: "How is my portfolio doing?",
			want:     entity.Classification{Intent: entity.IntentPortfolioAnalysis},
		},
		{
			name:     "stock analysis",
			question: "Analyze SHEZ for me",
			want:     entity.Classification{Intent: entity.IntentStockAnalysis, Symbols: []string{"PSX:SHEZ"}},
		},
		{
			name:     "current prices of several symbols",
			question: "What is the price of OGDC and psx:luck and OGDC?",
			want:     entity.Classification{Intent: entity.IntentCurrentPrices, Symbols: []string{"PSX:OGDC", "PSX:LUCK"}},
		},
		{
			name:     "price with indicator words is an analysis",
			question: "what's the RSI and price signal for HUBC",
			want:     entity.Classification{Intent: entity.IntentStockAnalysis, Symbols: []string{"PSX:HUBC"}},
		},
		{
			name:     "nothing recognizable",
			question: "hello there",
			want:     entity.Classification{Intent: entity.IntentHelp},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Classifier{}.Classify(context.Background(), tt.question)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.Intent.Valid())
		})
	}
}

func TestSymbols_SkipsCommonAbbreviations(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"PSX:ENGRO"}, Symbols("Is ENGRO above its SMA and MACD on PSX?"))
	assert.Empty(t, Symbols("what about RSI"))
}
