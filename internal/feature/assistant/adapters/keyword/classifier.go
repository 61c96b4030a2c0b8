// Package keyword はキーワード照合による意図分類を提供します。LLMが使えない場合の代替です。
package keyword

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"psx_backend/internal/feature/assistant/domain/entity"
	"psx_backend/internal/feature/assistant/usecase"
	marketdomain "psx_backend/internal/feature/market/domain"
)

// Classifier は質問文のキーワードから意図を決定します。状態を持ちません。
type Classifier struct{}

var _ usecase.IntentClassifier = Classifier{}

var (
	// 大文字2〜8文字の語、または "psx:xxx" 形式を銘柄とみなす
	symbolPattern = regexp.MustCompile(`(?i:psx:[a-z0-9]+)|\b[A-Z][A-Z0-9]{1,7}\b`)
	numberPattern = regexp.MustCompile(`\b\d{1,3}\b`)
	rsiPattern    = regexp.MustCompile(`(?i)rsi\D{0,12}(\d{1,2}(?:\.\d+)?)`)
)

// notSymbols は銘柄と誤認しやすい大文字語です。
var notSymbols = map[string]struct{}{
	"PSX": {}, "RSI": {}, "MACD": {}, "SMA": {}, "EMA": {}, "KSE": {}, "PKR": {}, "RS": {},
	"PNL": {}, "PL": {}, "TOP": {}, "AND": {}, "OR": {}, "THE": {}, "IS": {}, "IT": {},
	"OF": {}, "ME": {}, "MY": {}, "WHAT": {}, "HOW": {}, "SHOW": {}, "ABOUT": {}, "TODAY": {},
	"BUY": {}, "SELL": {}, "HOLD": {}, "OK": {}, "AI": {}, "US": {}, "USD": {},
}

// Classify は質問を意図に分類します。常に有効な意図を返します。
func (Classifier) Classify(_ context.Context, question string) (entity.Classification, error) {
	q := strings.ToLower(question)
	c := entity.Classification{Symbols: Symbols(question), Limit: limit(question)}

	has := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(q, w) {
				return true
			}
		}
		return false
	}

	switch {
	case has("oversold", "over sold", "undervalued"):
		c.Intent = entity.IntentOversoldScan
		c.Threshold = rsiThreshold(question)
	case has("overbought", "over bought", "overvalued"):
		c.Intent = entity.IntentOverboughtScan
		c.Threshold = rsiThreshold(question)
	case has("portfolio", "my holdings", "my stocks", "my positions", "my shares"):
		c.Intent = entity.IntentPortfolioAnalysis
	case has("gainer", "top perform", "best perform", "winners", "went up", "up the most", "rising"):
		c.Intent = entity.IntentTopGainers
	case has("loser", "worst perform", "went down", "down the most", "falling", "declin"):
		c.Intent = entity.IntentTopLosers
	case len(c.Symbols) > 0 && has("price", "quote", "trading at", "how much") && !has("analy", "rsi", "macd", "bollinger", "signal"):
		c.Intent = entity.IntentCurrentPrices
	case len(c.Symbols) > 0:
		c.Intent = entity.IntentStockAnalysis
	default:
		c.Intent = entity.IntentHelp
	}
	if c.Intent != entity.IntentStockAnalysis && c.Intent != entity.IntentCurrentPrices {
		c.Symbols = nil
	}
	return c, nil
}

// Symbols は質問から銘柄らしき語を出現順に重複なく取り出し、正規化して返します。
func Symbols(question string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, m := range symbolPattern.FindAllString(question, -1) {
		ticker := marketdomain.Ticker(m)
		if _, skip := notSymbols[ticker]; skip {
			continue
		}
		sym := marketdomain.NormalizeSymbol(ticker)
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = struct{}{}
		out = append(out, sym)
	}
	return out
}

// limit は "top 5" のような1〜100の数値を返します。見つからなければ0です。
func limit(question string) int {
	if rsiPattern.MatchString(question) {
		question = rsiPattern.ReplaceAllString(question, "")
	}
	for _, m := range numberPattern.FindAllString(question, -1) {
		n, err := strconv.Atoi(m)
		if err == nil && n >= 1 && n <= 100 {
			return n
		}
	}
	return 0
}

func rsiThreshold(question string) float64 {
	m := rsiPattern.FindStringSubmatch(question)
	if m == nil {
		return 0
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v <= 0 || v >= 100 {
		return 0
	}
	return v
}
