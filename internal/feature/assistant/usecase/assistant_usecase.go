// Package usecase は自然言語の質問を分類し、対応する機能へ振り分けます。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"psx_backend/internal/feature/assistant/domain"
	"psx_backend/internal/feature/assistant/domain/entity"
	indicatorusecase "psx_backend/internal/feature/indicator/usecase"
	marketdomain "psx_backend/internal/feature/market/domain"
	marketentity "psx_backend/internal/feature/market/domain/entity"
	marketusecase "psx_backend/internal/feature/market/usecase"
	portfolioentity "psx_backend/internal/feature/portfolio/domain/entity"
)

const (
	// DefaultLimit は件数が指定されなかったときのランキング件数です。
	DefaultLimit = 5
	// MaxQuestionLength は質問の最大文字数（rune数）です。超えた分は切り捨てます。
	MaxQuestionLength = 2000
)

// IntentClassifier は質問を意図に分類します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type IntentClassifier interface {
	Classify(ctx context.Context, question string) (entity.Classification, error)
}

// AnswerWriter は機能の結果を質問に対する回答文にまとめます。
type AnswerWriter interface {
	Write(ctx context.Context, question string, r entity.Result) (string, error)
}

// MarketService は市場データの機能です。
type MarketService interface {
	TopGainers(ctx context.Context, limit int) ([]marketentity.Quote, error)
	TopLosers(ctx context.Context, limit int) ([]marketentity.Quote, error)
	Oversold(ctx context.Context, threshold float64, limit int) ([]marketentity.Quote, error)
	Overbought(ctx context.Context, threshold float64, limit int) ([]marketentity.Quote, error)
	StockAnalysis(ctx context.Context, symbol string) (marketentity.StockAnalysis, error)
	CurrentPrices(ctx context.Context, symbols []string) (map[string]float64, error)
}

// PortfolioService はポートフォリオ分析の機能です。
type PortfolioService interface {
	Analyze(ctx context.Context, holdings []portfolioentity.Holding) (portfolioentity.PortfolioSummary, error)
}

// Query は質問と任意の保有一覧です。
type Query struct {
	Question string
	Holdings []portfolioentity.Holding
}

// capability は1つの意図を処理します。
type capability func(ctx context.Context, c entity.Classification, q Query) (entity.Result, error)

// assistantUsecase は分類、ディスパッチ、回答生成を順に実行します。
type assistantUsecase struct {
	classifier IntentClassifier
	fallback   IntentClassifier
	writer     AnswerWriter
	market     MarketService
	portfolio  PortfolioService
	dispatch   map[entity.Intent]capability
	now        func() time.Time
}

// NewAssistantUsecase は assistantUsecase を生成します。
// classifier が失敗した場合は fallback を使います。writer が nil または失敗した場合は結果の要約をそのまま返します。
func NewAssistantUsecase(classifier, fallback IntentClassifier, writer AnswerWriter, market MarketService, portfolio PortfolioService) *assistantUsecase {
	u := &assistantUsecase{
		classifier: classifier,
		fallback:   fallback,
		writer:     writer,
		market:     market,
		portfolio:  portfolio,
		now:        time.Now,
	}
	u.dispatch = map[entity.Intent]capability{
		entity.IntentTopGainers:        u.topGainers,
		entity.IntentTopLosers:         u.topLosers,
		entity.IntentOversoldScan:      u.oversold,
		entity.IntentOverboughtScan:    u.overbought,
		entity.IntentStockAnalysis:     u.stockAnalysis,
		entity.IntentCurrentPrices:     u.currentPrices,
		entity.IntentPortfolioAnalysis: u.portfolioAnalysis,
		entity.IntentHelp:              u.help,
	}
	return u
}

// Ask は質問に回答します。
func (u *assistantUsecase) Ask(ctx context.Context, q Query) (entity.Answer, error) {
	q.Question = strings.TrimSpace(q.Question)
	if q.Question == "" {
		return entity.Answer{}, domain.ErrEmptyQuestion
	}
	if utf8.RuneCountInString(q.Question) > MaxQuestionLength {
		q.Question = string([]rune(q.Question)[:MaxQuestionLength])
	}

	c := u.classify(ctx, q.Question)
	// 保有一覧が添付され、特定の機能が選ばれなかった場合はポートフォリオ分析とみなす
	if c.Intent == entity.IntentHelp && len(q.Holdings) > 0 {
		c.Intent = entity.IntentPortfolioAnalysis
	}

	res, err := u.Dispatch(ctx, c, q)
	if err != nil {
		return entity.Answer{}, err
	}

	text := res.Facts
	if u.writer != nil {
		if written, err := u.writer.Write(ctx, q.Question, res); err != nil {
			slog.Warn("answer writer failed, returning facts", "intent", c.Intent, "error", err)
		} else if strings.TrimSpace(written) != "" {
			text = written
		}
	}

	stocks := res.Stocks
	if stocks == nil {
		stocks = []entity.StockCard{}
	}
	return entity.Answer{Intent: res.Intent, Text: text, Stocks: stocks, Timestamp: u.now().UTC()}, nil
}

func (u *assistantUsecase) classify(ctx context.Context, question string) entity.Classification {
	if u.classifier != nil {
		c, err := u.classifier.Classify(ctx, question)
		if err == nil && c.Intent.Valid() {
			return c
		}
		slog.Warn("intent classification failed, using fallback", "intent", c.Intent, "error", err)
	}
	if u.fallback != nil {
		if c, err := u.fallback.Classify(ctx, question); err == nil && c.Intent.Valid() {
			return c
		}
	}
	return entity.Classification{Intent: entity.IntentHelp}
}

// Dispatch は分類結果に対応する機能を実行します。
func (u *assistantUsecase) Dispatch(ctx context.Context, c entity.Classification, q Query) (entity.Result, error) {
	handle, ok := u.dispatch[c.Intent]
	if !ok {
		return entity.Result{}, fmt.Errorf("%w: %q", domain.ErrUnknownIntent, c.Intent)
	}
	// 分類器が返す件数は信用せず、ランキングの範囲に収める
	switch {
	case c.Limit <= 0:
		c.Limit = DefaultLimit
	case c.Limit > marketusecase.MaxLimit:
		c.Limit = marketusecase.MaxLimit
	}
	res, err := handle(ctx, c, q)
	if err != nil {
		return entity.Result{}, fmt.Errorf("%s: %w", c.Intent, err)
	}
	res.Intent = c.Intent
	return res, nil
}

func (u *assistantUsecase) topGainers(ctx context.Context, c entity.Classification, _ Query) (entity.Result, error) {
	qs, err := u.market.TopGainers(ctx, c.Limit)
	if err != nil {
		return entity.Result{}, err
	}
	return rankedResult(fmt.Sprintf("Top %d gainers on PSX", c.Limit), qs, changeLine), nil
}

func (u *assistantUsecase) topLosers(ctx context.Context, c entity.Classification, _ Query) (entity.Result, error) {
	qs, err := u.market.TopLosers(ctx, c.Limit)
	if err != nil {
		return entity.Result{}, err
	}
	return rankedResult(fmt.Sprintf("Top %d losers on PSX", c.Limit), qs, changeLine), nil
}

func (u *assistantUsecase) oversold(ctx context.Context, c entity.Classification, _ Query) (entity.Result, error) {
	qs, err := u.market.Oversold(ctx, c.Threshold, c.Limit)
	if err != nil {
		return entity.Result{}, err
	}
	return rankedResult("Oversold stocks (lowest RSI first)", qs, rsiLine), nil
}

func (u *assistantUsecase) overbought(ctx context.Context, c entity.Classification, _ Query) (entity.Result, error) {
	qs, err := u.market.Overbought(ctx, c.Threshold, c.Limit)
	if err != nil {
		return entity.Result{}, err
	}
	return rankedResult("Overbought stocks (highest RSI first)", qs, rsiLine), nil
}

func (u *assistantUsecase) stockAnalysis(ctx context.Context, c entity.Classification, _ Query) (entity.Result, error) {
	if len(c.Symbols) == 0 {
		return entity.Result{Facts: "Which stock should I analyze? Mention a PSX ticker such as SHEZ or OGDC."}, nil
	}
	var (
		b     strings.Builder
		cards []entity.StockCard
	)
	for _, sym := range c.Symbols {
		a, err := u.market.StockAnalysis(ctx, sym)
		if errors.Is(err, marketdomain.ErrSymbolNotFound) {
			// 分類器が銘柄と誤認した単語もあるため、1銘柄の欠落で全体を失敗させない
			fmt.Fprintf(&b, "**%s**: no data\n\n", sym)
			continue
		}
		if err != nil {
			return entity.Result{}, err
		}
		cards = append(cards, entity.StockCard{
			Symbol: a.Quote.Symbol, Name: a.Quote.Name, Price: a.Quote.Price,
			ChangePercent: a.Quote.ChangePercent, RSI: a.Indicators.RSI, Signal: a.OverallSignal,
		})
		fmt.Fprintf(&b, "**%s** %s: %.2f (%+.2f%%)\n", a.Quote.Symbol, a.Quote.Name, a.Quote.Price, a.Quote.ChangePercent)
		fmt.Fprintf(&b, "- RSI: %s (%s)\n", optional(a.Indicators.RSI), a.RSISignal)
		fmt.Fprintf(&b, "- MACD: %s, signal %s\n", optional(a.Indicators.MACD), optional(a.Indicators.MACDSignal))
		fmt.Fprintf(&b, "- Bollinger: %s to %s (%s)\n", optional(a.Indicators.BollingerLower), optional(a.Indicators.BollingerUpper), a.BollingerSignal)
		fmt.Fprintf(&b, "- Overall: %s\n", a.OverallSignal)
		if err := indicatorusecase.Insufficient(a.Indicators); err != nil {
			fmt.Fprintf(&b, "- Note: %s\n", err)
		}
		b.WriteString("\n")
	}
	return entity.Result{Facts: strings.TrimSpace(b.String()), Stocks: cards}, nil
}

func (u *assistantUsecase) currentPrices(ctx context.Context, c entity.Classification, _ Query) (entity.Result, error) {
	if len(c.Symbols) == 0 {
		return entity.Result{Facts: "Which stocks? Mention one or more PSX tickers."}, nil
	}
	prices, err := u.market.CurrentPrices(ctx, c.Symbols)
	if err != nil {
		return entity.Result{}, err
	}
	var (
		b     strings.Builder
		cards []entity.StockCard
	)
	for _, sym := range c.Symbols {
		p, ok := prices[sym]
		if !ok {
			fmt.Fprintf(&b, "- %s: no data\n", sym)
			continue
		}
		fmt.Fprintf(&b, "- %s: %.2f\n", sym, p)
		cards = append(cards, entity.StockCard{Symbol: sym, Price: p})
	}
	return entity.Result{Facts: strings.TrimSpace(b.String()), Stocks: cards}, nil
}

func (u *assistantUsecase) portfolioAnalysis(ctx context.Context, _ entity.Classification, q Query) (entity.Result, error) {
	if len(q.Holdings) == 0 {
		return entity.Result{Facts: "Send your holdings (symbol, quantity, buy price) with the question to analyze your portfolio."}, nil
	}
	s, err := u.portfolio.Analyze(ctx, q.Holdings)
	if err != nil {
		return entity.Result{}, err
	}
	var (
		b     strings.Builder
		cards []entity.StockCard
	)
	fmt.Fprintf(&b, "Total P&L: %s (%s%%) on cost %s\n\n", s.TotalPnL.StringFixed(2), s.TotalPnLPercent.StringFixed(2), s.TotalCostBasis.StringFixed(2))
	for _, p := range s.Positions {
		fmt.Fprintf(&b, "- **%s**: %s (%s%%), %s\n", p.Holding.Symbol, p.PnL.StringFixed(2), p.PnLPercent.StringFixed(2), p.Recommendation)
		cards = append(cards, entity.StockCard{
			Symbol: p.Holding.Symbol, Name: p.Quote.Name, Price: p.Quote.Price,
			ChangePercent: p.Quote.ChangePercent, RSI: p.RSI, Signal: string(p.Recommendation),
		})
	}
	for _, un := range s.Unavailable {
		fmt.Fprintf(&b, "- **%s**: %s\n", un.Symbol, un.Reason)
	}
	if len(s.Recommendations) > 0 {
		b.WriteString("\n")
		for _, r := range s.Recommendations {
			fmt.Fprintf(&b, "%s\n", r)
		}
	}
	return entity.Result{Facts: strings.TrimSpace(b.String()), Stocks: cards}, nil
}

func (u *assistantUsecase) help(context.Context, entity.Classification, Query) (entity.Result, error) {
	return entity.Result{Facts: helpText}, nil
}

const helpText = `I can help with Pakistan Stock Exchange data:
- top gainers or losers ("top 5 gainers today")
- oversold or overbought scans ("oversold stocks with RSI below 25")
- single stock analysis ("analyze SHEZ")
- current prices ("price of OGDC and LUCK")
- portfolio analysis (send your holdings with the question)`

func rankedResult(title string, qs []marketentity.Quote, line func(int, marketentity.Quote) string) entity.Result {
	if len(qs) == 0 {
		return entity.Result{Facts: title + ": no matching stocks right now."}
	}
	var b strings.Builder
	b.WriteString(title + ":\n")
	cards := make([]entity.StockCard, 0, len(qs))
	for i, q := range qs {
		b.WriteString(line(i+1, q) + "\n")
		cards = append(cards, entity.StockCard{Symbol: q.Symbol, Name: q.Name, Price: q.Price, ChangePercent: q.ChangePercent, RSI: q.RSI})
	}
	return entity.Result{Facts: strings.TrimSpace(b.String()), Stocks: cards}
}

func changeLine(rank int, q marketentity.Quote) string {
	return fmt.Sprintf("%d. %s %.2f (%+.2f%%)", rank, q.Symbol, q.Price, q.ChangePercent)
}

func rsiLine(rank int, q marketentity.Quote) string {
	return fmt.Sprintf("%d. %s RSI %s at %.2f", rank, q.Symbol, optional(q.RSI), q.Price)
}

func optional(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}
