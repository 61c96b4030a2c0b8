package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"psx_backend/internal/feature/portfolio/domain/entity"
)

type analyzeCmd struct{}

func (*analyzeCmd) Name() string     { return "analyze" }
func (*analyzeCmd) Synopsis() string { return "analyze holdings given as SYMBOL:QUANTITY:BUY_PRICE" }
func (*analyzeCmd) Usage() string {
	return `psxctl analyze <SYMBOL:QUANTITY:BUY_PRICE>...

  Prints P&L, signals and recommendations for the given holdings.
  Example: psxctl analyze SHEZ:100:280 OGDC:50:150
`
}

func (*analyzeCmd) SetFlags(*flag.FlagSet) {}

func (c *analyzeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	holdings, err := parseHoldings(f.Args())
	if err != nil {
		fail("%v", err)
		return subcommands.ExitUsageError
	}

	app, err := openApp(ctx)
	if err != nil {
		fail("Error starting: %v", err)
		return subcommands.ExitFailure
	}
	defer app.Close()

	s, err := app.Portfolio.Analyze(ctx, holdings)
	if err != nil {
		fail("Error analyzing portfolio: %v", err)
		return subcommands.ExitFailure
	}
	printMarkdown(summaryMarkdown(s))
	return subcommands.ExitSuccess
}

// parseHoldings parses SYMBOL:QUANTITY:BUY_PRICE arguments. Value checks are left to the usecase.
func parseHoldings(args []string) ([]entity.Holding, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("at least one holding is required")
	}
	out := make([]entity.Holding, 0, len(args))
	for _, a := range args {
		// シンボルには "PSX:" が付くことがあるため末尾から分割する
		parts := strings.Split(a, ":")
		n := len(parts)
		if n < 3 || parts[0] == "" {
			return nil, fmt.Errorf("holding %q: want SYMBOL:QUANTITY:BUY_PRICE", a)
		}
		qty, err := decimal.NewFromString(parts[n-2])
		if err != nil {
			return nil, fmt.Errorf("holding %q: quantity: %w", a, err)
		}
		price, err := decimal.NewFromString(parts[n-1])
		if err != nil {
			return nil, fmt.Errorf("holding %q: buy price: %w", a, err)
		}
		out = append(out, entity.Holding{Symbol: strings.Join(parts[:n-2], ":"), Quantity: qty, BuyPrice: price})
	}
	return out, nil
}

func summaryMarkdown(s entity.PortfolioSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Portfolio (%s)\n\n", s.GeneratedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "| Symbol | Qty | Buy | Price | P&L | P&L %% | RSI | Advice |\n")
	fmt.Fprintf(&b, "|---|--:|--:|--:|--:|--:|--:|---|\n")
	for _, p := range s.Positions {
		rsi := "n/a"
		if p.RSI != nil {
			rsi = fmt.Sprintf("%.1f", *p.RSI)
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %.2f | %s | %s | %s | %s |\n",
			p.Holding.Symbol, p.Holding.Quantity, p.Holding.BuyPrice.StringFixed(2), p.Quote.Price,
			p.PnL.StringFixed(2), p.PnLPercent.StringFixed(2), rsi, p.Recommendation)
	}
	fmt.Fprintf(&b, "\n**Total:** cost %s, value %s, P&L %s (%s%%)\n",
		s.TotalCostBasis.StringFixed(2), s.TotalMarketValue.StringFixed(2), s.TotalPnL.StringFixed(2), s.TotalPnLPercent.StringFixed(2))
	if len(s.Unavailable) > 0 {
		b.WriteString("\n## No market data\n\n")
		for _, u := range s.Unavailable {
			fmt.Fprintf(&b, "- %s: %s\n", u.Symbol, u.Reason)
		}
	}
	if len(s.Recommendations) > 0 {
		b.WriteString("\n## Recommendations\n\n")
		for _, r := range s.Recommendations {
			fmt.Fprintf(&b, "- %s\n", r)
		}
	}
	return b.String()
}
