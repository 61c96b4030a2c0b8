package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"

	"psx_backend/internal/feature/market/domain/entity"
)

type moversCmd struct {
	losers bool
	limit  int
}

func (*moversCmd) Name() string     { return "movers" }
func (*moversCmd) Synopsis() string { return "list today's top gainers or losers" }
func (*moversCmd) Usage() string {
	return `psxctl movers [-losers] [-n <limit>]
`
}

func (c *moversCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.losers, "losers", false, "List losers instead of gainers.")
	f.IntVar(&c.limit, "n", 10, "Number of stocks to list (1-100).")
}

func (c *moversCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	app, err := openApp(ctx)
	if err != nil {
		fail("Error starting: %v", err)
		return subcommands.ExitFailure
	}
	defer app.Close()

	title, fetch := "Top gainers", app.Market.TopGainers
	if c.losers {
		title, fetch = "Top losers", app.Market.TopLosers
	}
	qs, err := fetch(ctx, c.limit)
	if err != nil {
		fail("Error fetching movers: %v", err)
		return subcommands.ExitFailure
	}
	printMarkdown(moversMarkdown(title, qs))
	return subcommands.ExitSuccess
}

func moversMarkdown(title string, qs []entity.Quote) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	if len(qs) == 0 {
		b.WriteString("No data.\n")
		return b.String()
	}
	b.WriteString("| # | Symbol | Name | Price | Change % | Volume |\n|--:|---|---|--:|--:|--:|\n")
	for i, q := range qs {
		fmt.Fprintf(&b, "| %d | %s | %s | %.2f | %+.2f | %d |\n", i+1, q.Symbol, q.Name, q.Price, q.ChangePercent, q.Volume)
	}
	return b.String()
}
