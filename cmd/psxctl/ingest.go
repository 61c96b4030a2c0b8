package main

import (
	"context"
	"flag"
	"time"

	"github.com/google/subcommands"
)

type ingestCmd struct {
	timeout time.Duration
}

func (*ingestCmd) Name() string     { return "ingest" }
func (*ingestCmd) Synopsis() string { return "fetch and store daily history for symbols" }
func (*ingestCmd) Usage() string {
	return `psxctl ingest [-timeout 5m] <SYMBOL>...

  Fetches daily candles from the history provider and upserts them into the database.
  Symbols in the digest subscriptions are used when none are given.
`
}

func (c *ingestCmd) SetFlags(f *flag.FlagSet) {
	f.DurationVar(&c.timeout, "timeout", 5*time.Minute, "Overall deadline.")
}

func (c *ingestCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	app, err := openApp(ctx)
	if err != nil {
		fail("Error starting: %v", err)
		return subcommands.ExitFailure
	}
	defer app.Close()

	symbols := f.Args()
	if len(symbols) == 0 {
		for _, s := range app.Config.Digest.Subscriptions {
			for _, h := range s.Holdings {
				symbols = append(symbols, h.Symbol)
			}
		}
	}
	if len(symbols) == 0 {
		fail("no symbols given and no digest subscriptions configured")
		return subcommands.ExitUsageError
	}

	failed, err := app.History.IngestAll(ctx, symbols)
	if err != nil {
		fail("Ingest aborted: %v", err)
		return subcommands.ExitFailure
	}
	if failed > 0 {
		fail("%d of %d symbols failed", failed, len(symbols))
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
