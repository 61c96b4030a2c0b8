package main

import (
	"context"
	"flag"
	"log/slog"

	"github.com/google/subcommands"

	"psx_backend/internal/app/digest"
)

type digestCmd struct {
	once bool
}

func (*digestCmd) Name() string     { return "digest" }
func (*digestCmd) Synopsis() string { return "email the portfolio update to every subscription" }
func (*digestCmd) Usage() string {
	return `psxctl digest [-once]

  Runs on digest.cron in digest.timezone until interrupted, skipping weekends.
  With -once, sends immediately and exits.
`
}

func (c *digestCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.once, "once", false, "Send once and exit.")
}

func (c *digestCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	app, err := openApp(ctx)
	if err != nil {
		fail("Error starting: %v", err)
		return subcommands.ExitFailure
	}
	defer app.Close()

	cfg := app.Config.Digest
	if len(cfg.Subscriptions) == 0 {
		fail("no digest subscriptions configured")
		return subcommands.ExitUsageError
	}
	runner, err := digest.NewRunner(app.Alerts, digest.Requests(cfg.Subscriptions), cfg.Timezone)
	if err != nil {
		fail("%v", err)
		return subcommands.ExitUsageError
	}

	if c.once {
		rep := runner.RunOnce(ctx)
		slog.Info("digest finished", "sent", rep.Sent, "failed", rep.Failed, "skipped", rep.Skipped)
		if rep.Failed > 0 {
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	cr, err := runner.Schedule(ctx, cfg.Cron)
	if err != nil {
		fail("%v", err)
		return subcommands.ExitUsageError
	}
	cr.Start()
	slog.Info("digest scheduler started", "cron", cfg.Cron, "timezone", cfg.Timezone, "subscriptions", len(cfg.Subscriptions))
	<-ctx.Done()
	// 実行中のジョブが終わるまで待つ
	<-cr.Stop().Done()
	slog.Info("digest scheduler stopped")
	return subcommands.ExitSuccess
}
