package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"

	"psx_backend/internal/feature/assistant/usecase"
)

type askCmd struct {
	raw bool
}

func (*askCmd) Name() string     { return "ask" }
func (*askCmd) Synopsis() string { return "ask a question about the Pakistan Stock Exchange" }
func (*askCmd) Usage() string {
	return `psxctl ask [-raw] <question>

  Classifies the question, runs the matching market or portfolio query and prints the answer.
  Example: psxctl ask "top 5 gainers today"
`
}

func (c *askCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.raw, "raw", false, "Print the answer without terminal formatting.")
}

func (c *askCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	question := strings.Join(f.Args(), " ")
	if strings.TrimSpace(question) == "" {
		fail("a question is required")
		return subcommands.ExitUsageError
	}

	app, err := openApp(ctx)
	if err != nil {
		fail("Error starting: %v", err)
		return subcommands.ExitFailure
	}
	defer app.Close()

	ans, err := app.Assistant.Ask(ctx, usecase.Query{Question: question})
	if err != nil {
		fail("Error answering: %v", err)
		return subcommands.ExitFailure
	}

	if c.raw {
		fmt.Println(ans.Text)
	} else {
		printMarkdown(ans.Text)
	}
	return subcommands.ExitSuccess
}
