// Command psxctl is the operator CLI: ask questions, analyze holdings, list movers,
// ingest history, send the scheduled digest and mint operator tokens.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/google/subcommands"
)

var configPath = flag.String("config", "", "Path to the YAML config file. Defaults to $PSX_CONFIG or config.yaml.")

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")

	commander.Register(&askCmd{}, "market")
	commander.Register(&analyzeCmd{}, "market")
	commander.Register(&moversCmd{}, "market")
	commander.Register(&ingestCmd{}, "operations")
	commander.Register(&digestCmd{}, "operations")
	commander.Register(&tokenCmd{}, "operations")

	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	status := commander.Execute(ctx)
	stop()
	os.Exit(int(status))
}
