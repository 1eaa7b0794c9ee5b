package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/findosh/tradeimport/internal/cli"
	"github.com/findosh/tradeimport/internal/logger"
	"github.com/google/subcommands"
)

var logLevel = flag.String("log-level", "warn", "Log level (debug, info, warn, error)")

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cli.Register(commander)

	flag.Parse()
	logger.Init(*logLevel, true)
	os.Exit(int(commander.Execute(context.Background())))
}
