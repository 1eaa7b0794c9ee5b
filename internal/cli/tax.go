package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/findosh/tradeimport/internal/services/export"
	"github.com/findosh/tradeimport/internal/services/lots"
	"github.com/google/subcommands"
)

type realizedCmd struct {
	locale string
}

func (*realizedCmd) Name() string     { return "realized" }
func (*realizedCmd) Synopsis() string { return "compute FIFO realized P&L per ticker" }
func (*realizedCmd) Usage() string {
	return `tradeimport realized [-locale <tag>] <file>

  Imports a broker export and matches sells against earlier buys first in,
  first out. Sells beyond the available lots are ignored.
`
}

func (c *realizedCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.locale, "locale", "", "Locale hint for numbers and dates. Defaults to the broker's.")
}

func (c *realizedCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	path, ok := fileArg(f.Args())
	if !ok {
		fmt.Fprintln(stderr, "Error: realized takes exactly one file.")
		return subcommands.ExitUsageError
	}

	result, err := importFile(ctx, path, c.locale)
	if err != nil {
		return subcommands.ExitFailure
	}

	for _, pl := range lots.FromTrades(nil, result.Trades) {
		fmt.Fprintf(stdout, "%-10s realized %12s  fees %10s  net %12s  %s\n",
			pl.Ticker,
			pl.RealizedBase.StringFixed(2),
			pl.FeesBase.StringFixed(2),
			pl.Net().StringFixed(2),
			strings.Join(pl.Explain, "; "))
	}
	return subcommands.ExitSuccess
}

type exportCmd struct {
	format string
	locale string
	out    string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "convert a broker export into a tax software CSV" }
func (*exportCmd) Usage() string {
	formats := make([]string, 0, len(export.AllFormats()))
	for _, f := range export.AllFormats() {
		formats = append(formats, string(f))
	}
	return fmt.Sprintf(`tradeimport export -format <%s> [-locale <tag>] [-o <file>] <file>

  Imports a broker export and writes it in the layout a tax package accepts.
`, strings.Join(formats, "|"))
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", "", "Target tax software.")
	f.StringVar(&c.locale, "locale", "", "Locale hint for numbers and dates. Defaults to the broker's.")
	f.StringVar(&c.out, "o", "", "Write the CSV to this file instead of stdout.")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	format, err := export.ParseFormat(c.format)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return subcommands.ExitUsageError
	}
	path, ok := fileArg(f.Args())
	if !ok {
		fmt.Fprintln(stderr, "Error: export takes exactly one file.")
		return subcommands.ExitUsageError
	}

	result, err := importFile(ctx, path, c.locale)
	if err != nil {
		return subcommands.ExitFailure
	}

	w, closeOut, err := output(c.out)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return subcommands.ExitFailure
	}
	n, err := export.Write(w, format, result.Trades)
	if cerr := closeOut(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		return subcommands.ExitFailure
	}

	fmt.Fprintf(stderr, "%s: wrote %s %s rows\n", path, humanize.Comma(int64(n)), format.DisplayName())
	return subcommands.ExitSuccess
}
