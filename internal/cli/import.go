package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/findosh/tradeimport/internal/services/importer"
	"github.com/google/subcommands"
)

type importCmd struct {
	locale string
	out    string
	dedupe bool
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "parse a broker export into canonical trades" }
func (*importCmd) Usage() string {
	return `tradeimport import [-locale <tag>] [-dedupe] [-o <file>] <file>

  Detects the broker of a CSV or XLSX export and prints the import result as
  JSON. Rows that fail validation are counted in meta.invalid.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.locale, "locale", "", "Locale hint for numbers and dates. Defaults to the broker's.")
	f.StringVar(&c.out, "o", "", "Write the JSON result to this file instead of stdout.")
	f.BoolVar(&c.dedupe, "dedupe", false, "Drop trades whose raw row was already seen.")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	path, ok := fileArg(f.Args())
	if !ok {
		fmt.Fprintln(stderr, "Error: import takes exactly one file.")
		return subcommands.ExitUsageError
	}

	result, err := importFile(ctx, path, c.locale)
	if err != nil {
		return subcommands.ExitFailure
	}
	if c.dedupe {
		result.Trades = importer.Dedupe(result.Trades)
	}

	w, closeOut, err := output(c.out)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return subcommands.ExitFailure
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		closeOut()
		fmt.Fprintln(stderr, err)
		return subcommands.ExitFailure
	}
	if err := closeOut(); err != nil {
		fmt.Fprintln(stderr, err)
		return subcommands.ExitFailure
	}

	fmt.Fprintf(stderr, "%s: %s trades from %s, %s invalid of %s rows in %s\n",
		path,
		humanize.Comma(int64(len(result.Trades))),
		result.Broker,
		humanize.Comma(int64(result.Meta.Invalid)),
		humanize.Comma(int64(result.Meta.Rows)),
		time.Duration(result.Meta.DurationMs)*time.Millisecond)
	return subcommands.ExitSuccess
}
