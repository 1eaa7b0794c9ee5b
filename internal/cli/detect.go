package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/findosh/tradeimport/internal/services/importer"
	"github.com/google/subcommands"
)

type detectCmd struct{}

func (*detectCmd) Name() string     { return "detect" }
func (*detectCmd) Synopsis() string { return "identify the broker of an export" }
func (*detectCmd) Usage() string {
	return `tradeimport detect <file>

  Prints the broker id, the line of the header row and the number of data
  rows. Prints "unknown" when no adapter recognises the header.
`
}

func (*detectCmd) SetFlags(*flag.FlagSet) {}

func (*detectCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	path, ok := fileArg(f.Args())
	if !ok {
		fmt.Fprintln(stderr, "Error: detect takes exactly one file.")
		return subcommands.ExitUsageError
	}

	d, status := inspect(ctx, path)
	if d == nil {
		return status
	}

	fmt.Fprintf(stdout, "%s\theader on %s line\t%s rows\n",
		d.Broker, humanize.Ordinal(d.HeaderLine), humanize.Comma(int64(d.Rows)))
	fmt.Fprintln(stdout, strings.Join(d.Headers, ", "))
	return subcommands.ExitSuccess
}

type mapCmd struct{}

func (*mapCmd) Name() string     { return "map" }
func (*mapCmd) Synopsis() string { return "suggest a column mapping for an unrecognised export" }
func (*mapCmd) Usage() string {
	return `tradeimport map <file>

  Prints the suggested mapping from canonical fields to the file's headers as
  JSON, with the required fields that could not be matched.
`
}

func (*mapCmd) SetFlags(*flag.FlagSet) {}

func (*mapCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	path, ok := fileArg(f.Args())
	if !ok {
		fmt.Fprintln(stderr, "Error: map takes exactly one file.")
		return subcommands.ExitUsageError
	}

	d, status := inspect(ctx, path)
	if d == nil {
		return status
	}

	mapping := importer.NewMapper().Suggest(d.Headers)
	missing := mapping.Missing()
	if missing == nil {
		missing = []string{}
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string]interface{}{"mapping": mapping, "missing": missing}); err != nil {
		fmt.Fprintln(stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// inspect locates the header of a file; on failure the error is printed
func inspect(ctx context.Context, path string) (*importer.Detection, subcommands.ExitStatus) {
	file, err := importer.OpenDiskFile(path)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return nil, subcommands.ExitFailure
	}
	text, err := importer.Ingest(ctx, file)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", path, err)
		return nil, subcommands.ExitFailure
	}

	svc, done := newService()
	defer done()

	d, err := svc.Inspect(text)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", path, err)
		return nil, subcommands.ExitFailure
	}
	return d, subcommands.ExitSuccess
}
