package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/findosh/tradeimport/internal/services/importer"
	"github.com/google/subcommands"
)

// ReportSuffix is appended to the input path to name the error report
const ReportSuffix = ".errors.json"

type validateCmd struct {
	locale string
}

func (*validateCmd) Name() string     { return "validate" }
func (*validateCmd) Synopsis() string { return "check every row of a broker export" }
func (*validateCmd) Usage() string {
	return `tradeimport validate [-locale <tag>] <file>

  Checks required-field presence and type conformance of every row. When a
  row fails, the line errors are written to <file>.errors.json and the exit
  status is 3. Unreadable or unsupported files exit with 1.
`
}

func (c *validateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.locale, "locale", "", "Locale hint for numbers and dates, e.g. de-DE. Defaults to the broker's.")
}

func (c *validateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	path, ok := fileArg(f.Args())
	if !ok {
		fmt.Fprintln(stderr, "Error: validate takes exactly one file.")
		return subcommands.ExitUsageError
	}

	file, err := importer.OpenDiskFile(path)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return subcommands.ExitFailure
	}

	svc, done := newService()
	defer done()

	report, err := svc.Validate(ctx, file, c.locale)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", path, err)
		return subcommands.ExitFailure
	}

	reportPath := path + ReportSuffix
	if report.OK() {
		// a clean run clears any report left by an earlier one
		if err := os.Remove(reportPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintln(stderr, err)
		}
		fmt.Fprintf(stdout, "%s: %s rows valid (%s), %s skipped\n",
			path, humanize.Comma(int64(report.Valid)), report.Broker, humanize.Comma(int64(report.Skipped)))
		return subcommands.ExitSuccess
	}

	if err := writeReport(reportPath, report); err != nil {
		fmt.Fprintln(stderr, err)
		return subcommands.ExitFailure
	}

	fmt.Fprintln(stderr, report.Err())
	fmt.Fprintf(stdout, "%s: %s of %s rows failed (%s), see %s\n",
		path, humanize.Comma(int64(len(report.Errors))), humanize.Comma(int64(report.Rows)), report.Broker, reportPath)
	return ExitInvalid
}

func writeReport(path string, report *importer.ValidationReport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	if err := report.WriteJSON(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	return f.Close()
}
