// Package cli implements the tradeimport command line tool.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/findosh/tradeimport/internal/logger"
	"github.com/findosh/tradeimport/internal/models"
	"github.com/findosh/tradeimport/internal/services/importer"
	"github.com/findosh/tradeimport/internal/services/telemetry"
	"github.com/google/subcommands"
)

// ExitInvalid is returned by validate when at least one row failed
const ExitInvalid subcommands.ExitStatus = 3

// as a CLI the lifecycle is short, so output streams are package level and swapped in tests
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// Register the subcommands.
func Register(c *subcommands.Commander) {
	c.Register(&validateCmd{}, "files")
	c.Register(&importCmd{}, "files")
	c.Register(&detectCmd{}, "files")
	c.Register(&mapCmd{}, "files")

	c.Register(&realizedCmd{}, "tax")
	c.Register(&exportCmd{}, "tax")
}

// newService builds an importer whose telemetry goes to the debug log.
// The returned func flushes pending events.
func newService() (*importer.Service, func()) {
	rec := telemetry.NewRecorder(telemetry.DefaultBuffer, logger.L, telemetry.NewLogSink(logger.L))
	return importer.NewService(rec), rec.Close
}

// fileArg returns the single positional file argument
func fileArg(args []string) (string, bool) {
	if len(args) != 1 || args[0] == "" {
		return "", false
	}
	return args[0], true
}

// importFile reads and parses one file; the error is already printed
func importFile(ctx context.Context, path, locale string) (*models.ImportResult, error) {
	f, err := importer.OpenDiskFile(path)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return nil, err
	}

	svc, done := newService()
	defer done()

	result, err := svc.Import(ctx, f, locale)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", path, err)
		return nil, err
	}
	if !result.Detected() {
		fmt.Fprintf(stderr, "%s: broker not recognised, %v rows skipped\n", path, result.Meta.Rows)
	}
	return result, nil
}

// output opens path for writing, or returns stdout when path is empty
func output(path string) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
