package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/viewstore/internal/datastore"
	"github.com/roach88/viewstore/internal/ingest"
	"github.com/roach88/viewstore/internal/journal"
)

func runImport(opts *RootOptions, source string, cmd *cobra.Command) error {
	cfg := opts.Config
	logger := opts.Logger
	out := opts.formatter(cmd)

	store, err := datastore.Open(cfg.DataDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open datastore", err)
	}

	importOpts := ingest.Options{Logger: logger}
	if cfg.JournalPath != "" {
		j, err := journal.Open(cfg.JournalPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer func() {
			if closeErr := j.Close(); closeErr != nil {
				logger.Error("error closing journal", "error", closeErr)
			}
		}()
		importOpts.Journal = j
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	logger.Debug("importing", "source", source, "datastore", store.Root())
	report, err := ingest.New(store, importOpts).Import(ctx, source)
	if errors.Is(err, ingest.ErrSourceNotFound) {
		msg := fmt.Sprintf("The file %s does not exist", source)
		_ = out.Error("E_SOURCE_NOT_FOUND", msg, nil)
		return NewExitError(ExitCommandError, msg)
	}
	if report == nil {
		_ = out.Error("E_IMPORT", err.Error(), nil)
		return WrapExitError(ExitFailure, "import failed", err)
	}

	if outErr := writeImportReport(out, report, opts.Verbose); outErr != nil {
		return outErr
	}
	if err != nil {
		return WrapExitError(ExitFailure, "import failed", err)
	}
	return nil
}

// writeImportReport prints the summary, or the whole report in JSON mode.
// The report is printed even for a failed import so that the written
// partitions are known.
func writeImportReport(out *OutputFormatter, report *ingest.Report, verbose bool) error {
	return out.Success(report, func(w io.Writer) {
		fmt.Fprintf(w, "imported %d records into %d partitions (%d rejected, %d duplicates)\n",
			report.Records(), len(report.WrittenPartitions()), len(report.Rejected), report.Duplicates)
		if !verbose {
			return
		}
		for _, r := range report.Rejected {
			fmt.Fprintf(w, "rejected line %d: %s\n", r.Line, r.Reason)
		}
		for _, p := range report.Partitions {
			if !p.Written {
				fmt.Fprintf(w, "partition %s: not written\n", p.Key)
			}
		}
	})
}
