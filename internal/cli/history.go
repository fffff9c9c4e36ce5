package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/viewstore/internal/ingest"
	"github.com/roach88/viewstore/internal/journal"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit int
	RunID string
}

// RunDetail is the JSON payload of history --run.
type RunDetail struct {
	Run        journal.Run        `json:"run"`
	Rejections []ingest.Rejection `json:"rejections"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded import runs",
		Long: `List import runs recorded in the journal, newest first.

With --run, show one run in detail, including every rejected line.

Requires a journal, set with --journal or in the config file.

Examples:
  viewstore history --journal ./journal.db
  viewstore history --journal ./journal.db --limit 5
  viewstore history --journal ./journal.db --run 0190f3c4-...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of runs to list (0 for all)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "show one run and its rejected lines")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	if opts.Config.JournalPath == "" {
		return NewExitError(ExitCommandError, "no journal configured: use --journal or set journal in the config file")
	}

	j, err := journal.Open(opts.Config.JournalPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer j.Close()

	ctx := cmd.Context()
	out := opts.formatter(cmd)

	if opts.RunID != "" {
		run, err := j.GetRun(ctx, opts.RunID)
		if errors.Is(err, journal.ErrRunNotFound) {
			_ = out.Error("E_RUN_NOT_FOUND", err.Error(), nil)
			return WrapExitError(ExitCommandError, "unknown run", err)
		}
		if err != nil {
			return WrapExitError(ExitFailure, "failed to read journal", err)
		}
		rejections, err := j.Rejections(ctx, opts.RunID)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to read journal", err)
		}
		detail := RunDetail{Run: run, Rejections: rejections}
		return out.Success(detail, func(w io.Writer) { writeRunDetail(w, detail) })
	}

	runs, err := j.ListRuns(ctx, opts.Limit)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read journal", err)
	}
	return out.Success(runs, func(w io.Writer) { writeRuns(w, runs) })
}

func writeRuns(w io.Writer, runs []journal.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No import runs recorded.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tSTATUS\tACCEPTED\tREJECTED\tPARTITIONS\tSOURCE")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			r.ID, r.StartedAt.Format(time.RFC3339), r.Status, r.Accepted, r.Rejected, r.PartitionsWritten, r.Source)
	}
	tw.Flush()
}

func writeRunDetail(w io.Writer, d RunDetail) {
	r := d.Run
	fmt.Fprintf(w, "Run: %s\n", r.ID)
	fmt.Fprintf(w, "Source: %s\n", r.Source)
	fmt.Fprintf(w, "Started: %s\n", r.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Status: %s\n", r.Status)
	if r.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", r.Error)
	}
	fmt.Fprintf(w, "Lines: %d read, %d accepted, %d rejected, %d duplicates\n",
		r.LinesRead, r.Accepted, r.Rejected, r.Duplicates)

	fmt.Fprintln(w, "\nPartitions:")
	for _, p := range r.Partitions {
		written := "written"
		if !p.Written {
			written = "not written"
		}
		fmt.Fprintf(w, "  %s: %d imported, %d retained, %d replaced (%s)\n",
			p.Key, p.Imported, p.Retained, p.Replaced, written)
	}

	if len(d.Rejections) > 0 {
		fmt.Fprintln(w, "\nRejected lines:")
		for _, rej := range d.Rejections {
			fmt.Fprintf(w, "  [%d] %s\n", rej.Line, rej.Reason)
			fmt.Fprintf(w, "       %s\n", rej.Text)
		}
	}
}
