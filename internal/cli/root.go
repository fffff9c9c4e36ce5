package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/viewstore/internal/config"
)

// Guidance messages for invalid flag combinations.
const (
	msgImportAndQuery = "Cannot invoke both the query (-q) and import (-i) options at once, please choose one only"
	msgSelectRequired = "A select option (-s) is required when querying"
	msgChooseMode     = "Please choose to either run a query (-q) or import new data (-i)"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	DataDir    string
	Journal    string

	// Config is resolved from the config file and flags before any command
	// runs.
	Config config.Config

	// Logger is built from Config before any command runs.
	Logger *slog.Logger
}

// ImportQueryOptions holds the flags of the root command itself.
type ImportQueryOptions struct {
	*RootOptions
	Import string
	Query  bool
	Select string
	Order  string
	Filter string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{config.FormatText, config.FormatJSON}

// NewRootCommand creates the root command for the viewstore CLI.
func NewRootCommand() *cobra.Command {
	rootOpts := &RootOptions{}
	opts := &ImportQueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "viewstore",
		Short: "Import and query set-top-box viewing records",
		Long: `Import pipe-delimited viewing records into a per-date datastore and
query them with select, order and filter options.

Import mode merges a source file into the datastore. A stored record with
the same stb, title and date as an imported one is replaced.

Query mode prints one comma-separated line per matching record.

Examples:
  viewstore -i ./views.psv
  viewstore -q -s title,rev -o rev -f date=2017-04-01,stb=stb1
  viewstore -q -s stb,title -f 'date=2017-04-*'`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.resolve(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImportOrQuery(opts, cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&rootOpts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&rootOpts.Format, "format", config.FormatText, "output format (json|text)")
	cmd.PersistentFlags().StringVar(&rootOpts.ConfigPath, "config", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&rootOpts.DataDir, "data-dir", config.Default().DataDir, "datastore directory")
	cmd.PersistentFlags().StringVar(&rootOpts.Journal, "journal", "", "path to SQLite import journal (disabled if empty)")

	cmd.Flags().StringVarP(&opts.Import, "import", "i", "", "import records from a source file")
	cmd.Flags().BoolVarP(&opts.Query, "query", "q", false, "run a query")
	cmd.Flags().StringVarP(&opts.Select, "select", "s", "", "comma-separated fields to print (query)")
	cmd.Flags().StringVarP(&opts.Order, "order", "o", "", "comma-separated fields to sort by (query)")
	cmd.Flags().StringVarP(&opts.Filter, "filter", "f", "", "field=value pairs, comma-separated (query)")

	cmd.AddCommand(NewHistoryCommand(rootOpts))
	cmd.AddCommand(NewTestCommand(rootOpts))

	return cmd
}

// resolve loads the config file, applies the flags that were set on the
// command line and installs the logger.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	cfg := config.Default()
	if o.ConfigPath != "" {
		loaded, err := config.Load(o.ConfigPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load config", err)
		}
		cfg = loaded
	}

	var ov config.Overrides
	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		ov.DataDir = &o.DataDir
	}
	if flags.Changed("journal") {
		ov.JournalPath = &o.Journal
	}
	if flags.Changed("format") {
		if !slices.Contains(ValidFormats, o.Format) {
			return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
		}
		ov.Format = &o.Format
	}
	if flags.Changed("verbose") {
		ov.Verbose = &o.Verbose
	}
	cfg = cfg.Apply(ov)
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	o.Config = cfg
	o.Format = cfg.Format
	o.Verbose = cfg.Verbose
	o.Logger = newLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(o.Logger)
	return nil
}

// newLogger writes text logs to w: warnings and errors normally, everything
// down to debug when verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// formatter returns an OutputFormatter writing to the command's stdout.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}

// signalContext derives a context cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func runImportOrQuery(opts *ImportQueryOptions, cmd *cobra.Command) error {
	switch {
	case opts.Import != "" && opts.Query:
		return NewExitError(ExitCommandError, msgImportAndQuery)
	case opts.Query && opts.Select == "":
		return NewExitError(ExitCommandError, msgSelectRequired)
	case opts.Import != "":
		return runImport(opts.RootOptions, opts.Import, cmd)
	case opts.Query:
		return runQuery(opts, cmd)
	default:
		return NewExitError(ExitCommandError, msgChooseMode)
	}
}
