package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/viewstore/internal/datastore"
	"github.com/roach88/viewstore/internal/query"
)

func runQuery(opts *ImportQueryOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	params, err := query.NewParams(opts.Select, opts.Order, opts.Filter)
	if err != nil {
		_ = out.Error("E_INVALID_QUERY", err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid query", err)
	}

	store, err := datastore.Open(opts.Config.DataDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open datastore", err)
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	lines, err := query.New(store, opts.Logger).Run(ctx, params)
	if err != nil {
		_ = out.Error("E_QUERY", err.Error(), nil)
		return WrapExitError(ExitFailure, "query failed", err)
	}

	return out.Success(lines, func(w io.Writer) {
		for _, line := range lines {
			fmt.Fprintln(w, line)
		}
	})
}
