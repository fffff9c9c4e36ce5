package query

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/viewstore/internal/record"
)

// Store is the read side of the datastore.
type Store interface {
	ListPartitions(ctx context.Context, pattern string) ([]string, error)
	Read(ctx context.Context, key string) ([]string, error)
}

// Params is a fully parsed query. Select names are kept as given so that
// unknown names can render as "none".
type Params struct {
	Select []string
	Order  []record.Field
	Filter Filter
}

// NewParams parses the command-line forms of a query: comma-separated
// select and order lists and a filter expression.
func NewParams(selectSpec, orderSpec, filterSpec string) (Params, error) {
	order, err := record.ParseFieldList(orderSpec)
	if err != nil {
		return Params{}, fmt.Errorf("order: %w", err)
	}
	filter, err := ParseFilter(filterSpec)
	if err != nil {
		return Params{}, err
	}
	return Params{
		Select: splitList(selectSpec),
		Order:  order,
		Filter: filter,
	}, nil
}

func splitList(expr string) []string {
	if strings.TrimSpace(expr) == "" {
		return nil
	}
	return strings.Split(expr, ",")
}

// Engine runs queries against a Store.
type Engine struct {
	store  Store
	logger *slog.Logger
}

// New creates an Engine. A nil logger means slog.Default().
func New(store Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, logger: logger}
}

// Run executes p and returns one projected line per matching record.
//
// A stored line that does not decode aborts the query with an error
// wrapping record.ErrMalformedRecord that names the partition and line.
func (e *Engine) Run(ctx context.Context, p Params) ([]string, error) {
	records, err := e.Records(ctx, p.Filter)
	if err != nil {
		return nil, err
	}
	record.NewComparator(p.Order).Sort(records)
	return record.ProjectAll(records, p.Select), nil
}

// Records returns the decoded records matching f, in partition then line
// order.
func (e *Engine) Records(ctx context.Context, f Filter) ([]record.Record, error) {
	keys, err := e.store.ListPartitions(ctx, f.Date)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("query partitions", "pattern", f.Date, "matched", len(keys))

	m := newMatcher(f.Conditions)
	records := []record.Record{}
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lines, err := e.store.Read(ctx, key)
		if err != nil {
			return nil, err
		}
		for i, line := range lines {
			if !m.empty() && !m.match(line) {
				continue
			}
			r, err := record.Decode(line)
			if err != nil {
				return nil, fmt.Errorf("partition %s line %d: %w", key, i+1, err)
			}
			records = append(records, r)
		}
	}
	e.logger.Debug("query matched", "records", len(records))
	return records, nil
}
