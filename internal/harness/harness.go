package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/roach88/viewstore/internal/datastore"
	"github.com/roach88/viewstore/internal/ingest"
	"github.com/roach88/viewstore/internal/query"
	"github.com/roach88/viewstore/internal/testutil"
)

// Harness executes one scenario against a scratch datastore.
type Harness struct {
	dir      string
	store    *datastore.Store
	importer *ingest.Importer
	engine   *query.Engine
	logger   *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Create a fresh datastore in a temporary directory
//  2. Write the existing partitions
//  3. Import each source in order
//  4. Run the query, if any
//  5. Check expectations and assertions against the final datastore
//
// A failing import or query is an outcome, recorded in the result. Run
// itself only fails when the scratch datastore cannot be set up or read.
func Run(scenario *Scenario) (*Result, error) {
	dir, err := os.MkdirTemp("", "viewstore-scenario-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(dir)

	store, err := datastore.Open(filepath.Join(dir, "datastore"))
	if err != nil {
		return nil, fmt.Errorf("failed to open scratch datastore: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	runIDs := make([]string, len(scenario.Imports))
	for i := range runIDs {
		runIDs[i] = fmt.Sprintf("%s-%d", scenario.Name, i+1)
	}

	h := &Harness{
		dir:   dir,
		store: store,
		importer: ingest.New(store, ingest.Options{
			Logger: logger,
			RunIDs: testutil.NewFixedRunIDGenerator(runIDs...),
			Now:    testutil.FixedClock(testutil.Epoch),
		}),
		engine: query.New(store, logger),
		logger: logger,
	}

	ctx := context.Background()
	result := NewResult()

	if err := h.writeExisting(ctx, scenario.Existing); err != nil {
		return nil, err
	}

	stepErr := h.executeImports(ctx, scenario.Imports, result)
	if stepErr == nil && scenario.Query != nil {
		stepErr = h.executeQuery(ctx, *scenario.Query, result)
	}
	checkStepError(scenario.Expect.Error, stepErr, result)

	if err := h.snapshot(ctx, result); err != nil {
		return nil, err
	}

	checkExpect(scenario.Expect, result)
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) writeExisting(ctx context.Context, existing map[string][]string) error {
	keys := make([]string, 0, len(existing))
	for key := range existing {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	for _, key := range keys {
		if err := h.store.Write(ctx, key, existing[key]); err != nil {
			return fmt.Errorf("failed to write existing partition %s: %w", key, err)
		}
	}
	return nil
}

// executeImports imports each source through a real file, stopping at the
// first failure.
func (h *Harness) executeImports(ctx context.Context, imports []string, result *Result) error {
	for i, content := range imports {
		path := filepath.Join(h.dir, fmt.Sprintf("import-%d.psv", i+1))
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("import %d: write source: %w", i+1, err)
		}

		report, err := h.importer.Import(ctx, path)
		if report != nil {
			result.Reports = append(result.Reports, report)
		}
		if err != nil {
			return fmt.Errorf("import %d: %w", i+1, err)
		}
		h.logger.Info("import step completed", "step", i+1, "run_id", report.RunID)
	}
	return nil
}

func (h *Harness) executeQuery(ctx context.Context, step QueryStep, result *Result) error {
	params, err := query.NewParams(step.Select, step.Order, step.Filter)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	out, err := h.engine.Run(ctx, params)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	result.Output = out
	return nil
}

// snapshot copies the final datastore into the result.
func (h *Harness) snapshot(ctx context.Context, result *Result) error {
	keys, err := h.store.ListPartitions(ctx, datastore.MatchAll)
	if err != nil {
		return fmt.Errorf("failed to list partitions: %w", err)
	}
	for _, key := range keys {
		lines, err := h.store.Read(ctx, key)
		if err != nil {
			return fmt.Errorf("failed to read partition %s: %w", key, err)
		}
		result.Partitions[key] = lines
	}
	return nil
}

func checkStepError(want string, got error, result *Result) {
	switch {
	case want == "" && got != nil:
		result.AddError(fmt.Sprintf("unexpected error: %v", got))
	case want != "" && got == nil:
		result.AddError(fmt.Sprintf("expected error containing %q, got none", want))
	case want != "" && !strings.Contains(got.Error(), want):
		result.AddError(fmt.Sprintf("expected error containing %q, got %q", want, got.Error()))
	}
}

func checkExpect(expect Expect, result *Result) {
	if expect.Output != nil && !slices.Equal(expect.Output, result.Output) {
		result.AddError(fmt.Sprintf("output mismatch\n  Expected: %q\n  Actual: %q", expect.Output, result.Output))
	}

	keys := make([]string, 0, len(expect.Partitions))
	for key := range expect.Partitions {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		want := expect.Partitions[key]
		got, ok := result.Partitions[key]
		if !ok {
			result.AddError(fmt.Sprintf("partition %s: not found", key))
			continue
		}
		if !slices.Equal(want, got) {
			result.AddError(fmt.Sprintf("partition %s mismatch\n  Expected: %q\n  Actual: %q", key, want, got))
		}
	}

	if expect.Rejected != nil && *expect.Rejected != result.Rejected() {
		result.AddError(fmt.Sprintf("rejected: expected %d, got %d", *expect.Rejected, result.Rejected()))
	}
	if expect.Duplicates != nil && *expect.Duplicates != result.Duplicates() {
		result.AddError(fmt.Sprintf("duplicates: expected %d, got %d", *expect.Duplicates, result.Duplicates()))
	}
}
