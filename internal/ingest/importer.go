package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/roach88/viewstore/internal/datastore"
	"github.com/roach88/viewstore/internal/record"
)

var (
	// ErrSourceNotFound is returned when the import source does not exist.
	ErrSourceNotFound = errors.New("import source not found")

	// ErrWriteFailed marks an import in which at least one partition could
	// not be written. The Report lists which partitions were.
	ErrWriteFailed = errors.New("partition write failed")

	// ErrJournal marks a failure to record the run in the journal. The
	// datastore writes themselves succeeded.
	ErrJournal = errors.New("journal record failed")
)

// Store is the subset of the datastore the importer needs.
type Store interface {
	Exists(key string) (bool, error)
	Read(ctx context.Context, key string) ([]string, error)
	Write(ctx context.Context, key string, lines []string) error
}

// Recorder persists a finished import run. importErr is the error the run
// ended with, or nil.
type Recorder interface {
	RecordImport(ctx context.Context, report *Report, importErr error) error
}

// Options configures an Importer. The zero value is usable.
type Options struct {
	// Logger receives progress and rejection logs. Defaults to slog.Default().
	Logger *slog.Logger

	// Journal, if set, records every run that got as far as merging.
	Journal Recorder

	// RunIDs generates run IDs. Defaults to UUIDv7Generator.
	RunIDs RunIDGenerator

	// Now stamps Report.StartedAt. Defaults to time.Now.
	Now func() time.Time
}

// Importer merges source files into a Store.
type Importer struct {
	store   Store
	logger  *slog.Logger
	journal Recorder
	runIDs  RunIDGenerator
	now     func() time.Time
}

// New creates an Importer writing to store.
func New(store Store, opts Options) *Importer {
	im := &Importer{
		store:   store,
		logger:  opts.Logger,
		journal: opts.Journal,
		runIDs:  opts.RunIDs,
		now:     opts.Now,
	}
	if im.logger == nil {
		im.logger = slog.Default()
	}
	if im.runIDs == nil {
		im.runIDs = UUIDv7Generator{}
	}
	if im.now == nil {
		im.now = time.Now
	}
	return im
}

// Import reads the file at source and merges it into the store.
//
// The returned Report is non-nil whenever the source could be opened, even
// if err is not nil, so callers can show what was written.
func (im *Importer) Import(ctx context.Context, source string) (*Report, error) {
	f, err := os.Open(source)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, source)
	}
	if err != nil {
		return nil, fmt.Errorf("open import source: %w", err)
	}
	defer f.Close()

	return im.ImportReader(ctx, source, f)
}

// ImportReader merges the lines of r, named source in the report and logs.
func (im *Importer) ImportReader(ctx context.Context, source string, r io.Reader) (*Report, error) {
	report := &Report{
		RunID:      im.runIDs.Generate(),
		Source:     source,
		StartedAt:  im.now().UTC(),
		Partitions: []PartitionResult{},
	}
	logger := im.logger.With("run_id", report.RunID, "source", source)

	groups, err := im.parse(r, report, logger)
	if err != nil {
		return report, fmt.Errorf("read import source %s: %w", source, err)
	}
	if len(groups.order) == 0 {
		logger.Info("no valid records to import", "lines", report.LinesRead, "rejected", len(report.Rejected))
		return report, im.finish(ctx, report, nil)
	}

	merged, err := im.mergeAll(ctx, groups, report)
	if err != nil {
		return report, im.finish(ctx, report, err)
	}

	err = im.writeAll(ctx, merged, report, logger)
	logger.Info("import finished",
		"accepted", report.Accepted,
		"rejected", len(report.Rejected),
		"duplicates", report.Duplicates,
		"partitions", len(report.WrittenPartitions()),
	)
	return report, im.finish(ctx, report, err)
}

// parse validates and groups the source lines, skipping the header.
func (im *Importer) parse(r io.Reader, report *Report, logger *slog.Logger) (*batches, error) {
	groups := newBatches()
	lines := newLineReader(r, MaxLineBytes)

	for lineNo := 1; ; lineNo++ {
		src, err := lines.next()
		if errors.Is(err, io.EOF) {
			return groups, nil
		}
		if err != nil {
			return groups, err
		}
		if lineNo == 1 {
			continue // header
		}
		report.LinesRead++

		if src.tooLong {
			reason := fmt.Sprintf("line longer than %d bytes", MaxLineBytes)
			report.Rejected = append(report.Rejected, Rejection{Line: lineNo, Text: preview(src.text), Reason: reason})
			logger.Warn("rejected line", "line", lineNo, "reason", reason)
			continue
		}
		line := src.text
		if err := record.Check(line); err != nil {
			report.Rejected = append(report.Rejected, Rejection{Line: lineNo, Text: line, Reason: err.Error()})
			logger.Warn("rejected line", "line", lineNo, "reason", err)
			continue
		}
		report.Accepted++
		if groups.add(line) {
			report.Duplicates++
			logger.Debug("duplicate key in source, later line wins", "line", lineNo, "key", record.Key(line))
		}
	}
}

type mergedPartition struct {
	key   string
	lines []string
}

// mergeAll reads every affected partition and computes its new contents.
// Nothing is written here, so a read failure aborts the import cleanly.
func (im *Importer) mergeAll(ctx context.Context, groups *batches, report *Report) ([]mergedPartition, error) {
	merged := make([]mergedPartition, 0, len(groups.order))
	for _, b := range groups.order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		stored, err := im.readExisting(ctx, b.key)
		if err != nil {
			return nil, err
		}
		lines, retained, replaced := b.merge(stored)

		merged = append(merged, mergedPartition{key: b.key, lines: lines})
		report.Partitions = append(report.Partitions, PartitionResult{
			Key:      b.key,
			Imported: len(b.lines),
			Retained: retained,
			Replaced: replaced,
		})
	}
	return merged, nil
}

// readExisting returns the stored lines of a partition. A partition that
// does not exist yet has no lines.
func (im *Importer) readExisting(ctx context.Context, key string) ([]string, error) {
	ok, err := im.store.Exists(key)
	if err != nil {
		return nil, fmt.Errorf("check partition %s: %w", key, err)
	}
	if !ok {
		return nil, nil
	}
	lines, err := im.store.Read(ctx, key)
	if errors.Is(err, datastore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// writeAll writes every merged partition, carrying on past failures so the
// caller learns about all of them at once.
func (im *Importer) writeAll(ctx context.Context, merged []mergedPartition, report *Report, logger *slog.Logger) error {
	var result *multierror.Error
	for i, p := range merged {
		if err := im.store.Write(ctx, p.key, p.lines); err != nil {
			logger.Error("partition write failed", "partition", p.key, "error", err)
			result = multierror.Append(result, err)
			continue
		}
		report.Partitions[i].Written = true
		logger.Debug("partition written", "partition", p.key, "lines", len(p.lines))
	}
	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %d of %d partitions: %w", ErrWriteFailed, len(result.Errors), len(merged), err)
	}
	return nil
}

// finish records the run in the journal, if any, and returns importErr
// joined with any journal failure.
func (im *Importer) finish(ctx context.Context, report *Report, importErr error) error {
	if im.journal == nil {
		return importErr
	}
	if err := im.journal.RecordImport(context.WithoutCancel(ctx), report, importErr); err != nil {
		im.logger.Error("journal record failed", "run_id", report.RunID, "error", err)
		return errors.Join(importErr, fmt.Errorf("%w: %w", ErrJournal, err))
	}
	return importErr
}

func trimCR(s string) string {
	if n := len(s); n > 0 && s[n-1] == '\r' {
		return s[:n-1]
	}
	return s
}
