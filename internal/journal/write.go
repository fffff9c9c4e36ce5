package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/viewstore/internal/ingest"
)

// Run statuses.
const (
	StatusOK      = "ok"
	StatusPartial = "partial"
	StatusFailed  = "failed"
)

// timeLayout sorts lexically in chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// RecordImport stores report and its rejections in one transaction.
// importErr is the error the import ended with and decides the status.
//
// Recording the same run ID twice replaces the earlier row.
func (j *Journal) RecordImport(ctx context.Context, report *ingest.Report, importErr error) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record import: %w", err)
	}
	defer tx.Rollback()

	errText := ""
	if importErr != nil {
		errText = importErr.Error()
	}

	// ON DELETE CASCADE clears the child rows of a replaced run.
	if _, err := tx.ExecContext(ctx, `DELETE FROM import_runs WHERE id = ?`, report.RunID); err != nil {
		return fmt.Errorf("record import: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO import_runs
		(id, source, started_at, lines_read, accepted, rejected, duplicates, partitions_written, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.RunID,
		report.Source,
		report.StartedAt.UTC().Format(timeLayout),
		report.LinesRead,
		report.Accepted,
		len(report.Rejected),
		report.Duplicates,
		len(report.WrittenPartitions()),
		status(report, importErr),
		errText,
	)
	if err != nil {
		return fmt.Errorf("record import: %w", err)
	}

	for _, p := range report.Partitions {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO import_partitions
			(run_id, partition_key, imported, retained, replaced, written)
			VALUES (?, ?, ?, ?, ?, ?)
		`, report.RunID, p.Key, p.Imported, p.Retained, p.Replaced, p.Written)
		if err != nil {
			return fmt.Errorf("record partition %s: %w", p.Key, err)
		}
	}

	for _, r := range report.Rejected {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO rejected_lines (run_id, line_no, text, reason)
			VALUES (?, ?, ?, ?)
		`, report.RunID, r.Line, r.Text, r.Reason)
		if err != nil {
			return fmt.Errorf("record rejected line %d: %w", r.Line, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record import: %w", err)
	}
	return nil
}

func status(report *ingest.Report, importErr error) string {
	switch {
	case importErr == nil:
		return StatusOK
	case errors.Is(importErr, ingest.ErrWriteFailed) && len(report.WrittenPartitions()) > 0:
		return StatusPartial
	default:
		return StatusFailed
	}
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse started_at %q: %w", s, err)
	}
	return t, nil
}
