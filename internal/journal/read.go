package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/viewstore/internal/ingest"
)

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("import run not found")

// Run is one recorded import.
type Run struct {
	ID                string                   `json:"id"`
	Source            string                   `json:"source"`
	StartedAt         time.Time                `json:"started_at"`
	LinesRead         int                      `json:"lines_read"`
	Accepted          int                      `json:"accepted"`
	Rejected          int                      `json:"rejected"`
	Duplicates        int                      `json:"duplicates"`
	PartitionsWritten int                      `json:"partitions_written"`
	Status            string                   `json:"status"`
	Error             string                   `json:"error,omitempty"`
	Partitions        []ingest.PartitionResult `json:"partitions,omitempty"`
}

// ListRuns returns the most recent runs, newest first. A limit of zero or
// less returns every run.
//
// Returns an empty slice (not nil) when the journal is empty.
func (j *Journal) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, source, started_at, lines_read, accepted, rejected, duplicates, partitions_written, status, error
		FROM import_runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun returns one run with its per-partition results.
func (j *Journal) GetRun(ctx context.Context, id string) (Run, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT id, source, started_at, lines_read, accepted, rejected, duplicates, partitions_written, status, error
		FROM import_runs
		WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, err
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT partition_key, imported, retained, replaced, written
		FROM import_partitions
		WHERE run_id = ?
		ORDER BY rowid
	`, id)
	if err != nil {
		return Run{}, fmt.Errorf("query partitions: %w", err)
	}
	defer rows.Close()

	run.Partitions = []ingest.PartitionResult{}
	for rows.Next() {
		var p ingest.PartitionResult
		if err := rows.Scan(&p.Key, &p.Imported, &p.Retained, &p.Replaced, &p.Written); err != nil {
			return Run{}, fmt.Errorf("scan partition: %w", err)
		}
		run.Partitions = append(run.Partitions, p)
	}
	if err := rows.Err(); err != nil {
		return Run{}, fmt.Errorf("iterate partitions: %w", err)
	}
	return run, nil
}

// Rejections returns the rejected lines of a run ordered by line number.
// A run with no rejections, or an unknown run, yields an empty slice.
func (j *Journal) Rejections(ctx context.Context, runID string) ([]ingest.Rejection, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT line_no, text, reason
		FROM rejected_lines
		WHERE run_id = ?
		ORDER BY line_no ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query rejected lines: %w", err)
	}
	defer rows.Close()

	rejections := []ingest.Rejection{}
	for rows.Next() {
		var r ingest.Rejection
		if err := rows.Scan(&r.Line, &r.Text, &r.Reason); err != nil {
			return nil, fmt.Errorf("scan rejected line: %w", err)
		}
		rejections = append(rejections, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rejected lines: %w", err)
	}
	return rejections, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var (
		run       Run
		startedAt string
	)
	err := s.Scan(
		&run.ID,
		&run.Source,
		&startedAt,
		&run.LinesRead,
		&run.Accepted,
		&run.Rejected,
		&run.Duplicates,
		&run.PartitionsWritten,
		&run.Status,
		&run.Error,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.StartedAt, err = parseTime(startedAt)
	if err != nil {
		return Run{}, err
	}
	return run, nil
}
