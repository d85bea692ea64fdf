package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/sigflow/internal/ir"
)

// ErrRunNotFound is returned by ReadRun for an unknown token.
var ErrRunNotFound = errors.New("run not found")

// ReadRun returns the run with the given token.
func (s *Store) ReadRun(ctx context.Context, token string) (ir.RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT token, graph, start_time, steps, watch
		FROM runs
		WHERE token = ?
	`, token)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.RunRecord{}, fmt.Errorf("%w: %s", ErrRunNotFound, token)
	}
	return run, err
}

// ListRuns returns every run in insertion order.
//
// Returns an empty slice (not nil) if the store holds no runs.
func (s *Store) ListRuns(ctx context.Context) ([]ir.RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT token, graph, start_time, steps, watch
		FROM runs
		ORDER BY rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []ir.RunRecord{}
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

// ReadSamples returns the samples of a run, ordered by time then insertion.
// A non-empty signal restricts the result to that signal path.
//
// Returns an empty slice (not nil) if no samples match.
func (s *Store) ReadSamples(ctx context.Context, runToken, signal string) ([]ir.Sample, error) {
	return s.QuerySamples(ctx, SampleFilter{Run: runToken, Signal: signal}.Predicate())
}

// QuerySamples returns the samples matching p, ordered by time then
// insertion.
//
// Returns an empty slice (not nil) if no samples match.
func (s *Store) QuerySamples(ctx context.Context, p Predicate) ([]ir.Sample, error) {
	query, args, err := compileSampleQuery(p)
	if err != nil {
		return nil, fmt.Errorf("compile sample query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	samples := []ir.Sample{}
	for rows.Next() {
		var (
			sample ir.Sample
			t      int64
		)
		if err := rows.Scan(&sample.RunToken, &t, &sample.Signal, &sample.Value, &sample.ErrorCode); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		sample.Time = ir.Time(t)
		samples = append(samples, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate samples: %w", err)
	}
	return samples, nil
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (ir.RunRecord, error) {
	var (
		run       ir.RunRecord
		start     int64
		watchJSON string
	)
	if err := row.Scan(&run.Token, &run.Graph, &start, &run.Steps, &watchJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return run, err
		}
		return run, fmt.Errorf("scan run: %w", err)
	}
	run.Start = ir.Time(start)
	if err := json.Unmarshal([]byte(watchJSON), &run.Watch); err != nil {
		return run, fmt.Errorf("unmarshal watch of run %s: %w", run.Token, err)
	}
	return run, nil
}
