package store

import (
	"context"
	"fmt"

	"github.com/roach88/sigflow/internal/ir"
)

// WriteRun inserts a run record.
// Uses ON CONFLICT(token) DO NOTHING for idempotency - duplicate tokens are silently ignored.
func (s *Store) WriteRun(ctx context.Context, run ir.RunRecord) error {
	watch := run.Watch
	if watch == nil {
		watch = []string{}
	}
	watchJSON, err := ir.MarshalCanonical(watch)
	if err != nil {
		return fmt.Errorf("write run: marshal watch: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (token, graph, start_time, steps, watch)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(token) DO NOTHING
	`,
		run.Token,
		run.Graph,
		int64(run.Start),
		run.Steps,
		string(watchJSON),
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// WriteSample inserts a sample record.
// Uses ON CONFLICT DO NOTHING for idempotency - a second sample for the same
// (run, time, signal) is silently ignored.
//
// Note: The run referenced by RunToken must exist (foreign key constraint).
func (s *Store) WriteSample(ctx context.Context, sample ir.Sample) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO samples (run_token, time, signal, value, error_code)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		sample.RunToken,
		int64(sample.Time),
		sample.Signal,
		sample.Value,
		sample.ErrorCode,
	)
	if err != nil {
		return fmt.Errorf("write sample: %w", err)
	}
	return nil
}
