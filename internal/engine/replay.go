package engine

import (
	"fmt"
	"log/slog"

	"github.com/roach88/sigflow/internal/ir"
	"github.com/roach88/sigflow/internal/pool"
)

// Mismatch is a recorded sample that re-evaluation did not reproduce.
type Mismatch struct {
	Recorded ir.Sample `json:"recorded"`
	Replayed ir.Sample `json:"replayed"`
}

// Replay re-reads every recorded sample from p and returns those whose
// value or error code differ.
//
// Replay is how a trace is checked for determinism: p should be a fresh
// build of the graph the samples were recorded from. Samples are read in
// the order given, which for a stored run is time order, so memoization
// behaves as it did during the run.
func Replay(p *pool.Pool, samples []ir.Sample) ([]Mismatch, error) {
	var mismatches []Mismatch
	for _, rec := range samples {
		sig, err := p.Signal(rec.Signal)
		if err != nil {
			return mismatches, fmt.Errorf("replay %s at t=%d: %w", rec.Signal, rec.Time, err)
		}

		got, _ := Sample(sig, rec.Time)
		got.RunToken = rec.RunToken
		if got.Value != rec.Value || got.ErrorCode != rec.ErrorCode {
			slog.Debug("replay mismatch",
				"signal", rec.Signal,
				"time", rec.Time,
				"recorded", rec.Value,
				"replayed", got.Value)
			mismatches = append(mismatches, Mismatch{Recorded: rec, Replayed: got})
		}
	}
	return mismatches, nil
}
