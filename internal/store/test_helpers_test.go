package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/sigflow/internal/ir"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun writes a run watching task.error and returns it.
func createTestRun(t *testing.T, s *Store, token string) ir.RunRecord {
	t.Helper()
	run := ir.RunRecord{
		Token: token,
		Graph: "reach",
		Start: 0,
		Steps: 2,
		Watch: []string{"task.error", "task.dim"},
	}
	if err := s.WriteRun(context.Background(), run); err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}
	return run
}
