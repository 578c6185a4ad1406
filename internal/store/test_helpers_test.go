package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/lifegap/internal/cohort"
	"github.com/roach88/lifegap/internal/testutil"
)

// createTestStore creates a new store in a temp directory for testing.
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

// createTestRun decomposes the fixture records for one stratum.
func createTestRun(t *testing.T, race, sex string, steps int) Run {
	t.Helper()
	req := cohort.Request{CountyA: "A", CountyB: "B", Race: race, Sex: sex, Steps: steps}
	aligned, err := cohort.Align(testutil.CountyRecords(), cohort.DefaultColumns(), req)
	require.NoError(t, err)
	res, err := aligned.Decompose(req.Steps, 1)
	require.NoError(t, err)
	run, err := NewRun(req, aligned, res)
	require.NoError(t, err)
	return run
}
