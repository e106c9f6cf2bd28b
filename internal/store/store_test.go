package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verilab/addercheck/internal/coverage"
	"github.com/verilab/addercheck/internal/harness"
	"github.com/verilab/addercheck/internal/refmodel"
	"github.com/verilab/addercheck/internal/stimulus"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleEvent(seq int) harness.TraceEvent {
	return harness.TraceEvent{
		Seq:      seq,
		Vector:   stimulus.Vector{A: 7, B: 12, Cin: 0},
		Observed: refmodel.Result{Sum: 3, Cout: 1},
		Expected: refmodel.Result{Sum: 3, Cout: 1},
		Pass:     true,
	}
}

func TestOpen_CreatesSchemaIdempotently(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Reopening an existing database must not fail on the schema.
	s, err = Open(path)
	require.NoError(t, err)
	assert.NoError(t, s.Close())
}

func TestRunRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec, err := s.BeginRun(ctx, RunMeta{Plan: "smoke", DUT: "rca", Arch: "rca", Width: 4, Seed: 42})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID())

	events := []harness.TraceEvent{sampleEvent(0), sampleEvent(1)}
	for _, ev := range events {
		require.NoError(t, rec.RecordVector(ctx, ev))
	}

	cov := coverage.NewTracker()
	cov.Sample(stimulus.Vector{A: 7, B: 12, Cin: 0})
	result := &harness.Result{
		DUT:      "rca",
		Width:    4,
		Driven:   2,
		Pass:     true,
		Coverage: cov,
	}
	require.NoError(t, rec.Finish(ctx, result, nil))

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	got := runs[0]
	assert.Equal(t, rec.ID(), got.ID)
	assert.Equal(t, "smoke", got.Plan)
	assert.Equal(t, "rca", got.DUT)
	assert.Equal(t, 4, got.Width)
	assert.Equal(t, int64(42), got.Seed)
	require.NotNil(t, got.Pass)
	assert.True(t, *got.Pass)
	assert.Equal(t, 2, got.Driven)
	assert.Equal(t, 1, got.Covered)
	assert.Empty(t, got.Failure)
	assert.NotEmpty(t, got.StartedAt)
	assert.NotEmpty(t, got.FinishedAt)

	trace, err := s.Trace(ctx, rec.ID())
	require.NoError(t, err)
	assert.Equal(t, events, trace)
}

func TestListRuns_InProgress(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec, err := s.BeginRun(ctx, RunMeta{DUT: "cla", Arch: "cla", Width: 8, Seed: 7})
	require.NoError(t, err)

	runs, err := s.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, rec.ID(), runs[0].ID)
	assert.Nil(t, runs[0].Pass, "pass is unset while the run is in progress")
	assert.Empty(t, runs[0].FinishedAt)
}

func TestFinish_RecordsFailureAndSweptWidth(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// Width 0 at begin: the DUT spec swept and resolved to 16 during the run.
	rec, err := s.BeginRun(ctx, RunMeta{DUT: "ksa", Arch: "ksa", Width: 0, Seed: 1})
	require.NoError(t, err)

	result := &harness.Result{DUT: "ksa", Width: 16, Driven: 40, Pass: false}
	require.NoError(t, rec.Finish(ctx, result, errors.New("sum mismatch: got 2, expected 3")))

	runs, err := s.ListRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 16, runs[0].Width)
	require.NotNil(t, runs[0].Pass)
	assert.False(t, *runs[0].Pass)
	assert.Equal(t, "sum mismatch: got 2, expected 3", runs[0].Failure)
}

func TestListRuns_Limit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.BeginRun(ctx, RunMeta{DUT: "rca", Arch: "rca", Width: 4, Seed: int64(i)})
		require.NoError(t, err)
	}

	runs, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestTrace_UnknownRun(t *testing.T) {
	s := openTestStore(t)
	trace, err := s.Trace(context.Background(), "no-such-run")
	require.NoError(t, err)
	assert.Empty(t, trace)
}

func TestRecordVector_UnknownRunRejected(t *testing.T) {
	s := openTestStore(t)
	rec := &RunRecorder{store: s, id: "dangling"}
	err := rec.RecordVector(context.Background(), sampleEvent(0))
	assert.Error(t, err, "foreign key enforcement rejects events for unknown runs")
}
