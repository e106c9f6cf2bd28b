package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/verilab/addercheck/internal/harness"
)

// RunMeta describes a run at start time.
type RunMeta struct {
	Plan  string // plan name, empty for ad-hoc runs
	DUT   string
	Arch  string
	Width int
	Seed  int64
}

// RunRecorder records one run's trace. It implements harness.Recorder, so it
// plugs straight into the orchestrator's options.
type RunRecorder struct {
	store *Store
	id    string
}

// BeginRun inserts a new in-progress run row and returns its recorder.
func (s *Store) BeginRun(ctx context.Context, meta RunMeta) (*RunRecorder, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, plan, dut, arch, width, seed, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, meta.Plan, meta.DUT, meta.Arch, meta.Width, meta.Seed,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}
	return &RunRecorder{store: s, id: id}, nil
}

// ID returns the run's identifier.
func (r *RunRecorder) ID() string { return r.id }

// RecordVector implements harness.Recorder: it appends one trace event.
func (r *RunRecorder) RecordVector(ctx context.Context, ev harness.TraceEvent) error {
	_, err := r.store.db.ExecContext(ctx,
		`INSERT INTO trace_events (run_id, seq, a, b, c_in, sum, c_out, exp_sum, exp_c_out, pass)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.id, ev.Seq,
		int64(ev.Vector.A), int64(ev.Vector.B), int64(ev.Vector.Cin),
		int64(ev.Observed.Sum), int64(ev.Observed.Cout),
		int64(ev.Expected.Sum), int64(ev.Expected.Cout),
		ev.Pass,
	)
	if err != nil {
		return fmt.Errorf("failed to insert trace event: %w", err)
	}
	return nil
}

// Finish closes out the run row with the final result. A non-nil runErr is
// stored as the failure text.
func (r *RunRecorder) Finish(ctx context.Context, result *harness.Result, runErr error) error {
	failure := ""
	if runErr != nil {
		failure = runErr.Error()
	}
	covered := 0
	if result.Coverage != nil {
		covered = result.Coverage.Count()
	}
	// Width is rewritten here because specs that sweep widths only resolve
	// the actual width after the run starts.
	_, err := r.store.db.ExecContext(ctx,
		`UPDATE runs SET width = ?, pass = ?, driven = ?, covered = ?, failure = ?, finished_at = ?
		 WHERE id = ?`,
		result.Width, result.Pass, result.Driven, covered, failure,
		time.Now().UTC().Format(time.RFC3339),
		r.id,
	)
	if err != nil {
		return fmt.Errorf("failed to finalize run: %w", err)
	}
	return nil
}
