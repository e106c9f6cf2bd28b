package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/verilab/addercheck/internal/harness"
	"github.com/verilab/addercheck/internal/refmodel"
	"github.com/verilab/addercheck/internal/stimulus"
)

// RunRecord is one row of run history.
type RunRecord struct {
	ID         string `json:"id"`
	Plan       string `json:"plan,omitempty"`
	DUT        string `json:"dut"`
	Arch       string `json:"arch"`
	Width      int    `json:"width"`
	Seed       int64  `json:"seed"`
	Pass       *bool  `json:"pass"` // nil while in progress
	Driven     int    `json:"driven"`
	Covered    int    `json:"covered"`
	Failure    string `json:"failure,omitempty"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at,omitempty"`
}

// ListRuns returns the most recent runs, newest first. A non-positive limit
// returns everything.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	query := `SELECT id, plan, dut, arch, width, seed, pass, driven, covered, failure, started_at, finished_at
	          FROM runs ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		var pass sql.NullBool
		var driven, covered sql.NullInt64
		var failure, finished sql.NullString
		if err := rows.Scan(&rec.ID, &rec.Plan, &rec.DUT, &rec.Arch, &rec.Width, &rec.Seed,
			&pass, &driven, &covered, &failure, &rec.StartedAt, &finished); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if pass.Valid {
			v := pass.Bool
			rec.Pass = &v
		}
		rec.Driven = int(driven.Int64)
		rec.Covered = int(covered.Int64)
		rec.Failure = failure.String
		rec.FinishedAt = finished.String
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return records, nil
}

// Trace returns the recorded trace events for a run, in drive order.
func (s *Store) Trace(ctx context.Context, runID string) ([]harness.TraceEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, a, b, c_in, sum, c_out, exp_sum, exp_c_out, pass
		 FROM trace_events WHERE run_id = ? ORDER BY seq`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query trace: %w", err)
	}
	defer rows.Close()

	var events []harness.TraceEvent
	for rows.Next() {
		var ev harness.TraceEvent
		var a, b, cin, sum, cout, expSum, expCout int64
		if err := rows.Scan(&ev.Seq, &a, &b, &cin, &sum, &cout, &expSum, &expCout, &ev.Pass); err != nil {
			return nil, fmt.Errorf("failed to scan trace event: %w", err)
		}
		ev.Vector = stimulus.Vector{A: uint64(a), B: uint64(b), Cin: uint64(cin)}
		ev.Observed = refmodel.Result{Sum: uint64(sum), Cout: uint64(cout)}
		ev.Expected = refmodel.Result{Sum: uint64(expSum), Cout: uint64(expCout)}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trace: %w", err)
	}
	return events, nil
}
