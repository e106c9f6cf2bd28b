// Package harness drives the adder verification protocol.
//
// The orchestrator owns the per-vector state machine:
//
//	Init → DriveInputs → WaitSettle → ReadOutputs → Check → Sample
//	     → (next vector, else) → ReportCoverage → Done
//
// Vectors are applied strictly sequentially, one fully completed before the
// next begins, because each check depends on the DUT having settled from the
// immediately preceding drive. The only suspension point is the settle wait,
// a single simulated-time quantum yielded to the scheduler. A mismatch is a
// terminal failure: the run stops and coverage is not reported.
package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/verilab/addercheck/internal/check"
	"github.com/verilab/addercheck/internal/config"
	"github.com/verilab/addercheck/internal/coverage"
	"github.com/verilab/addercheck/internal/dut"
	"github.com/verilab/addercheck/internal/refmodel"
	"github.com/verilab/addercheck/internal/stimulus"
)

// StimulusSource supplies the vectors a run drives. stimulus.Generator is
// the production source; tests substitute scripted sources.
type StimulusSource interface {
	Generate(count int) []stimulus.Vector
}

// TraceEvent records one completed protocol iteration for a single vector.
type TraceEvent struct {
	Seq      int             `json:"seq"`
	Vector   stimulus.Vector `json:"vector"`
	Observed refmodel.Result `json:"observed"`
	Expected refmodel.Result `json:"expected"`
	Pass     bool            `json:"pass"`
}

// Recorder receives trace events as the run progresses. Recording failures
// are surfaced, not swallowed: a run that cannot record is a failed run.
type Recorder interface {
	RecordVector(ctx context.Context, ev TraceEvent) error
}

type nopRecorder struct{}

func (nopRecorder) RecordVector(context.Context, TraceEvent) error { return nil }

// Options configures optional orchestrator collaborators.
type Options struct {
	// Logger receives per-vector debug logging. Defaults to slog.Default().
	Logger *slog.Logger

	// Recorder receives trace events. Defaults to a no-op.
	Recorder Recorder

	// ReportTo receives the final coverage report. Defaults to os.Stdout.
	ReportTo io.Writer

	// Coverage, when non-nil, is the tracker the run samples into. This is
	// how previously saved coverage is carried into a run. Defaults to a
	// fresh empty tracker.
	Coverage *coverage.Tracker
}

func (o *Options) withDefaults() Options {
	opts := Options{}
	if o != nil {
		opts = *o
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	if opts.ReportTo == nil {
		opts.ReportTo = os.Stdout
	}
	if opts.Coverage == nil {
		opts.Coverage = coverage.NewTracker()
	}
	return opts
}

// Result is the outcome of a completed (or failed) run.
type Result struct {
	// DUT is the device name from configuration.
	DUT string `json:"dut"`

	// Width is the adder width resolved at Init.
	Width int `json:"width"`

	// Driven is the number of vectors fully processed.
	Driven int `json:"driven"`

	// Pass is false when the run stopped on a mismatch.
	Pass bool `json:"pass"`

	// Trace holds one event per driven vector, in drive order.
	Trace []TraceEvent `json:"trace"`

	// Coverage is the tracker the run sampled into. Nothing is persisted
	// unless the caller saves it.
	Coverage *coverage.Tracker `json:"-"`
}

// Orchestrator runs the verification protocol against one device. It
// exclusively owns the device's signal handles for the duration of a run; no
// other component touches DUT state.
type Orchestrator struct {
	dev    dut.Device
	sched  dut.Scheduler
	source StimulusSource
	cov    *coverage.Tracker
	rec    Recorder
	log    *slog.Logger
	report io.Writer

	name  string
	width int
	ports dut.Ports
}

// New resolves the configuration against the device and prepares a run: the
// Init state. The width is read from the device's N parameter exactly once;
// a non-zero configured width must agree with it. Port roles are resolved
// here, so drive-time signal access cannot fail on a name typo.
func New(cfg *config.Config, dev dut.Device, sched dut.Scheduler, source StimulusSource, opts *Options) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	ports, err := cfg.ResolvePorts()
	if err != nil {
		return nil, fmt.Errorf("invalid port mapping: %w", err)
	}

	n, err := dev.Parameter("N")
	if err != nil {
		return nil, fmt.Errorf("failed to read width parameter: %w", err)
	}
	width := int(n)
	if width < 1 || width > refmodel.MaxWidth {
		return nil, &refmodel.WidthError{Width: width}
	}
	if cfg.Width != 0 && cfg.Width != width {
		return nil, fmt.Errorf("configured width %d disagrees with device parameter N=%d", cfg.Width, width)
	}

	o := opts.withDefaults()
	return &Orchestrator{
		dev:    dev,
		sched:  sched,
		source: source,
		cov:    o.Coverage,
		rec:    o.Recorder,
		log:    o.Logger,
		report: o.ReportTo,
		name:   cfg.Name,
		width:  width,
		ports:  ports,
	}, nil
}

// Width returns the resolved adder width.
func (o *Orchestrator) Width() int { return o.width }

// Coverage returns the tracker the orchestrator samples into.
func (o *Orchestrator) Coverage() *coverage.Tracker { return o.cov }

// Run requests count vectors from the stimulus source and drives them
// through the protocol. On success the coverage report is emitted and the
// result's Pass is true. On mismatch the run stops at the failing vector,
// coverage is not reported, and the mismatch is returned alongside the
// partial result.
func (o *Orchestrator) Run(ctx context.Context, count int) (*Result, error) {
	vectors := o.source.Generate(count)
	result := &Result{
		DUT:      o.name,
		Width:    o.width,
		Pass:     true,
		Trace:    make([]TraceEvent, 0, len(vectors)),
		Coverage: o.cov,
	}

	o.log.Info("run starting", "dut", o.name, "width", o.width, "vectors", len(vectors))

	for seq, v := range vectors {
		ev, err := o.applyVector(ctx, seq, v)
		result.Trace = append(result.Trace, ev)
		if err != nil {
			result.Pass = false
			o.log.Error("run failed", "dut", o.name, "vector", seq, "error", err)
			if recErr := o.rec.RecordVector(ctx, ev); recErr != nil {
				return result, fmt.Errorf("failed to record failing vector: %w", recErr)
			}
			return result, err
		}
		result.Driven++

		// Sample
		o.cov.Sample(v)
		if err := o.rec.RecordVector(ctx, ev); err != nil {
			result.Pass = false
			return result, fmt.Errorf("failed to record vector %d: %w", seq, err)
		}
	}

	// ReportCoverage
	o.cov.Report(o.report)
	o.log.Info("run complete", "dut", o.name, "driven", result.Driven, "covered", o.cov.Count())
	return result, nil
}

// applyVector advances one vector through DriveInputs → WaitSettle →
// ReadOutputs → Check.
func (o *Orchestrator) applyVector(ctx context.Context, seq int, v stimulus.Vector) (TraceEvent, error) {
	ev := TraceEvent{Seq: seq, Vector: v}

	// DriveInputs: the whole vector is staged before the settle wait, so
	// the device latches it atomically at the next quantum.
	writes := []struct {
		port  string
		value uint64
	}{
		{o.ports.A, v.A},
		{o.ports.B, v.B},
		{o.ports.CIn, v.Cin},
	}
	for _, w := range writes {
		if err := o.dev.Write(w.port, w.value); err != nil {
			return ev, fmt.Errorf("vector %d: failed to drive %s: %w", seq, w.port, err)
		}
	}

	// WaitSettle
	if err := o.sched.Settle(ctx); err != nil {
		return ev, fmt.Errorf("vector %d: settle interrupted: %w", seq, err)
	}

	// ReadOutputs
	sum, err := o.dev.Read(o.ports.Sum)
	if err != nil {
		return ev, fmt.Errorf("vector %d: failed to read %s: %w", seq, o.ports.Sum, err)
	}
	cout, err := o.dev.Read(o.ports.COut)
	if err != nil {
		return ev, fmt.Errorf("vector %d: failed to read %s: %w", seq, o.ports.COut, err)
	}
	ev.Observed = refmodel.Result{Sum: sum, Cout: cout}

	// Check
	expected, err := refmodel.Expect(v.A, v.B, v.Cin, o.width)
	if err != nil {
		return ev, fmt.Errorf("vector %d: reference model rejected inputs: %w", seq, err)
	}
	ev.Expected = expected

	if err := check.Check(ev.Observed, expected); err != nil {
		return ev, fmt.Errorf("vector %d (a=%d, b=%d, c_in=%d): %w", seq, v.A, v.B, v.Cin, err)
	}
	ev.Pass = true

	o.log.Debug("vector checked",
		"seq", seq,
		"a", v.A, "b", v.B, "c_in", v.Cin,
		"sum", ev.Observed.Sum, "c_out", ev.Observed.Cout,
	)
	return ev, nil
}
