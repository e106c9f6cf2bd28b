package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/verilab/addercheck/internal/config"
	"github.com/verilab/addercheck/internal/harness"
	"github.com/verilab/addercheck/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Vectors     int
	Seed        int64
	Database    string
	CoverageIn  string
	CoverageOut string
}

// RunOutput is the run command's result summary.
type RunOutput struct {
	DUT     string  `json:"dut"`
	Width   int     `json:"width"`
	Seed    int64   `json:"seed"`
	Driven  int     `json:"driven"`
	Pass    bool    `json:"pass"`
	Covered int     `json:"covered"`
	Closure float64 `json:"closure"`
	RunID   string  `json:"run_id,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <dut-spec.cue>",
		Short: "Drive random stimulus into a DUT and check it",
		Long: `Run the verification protocol against a simulated adder.

The DUT spec names the adder architecture, width, and port mapping. Each
vector is driven, allowed one simulated-time quantum to settle, read back,
and checked against the arithmetic reference model. A mismatch stops the run.

Exit codes:
  0 - All vectors checked clean
  1 - Mismatch detected
  2 - Command error (bad spec, unwritable coverage file, etc.)

Examples:
  addercheck run duts/rca.cue --vectors 1000
  addercheck run duts/cla.cue --vectors 500 --seed 42 --coverage-out cla.cov.json
  addercheck run duts/ksa.cue --vectors 500 --db runs.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerification(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Vectors, "vectors", 100, "number of random vectors to drive")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "stimulus seed (0 picks one from the clock and logs it)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")
	cmd.Flags().StringVar(&opts.CoverageIn, "coverage-in", "", "seed coverage from this file before the run")
	cmd.Flags().StringVar(&opts.CoverageOut, "coverage-out", "", "save coverage to this file after the run")

	return cmd
}

func runVerification(opts *RunOptions, specPath string, cmd *cobra.Command) error {
	cfg, err := config.Load(specPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load DUT spec", err)
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
		cmd.PrintErrf("seed not given, using %d (pass --seed %d to reproduce)\n", seed, seed)
	}

	plan := &harness.Plan{
		Name:    "adhoc",
		DUT:     specPath,
		Vectors: opts.Vectors,
		Seed:    seed,
	}
	if opts.CoverageIn != "" || opts.CoverageOut != "" {
		plan.Coverage = &harness.CoveragePlan{Load: opts.CoverageIn, Save: opts.CoverageOut}
	}

	hopts := &harness.Options{ReportTo: io.Discard}

	var recorder *store.RunRecorder
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open run database", err)
		}
		defer st.Close()
		recorder, err = st.BeginRun(cmd.Context(), store.RunMeta{
			DUT:   cfg.Name,
			Arch:  cfg.Arch,
			Width: cfg.Width,
			Seed:  seed,
		})
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to record run", err)
		}
		hopts.Recorder = recorder
	}

	result, runErr := harness.RunPlan(cmd.Context(), plan, hopts)
	if result == nil {
		return WrapExitError(ExitCommandError, "run could not start", runErr)
	}
	if recorder != nil {
		if err := recorder.Finish(cmd.Context(), result, runErr); err != nil {
			return WrapExitError(ExitCommandError, "failed to finalize run record", err)
		}
	}

	out := RunOutput{
		DUT:    result.DUT,
		Width:  result.Width,
		Seed:   seed,
		Driven: result.Driven,
		Pass:   result.Pass,
	}
	// Coverage is only reported for clean runs; a mismatch ends the
	// protocol before the ReportCoverage state.
	if result.Pass {
		out.Covered = result.Coverage.Count()
		out.Closure = result.Coverage.Closure(result.Width)
	}
	if recorder != nil {
		out.RunID = recorder.ID()
	}
	if runErr != nil {
		out.Error = runErr.Error()
	}

	if opts.Format == "json" {
		if err := printJSON(cmd.OutOrStdout(), out); err != nil {
			return WrapExitError(ExitCommandError, "failed to print result", err)
		}
	} else {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "dut:    %s (width %d, seed %d)\n", out.DUT, out.Width, out.Seed)
		fmt.Fprintf(w, "driven: %d vectors\n", out.Driven)
		if result.Pass {
			if err := result.Coverage.ReportClosure(w, result.Width); err != nil {
				return WrapExitError(ExitCommandError, "failed to report coverage", err)
			}
		}
		if out.RunID != "" {
			fmt.Fprintf(w, "run id: %s\n", out.RunID)
		}
		if out.Pass {
			fmt.Fprintln(w, "PASS")
		} else {
			fmt.Fprintf(w, "FAIL: %s\n", out.Error)
		}
	}

	if runErr != nil {
		return WrapExitError(ExitFailure, "verification failed", runErr)
	}
	return nil
}
