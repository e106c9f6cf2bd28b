package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/verilab/addercheck/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	FailOnly bool
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace <run-id>",
		Short: "Show the recorded vector trace for a run",
		Long: `Print the per-vector trace recorded for a run: each driven vector with its
observed and expected outputs.

Examples:
  addercheck trace 5f0c… --db runs.db
  addercheck trace 5f0c… --db runs.db --failures`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showTrace(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the run database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().BoolVar(&opts.FailOnly, "failures", false, "show only failing vectors")

	return cmd
}

func showTrace(opts *TraceOptions, runID string, cmd *cobra.Command) error {
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open run database", err)
	}
	defer st.Close()

	events, err := st.Trace(cmd.Context(), runID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read trace", err)
	}
	if len(events) == 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("no trace recorded for run %s", runID))
	}

	if opts.FailOnly {
		filtered := events[:0]
		for _, ev := range events {
			if !ev.Pass {
				filtered = append(filtered, ev)
			}
		}
		events = filtered
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), events)
	}

	w := cmd.OutOrStdout()
	for _, ev := range events {
		status := "ok"
		if !ev.Pass {
			status = "MISMATCH"
		}
		fmt.Fprintf(w, "[%d] a=%d b=%d c_in=%d -> sum=%d c_out=%d (expected sum=%d c_out=%d) %s\n",
			ev.Seq, ev.Vector.A, ev.Vector.B, ev.Vector.Cin,
			ev.Observed.Sum, ev.Observed.Cout,
			ev.Expected.Sum, ev.Expected.Cout, status)
	}
	return nil
}
