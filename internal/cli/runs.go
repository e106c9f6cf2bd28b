package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/verilab/addercheck/internal/store"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Database string
	Limit    int
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded verification runs",
		Long: `List runs recorded in a run database, newest first.

Examples:
  addercheck runs --db runs.db
  addercheck runs --db runs.db --limit 10 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listRuns(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the run database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum runs to list (0 = all)")

	return cmd
}

func listRuns(opts *RunsOptions, cmd *cobra.Command) error {
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open run database", err)
	}
	defer st.Close()

	records, err := st.ListRuns(cmd.Context(), opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), records)
	}

	w := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(w, "no recorded runs")
		return nil
	}
	for _, rec := range records {
		status := "RUNNING"
		if rec.Pass != nil {
			if *rec.Pass {
				status = "PASS"
			} else {
				status = "FAIL"
			}
		}
		fmt.Fprintf(w, "%s  %-7s %s/%s width=%d seed=%d driven=%d covered=%d  %s\n",
			rec.ID, status, rec.DUT, rec.Arch, rec.Width, rec.Seed, rec.Driven, rec.Covered, rec.StartedAt)
		if rec.Failure != "" {
			fmt.Fprintf(w, "    %s\n", rec.Failure)
		}
	}
	return nil
}
