package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/verilab/addercheck/internal/coverage"
)

// CoverageOptions holds flags for the coverage subcommands.
type CoverageOptions struct {
	*RootOptions
	Width  int
	Output string
}

// CoverageOutput is the coverage report summary.
type CoverageOutput struct {
	File    string  `json:"file"`
	Covered int     `json:"covered"`
	Width   int     `json:"width,omitempty"`
	Closure float64 `json:"closure,omitempty"`
}

// NewCoverageCommand creates the coverage command group.
func NewCoverageCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coverage",
		Short: "Inspect and combine saved coverage files",
	}
	cmd.AddCommand(newCoverageReportCommand(rootOpts))
	cmd.AddCommand(newCoverageMergeCommand(rootOpts))
	return cmd
}

func newCoverageReportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CoverageOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "report <coverage-file>",
		Short: "Report the unique vectors in a coverage file",
		Long: `Report the number of unique (a, b, c_in) vectors in a saved coverage file.

Coverage files do not record the adder width; pass --width to also get the
closure ratio against the exhaustive 2^(2N+1) input space.

Examples:
  addercheck coverage report rca.cov.json
  addercheck coverage report rca.cov.json --width 8`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return reportCoverage(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Width, "width", 0, "adder width for closure reporting")
	return cmd
}

func reportCoverage(opts *CoverageOptions, path string, cmd *cobra.Command) error {
	tracker := coverage.NewTracker()
	if err := tracker.Load(path); err != nil {
		return WrapExitError(ExitCommandError, "failed to load coverage", err)
	}

	if opts.Format == "json" {
		out := CoverageOutput{File: path, Covered: tracker.Count()}
		if opts.Width > 0 {
			out.Width = opts.Width
			out.Closure = tracker.Closure(opts.Width)
		}
		return printJSON(cmd.OutOrStdout(), out)
	}

	w := cmd.OutOrStdout()
	if opts.Width > 0 {
		if err := tracker.ReportClosure(w, opts.Width); err != nil {
			return WrapExitError(ExitCommandError, "failed to report closure", err)
		}
		return nil
	}
	tracker.Report(w)
	return nil
}

func newCoverageMergeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CoverageOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "merge <coverage-file>...",
		Short: "Merge coverage files into one",
		Long: `Merge two or more coverage files into a single file holding their union.

Merging is how coverage accumulates across runs: each run owns its own set,
and nothing aggregates unless explicitly merged.

Examples:
  addercheck coverage merge -o all.cov.json run1.cov.json run2.cov.json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return mergeCoverage(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "out", "o", "", "output file (required)")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func mergeCoverage(opts *CoverageOptions, paths []string, cmd *cobra.Command) error {
	merged := coverage.NewTracker()
	for _, path := range paths {
		tracker := coverage.NewTracker()
		if err := tracker.Load(path); err != nil {
			return WrapExitError(ExitCommandError, "failed to load coverage", err)
		}
		merged.Merge(tracker)
	}
	if err := merged.Save(opts.Output); err != nil {
		return WrapExitError(ExitCommandError, "failed to save merged coverage", err)
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), CoverageOutput{File: opts.Output, Covered: merged.Count()})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "merged %d files into %s (%d unique vectors)\n",
		len(paths), opts.Output, merged.Count())
	return nil
}
