package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verilab/addercheck/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Filter string
}

// PlanResult holds the result of a single plan execution.
type PlanResult struct {
	Name   string `json:"name"`
	DUT    string `json:"dut,omitempty"`
	Width  int    `json:"width,omitempty"`
	Driven int    `json:"driven"`
	Pass   bool   `json:"pass"`
	Error  string `json:"error,omitempty"`
}

// TestResult holds the overall test command result.
type TestResult struct {
	Plans  []PlanResult `json:"plans"`
	Passed int          `json:"passed"`
	Failed int          `json:"failed"`
	Total  int          `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <plans-dir>",
		Short: "Run every test plan in a directory",
		Long: `Run all YAML test plans found in a directory.

Each plan names a DUT spec, a vector count and seed, optional directed
vectors, and coverage directives. Plans run independently; a mismatch fails
its plan without stopping the others.

Exit codes:
  0 - All plans passed
  1 - One or more plans failed
  2 - Command error (invalid paths, malformed plans, etc.)

Examples:
  addercheck test ./plans
  addercheck test ./plans --filter "rca_*"
  addercheck test ./plans --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlans(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter plans by glob pattern on the file name")

	return cmd
}

func findPlanFiles(dir, filter string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read plans directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := filepath.Ext(name)
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if filter != "" {
			base := strings.TrimSuffix(name, ext)
			ok, err := filepath.Match(filter, base)
			if err != nil {
				return nil, fmt.Errorf("invalid filter %q: %w", filter, err)
			}
			if !ok {
				continue
			}
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)
	return files, nil
}

func runPlans(opts *TestOptions, dir string, cmd *cobra.Command) error {
	files, err := findPlanFiles(dir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to collect plans", err)
	}
	if len(files) == 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("no plan files found in %s", dir))
	}

	var total TestResult
	for _, path := range files {
		pr := runOnePlan(cmd, path)
		total.Plans = append(total.Plans, pr)
		total.Total++
		if pr.Pass {
			total.Passed++
		} else {
			total.Failed++
		}
	}

	if opts.Format == "json" {
		if err := printJSON(cmd.OutOrStdout(), total); err != nil {
			return WrapExitError(ExitCommandError, "failed to print results", err)
		}
	} else {
		w := cmd.OutOrStdout()
		for _, pr := range total.Plans {
			status := "PASS"
			if !pr.Pass {
				status = "FAIL"
			}
			fmt.Fprintf(w, "%s  %s", status, pr.Name)
			if pr.DUT != "" {
				fmt.Fprintf(w, " (%s, width %d, %d vectors)", pr.DUT, pr.Width, pr.Driven)
			}
			fmt.Fprintln(w)
			if pr.Error != "" {
				fmt.Fprintf(w, "      %s\n", pr.Error)
			}
		}
		fmt.Fprintf(w, "\n%d/%d plans passed\n", total.Passed, total.Total)
	}

	if total.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d plans failed", total.Failed, total.Total))
	}
	return nil
}

func runOnePlan(cmd *cobra.Command, path string) PlanResult {
	plan, err := harness.LoadPlan(path)
	if err != nil {
		return PlanResult{Name: filepath.Base(path), Error: err.Error()}
	}

	result, runErr := harness.RunPlan(cmd.Context(), plan, &harness.Options{ReportTo: io.Discard})
	pr := PlanResult{Name: plan.Name}
	if result != nil {
		pr.DUT = result.DUT
		pr.Width = result.Width
		pr.Driven = result.Driven
		pr.Pass = result.Pass && runErr == nil
	}
	if runErr != nil {
		pr.Pass = false
		pr.Error = runErr.Error()
	}
	return pr
}
