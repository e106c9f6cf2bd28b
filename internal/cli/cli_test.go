package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verilab/addercheck/internal/coverage"
	"github.com/verilab/addercheck/internal/stimulus"
)

// execute runs the CLI end to end the way main does, capturing output.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeSpec(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "rca.cue")
	spec := `
name:  "rca"
arch:  "rca"
width: 4
ports: {
	a:     "a"
	b:     "b"
	c_in:  "c_in"
	sum:   "sum"
	c_out: "c_out"
}
`
	require.NoError(t, os.WriteFile(path, []byte(spec), 0o644))
	return path
}

func TestRootCommand_RejectsInvalidFormat(t *testing.T) {
	spec := writeSpec(t, t.TempDir())
	_, _, err := execute(t, "run", spec, "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestRunCommand_Pass(t *testing.T) {
	spec := writeSpec(t, t.TempDir())
	stdout, stderr, err := execute(t, "run", spec, "--vectors", "20", "--seed", "42")
	require.NoError(t, err)
	assert.Contains(t, stdout, "dut:    rca (width 4, seed 42)")
	assert.Contains(t, stdout, "driven: 20 vectors")
	assert.Contains(t, stdout, "PASS")
	assert.NotContains(t, stderr, "seed not given")
}

func TestRunCommand_UnseededPrintsReproduceHint(t *testing.T) {
	spec := writeSpec(t, t.TempDir())
	_, stderr, err := execute(t, "run", spec, "--vectors", "5")
	require.NoError(t, err)
	assert.Contains(t, stderr, "seed not given, using")
	assert.Contains(t, stderr, "to reproduce")
}

func TestRunCommand_JSON(t *testing.T) {
	spec := writeSpec(t, t.TempDir())
	stdout, _, err := execute(t, "run", spec, "--vectors", "20", "--seed", "42", "--format", "json")
	require.NoError(t, err)

	var out RunOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, "rca", out.DUT)
	assert.Equal(t, 4, out.Width)
	assert.Equal(t, int64(42), out.Seed)
	assert.Equal(t, 20, out.Driven)
	assert.True(t, out.Pass)
	assert.Greater(t, out.Covered, 0)
	assert.Greater(t, out.Closure, 0.0)
	assert.Empty(t, out.Error)
}

func TestRunCommand_BadSpecIsCommandError(t *testing.T) {
	_, _, err := execute(t, "run", filepath.Join(t.TempDir(), "absent.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunCommand_CoverageOut(t *testing.T) {
	dir := t.TempDir()
	spec := writeSpec(t, dir)
	covPath := filepath.Join(dir, "rca.cov.json")

	_, _, err := execute(t, "run", spec, "--vectors", "20", "--seed", "42", "--coverage-out", covPath)
	require.NoError(t, err)

	saved := coverage.NewTracker()
	require.NoError(t, saved.Load(covPath))
	assert.Greater(t, saved.Count(), 0)
}

func TestRunCommand_RecordsRunHistory(t *testing.T) {
	dir := t.TempDir()
	spec := writeSpec(t, dir)
	dbPath := filepath.Join(dir, "runs.db")

	stdout, _, err := execute(t, "run", spec, "--vectors", "10", "--seed", "7", "--db", dbPath, "--format", "json")
	require.NoError(t, err)

	var out RunOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	require.NotEmpty(t, out.RunID)

	stdout, _, err = execute(t, "runs", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, out.RunID)
	assert.Contains(t, stdout, "PASS")
	assert.Contains(t, stdout, "rca/rca width=4 seed=7")

	stdout, _, err = execute(t, "trace", out.RunID, "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "[0] a=")
	assert.Contains(t, stdout, "ok")
}

func TestTraceCommand_UnknownRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	_, _, err := execute(t, "runs", "--db", dbPath) // creates the database
	require.NoError(t, err)

	_, _, err = execute(t, "trace", "no-such-run", "--db", dbPath)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestFindPlanFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b_plan.yaml", "a_plan.yml", "notes.txt", "c_plan.yaml"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.yaml"), 0o755))

	files, err := findPlanFiles(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a_plan.yml"),
		filepath.Join(dir, "b_plan.yaml"),
		filepath.Join(dir, "c_plan.yaml"),
	}, files)

	files, err = findPlanFiles(dir, "a_*")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a_plan.yml")}, files)

	_, err = findPlanFiles(dir, "[bad")
	assert.Error(t, err)
}

func TestTestCommand_AllPlansPass(t *testing.T) {
	dir := t.TempDir()
	writeSpec(t, dir)
	for _, plan := range []struct{ name, body string }{
		{"one.yaml", "name: one\ndut: rca.cue\nvectors: 10\nseed: 1\n"},
		{"two.yaml", "name: two\ndut: rca.cue\nvectors: 10\nseed: 2\n"},
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, plan.name), []byte(plan.body), 0o644))
	}

	stdout, _, err := execute(t, "test", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "PASS  one (rca, width 4, 10 vectors)")
	assert.Contains(t, stdout, "PASS  two (rca, width 4, 10 vectors)")
	assert.Contains(t, stdout, "2/2 plans passed")
}

func TestTestCommand_BrokenPlanFails(t *testing.T) {
	dir := t.TempDir()
	writeSpec(t, dir)
	plans := map[string]string{
		"good.yaml":   "name: good\ndut: rca.cue\nvectors: 10\nseed: 1\n",
		"broken.yaml": "name: broken\ndut: missing.cue\nvectors: 10\n",
	}
	for name, body := range plans {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}

	stdout, _, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "FAIL  broken.yaml")
	assert.Contains(t, stdout, "1/2 plans passed")
}

func TestTestCommand_EmptyDirIsCommandError(t *testing.T) {
	_, _, err := execute(t, "test", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCoverageMergeAndReport(t *testing.T) {
	dir := t.TempDir()

	first := coverage.NewTracker()
	first.Sample(stimulus.Vector{A: 1, B: 2, Cin: 0})
	first.Sample(stimulus.Vector{A: 3, B: 4, Cin: 1})
	require.NoError(t, first.Save(filepath.Join(dir, "first.cov.json")))

	second := coverage.NewTracker()
	second.Sample(stimulus.Vector{A: 1, B: 2, Cin: 0}) // overlaps
	second.Sample(stimulus.Vector{A: 5, B: 5, Cin: 0})
	require.NoError(t, second.Save(filepath.Join(dir, "second.cov.json")))

	merged := filepath.Join(dir, "all.cov.json")
	stdout, _, err := execute(t, "coverage", "merge", "-o", merged,
		filepath.Join(dir, "first.cov.json"), filepath.Join(dir, "second.cov.json"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "merged 2 files")
	assert.Contains(t, stdout, "3 unique vectors")

	stdout, _, err = execute(t, "coverage", "report", merged)
	require.NoError(t, err)
	assert.Equal(t, "[coverage] total unique input combinations: 3\n", stdout)

	stdout, _, err = execute(t, "coverage", "report", merged, "--width", "4")
	require.NoError(t, err)
	assert.Contains(t, stdout, "closure:")
	assert.Contains(t, stdout, "width 4")
}

func TestCoverageReport_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.cov.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, _, err := execute(t, "coverage", "report", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
