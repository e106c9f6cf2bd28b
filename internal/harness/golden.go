package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// TraceSnapshot is the serialized form of a run's trace, compared against
// golden files. Field order is fixed by the struct, and traces are emitted in
// drive order, so snapshots are byte-stable for deterministic runs.
type TraceSnapshot struct {
	Name   string       `json:"name"`
	DUT    string       `json:"dut"`
	Width  int          `json:"width"`
	Pass   bool         `json:"pass"`
	Driven int          `json:"driven"`
	Trace  []TraceEvent `json:"trace"`
}

// AssertGolden compares a run result's trace against the golden file
// testdata/golden/<name>.golden. Regenerate golden files with:
//
//	go test ./internal/harness -update
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	snapshot := TraceSnapshot{
		Name:   name,
		DUT:    result.DUT,
		Width:  result.Width,
		Pass:   result.Pass,
		Driven: result.Driven,
		Trace:  result.Trace,
	}
	data, err := json.MarshalIndent(&snapshot, "", "  ")
	if err != nil {
		t.Fatalf("failed to marshal trace snapshot: %v", err)
	}
	data = append(data, '\n')

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}
