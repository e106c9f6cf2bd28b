// Package coverage tracks functional coverage for adder verification: the set
// of unique (a, b, c_in) input vectors that have been exercised against the
// device under test.
//
// A Tracker is owned by exactly one test run. Coverage is a by-run
// diagnostic, not a durable ledger: nothing is persisted unless Save is
// called, and cross-run aggregation happens only through explicit Merge or
// Load, never through shared global state.
package coverage

import (
	"fmt"
	"io"
	"sort"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/verilab/addercheck/internal/refmodel"
	"github.com/verilab/addercheck/internal/stimulus"
)

// Tracker collects the set of unique input vectors applied to the DUT.
// Uniqueness is value equality on (a, b, c_in); insertion order is
// irrelevant. The zero value is not usable; call NewTracker.
type Tracker struct {
	covered map[stimulus.Vector]struct{}
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{covered: make(map[stimulus.Vector]struct{})}
}

// Sample records an input vector. Re-sampling an already-seen vector is a
// no-op: the set cardinality does not change.
func (t *Tracker) Sample(v stimulus.Vector) {
	t.covered[v] = struct{}{}
}

// Count returns the number of unique vectors covered.
func (t *Tracker) Count() int {
	return len(t.covered)
}

// Contains reports whether the vector has been covered.
func (t *Tracker) Contains(v stimulus.Vector) bool {
	_, ok := t.covered[v]
	return ok
}

// Covered returns the covered vectors sorted by (a, b, c_in). Sorting makes
// saved files and reports deterministic; the set itself is order-free.
func (t *Tracker) Covered() []stimulus.Vector {
	vectors := make([]stimulus.Vector, 0, len(t.covered))
	for v := range t.covered {
		vectors = append(vectors, v)
	}
	sort.Slice(vectors, func(i, j int) bool {
		a, b := vectors[i], vectors[j]
		if a.A != b.A {
			return a.A < b.A
		}
		if a.B != b.B {
			return a.B < b.B
		}
		return a.Cin < b.Cin
	})
	return vectors
}

// Merge adds every vector covered by other into t. The union is commutative
// and associative at the level of the resulting set; other is not mutated.
func (t *Tracker) Merge(other *Tracker) {
	for v := range other.covered {
		t.covered[v] = struct{}{}
	}
}

// Closure returns the fraction of the exhaustive input space 2^(2N+1) that
// has been covered for an adder of the given width.
func (t *Tracker) Closure(width int) float64 {
	return float64(len(t.covered)) / refmodel.SpaceSize(width)
}

// Report writes a one-line coverage summary to w. Purely observational; the
// tracker is not modified.
func (t *Tracker) Report(w io.Writer) {
	p := message.NewPrinter(language.English)
	p.Fprintf(w, "[coverage] total unique input combinations: %d\n", len(t.covered))
}

// ReportClosure writes the coverage summary together with the closure ratio
// against the exhaustive space for the given width.
func (t *Tracker) ReportClosure(w io.Writer, width int) error {
	if width < 1 || width > refmodel.MaxWidth {
		return &refmodel.WidthError{Width: width}
	}
	p := message.NewPrinter(language.English)
	p.Fprintf(w, "[coverage] total unique input combinations: %d\n", len(t.covered))
	p.Fprintf(w, "[coverage] closure: %.6g%% of %.0f combinations (width %d)\n",
		t.Closure(width)*100, refmodel.SpaceSize(width), width)
	return nil
}

// String returns a compact summary for logs.
func (t *Tracker) String() string {
	return fmt.Sprintf("coverage{%d vectors}", len(t.covered))
}
