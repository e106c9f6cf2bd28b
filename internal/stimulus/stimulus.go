// Package stimulus generates randomized input vectors for N-bit adder
// verification.
//
// Randomness is funneled through an explicitly seeded *rand.Rand supplied by
// the caller. There is no package-level generator and no import-time
// randomization: two runs constructed with the same seed drive identical
// vector sequences.
package stimulus

import (
	"math/rand"

	"github.com/verilab/addercheck/internal/refmodel"
)

// Vector is one stimulus sample: two operands and a carry-in bit. Vectors are
// immutable once produced; for a width-N generator, A and B are in
// [0, 2^N - 1] and Cin is 0 or 1.
type Vector struct {
	A   uint64 `json:"a"`
	B   uint64 `json:"b"`
	Cin uint64 `json:"c_in"`
}

// Generator produces uniformly distributed random vectors for a fixed adder
// width. It holds no state beyond the width and its random source, so it is
// cheap to construct fresh per test run. Generators make no uniqueness
// guarantee: duplicate vectors are legal and expected, and exhaustiveness is
// achieved by coverage closure over many runs, not by any single call.
type Generator struct {
	width int
	rng   *rand.Rand
}

// NewGenerator creates a generator for the given adder width. It fails fast
// with a *refmodel.WidthError before any vector is produced if the width is
// out of range.
func NewGenerator(width int, rng *rand.Rand) (*Generator, error) {
	if width < 1 || width > refmodel.MaxWidth {
		return nil, &refmodel.WidthError{Width: width}
	}
	return &Generator{width: width, rng: rng}, nil
}

// Width returns the configured adder width.
func (g *Generator) Width() int { return g.width }

// Generate returns exactly count vectors. Each field of each vector is drawn
// independently and uniformly from its legal range. A non-positive count
// yields an empty slice.
func (g *Generator) Generate(count int) []Vector {
	if count < 1 {
		return nil
	}
	vectors := make([]Vector, count)
	for i := range vectors {
		vectors[i] = g.Next()
	}
	return vectors
}

// Next returns a single random vector.
func (g *Generator) Next() Vector {
	mask := refmodel.Mask(g.width)
	return Vector{
		A:   g.rng.Uint64() & mask,
		B:   g.rng.Uint64() & mask,
		Cin: g.rng.Uint64() & 1,
	}
}
