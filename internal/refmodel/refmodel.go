// Package refmodel implements the arithmetic reference model for an N-bit
// binary adder.
//
// The reference model is the source of truth the simulated circuit is checked
// against: a pure function from the input vector (a, b, c_in) to the expected
// (sum, c_out). It knows nothing about signals, settle times, or the device
// under test.
package refmodel

import (
	"fmt"
	"math"
)

// MaxWidth is the widest adder the model supports. Operand values are held in
// uint64, so a + b + c_in must fit without overflow.
const MaxWidth = 63

// Result holds the outputs of an N-bit addition: the truncated sum and the
// carry-out bit.
type Result struct {
	Sum  uint64 `json:"sum"`
	Cout uint64 `json:"c_out"`
}

// WidthError is returned when an adder width is outside [1, MaxWidth].
type WidthError struct {
	Width int
}

// Error implements the error interface.
func (e *WidthError) Error() string {
	return fmt.Sprintf("invalid adder width %d: must be in [1, %d]", e.Width, MaxWidth)
}

// Expect computes the expected adder outputs for the given operands,
// carry-in, and width:
//
//	sum   = (a + b + c_in) mod 2^N
//	c_out = (a + b + c_in) div 2^N
//
// The operands must fit in width bits and cin must be 0 or 1; callers are
// responsible for masking. For legal inputs the total is at most
// 2^(N+1) - 1, so the carry-out is provably 0 or 1. Expect verifies that
// bound anyway: if a caller relaxes the input constraints, the violation is
// reported instead of silently truncated.
func Expect(a, b, cin uint64, width int) (Result, error) {
	if width < 1 || width > MaxWidth {
		return Result{}, &WidthError{Width: width}
	}

	total := a + b + cin
	sum := total & Mask(width)
	cout := total >> uint(width)
	if cout > 1 {
		return Result{}, fmt.Errorf("carry-out %d exceeds one bit: inputs a=%d b=%d c_in=%d out of range for width %d",
			cout, a, b, cin, width)
	}

	return Result{Sum: sum, Cout: cout}, nil
}

// Mask returns the bit mask covering width bits. Mask panics if width is
// outside [1, MaxWidth]; widths are validated at configuration time, before
// any arithmetic runs.
func Mask(width int) uint64 {
	if width < 1 || width > MaxWidth {
		panic(&WidthError{Width: width})
	}
	return (1 << uint(width)) - 1
}

// SpaceSize returns the number of distinct (a, b, c_in) input combinations
// for an adder of the given width: 2^(2N+1). This is the denominator of the
// coverage closure metric. The result is a float64 because the space outgrows
// uint64 at width 32 (2^65); powers of two up to 2^127 are exact in float64.
func SpaceSize(width int) float64 {
	if width < 1 || width > MaxWidth {
		panic(&WidthError{Width: width})
	}
	return math.Ldexp(1, 2*width+1)
}
