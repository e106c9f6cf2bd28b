// Package check compares observed DUT outputs against the reference model.
//
// A mismatch is a hard, non-retriable failure: the circuit is combinational
// and deterministic, so a diverging output will diverge again on retry. Both
// the sum and the carry-out comparison are always evaluated, and both
// failures are reported together for diagnostic value.
package check

import (
	"errors"
	"fmt"

	"github.com/verilab/addercheck/internal/refmodel"
)

// MismatchKind identifies which adder output diverged.
type MismatchKind int

const (
	// KindSum indicates the truncated sum output diverged.
	KindSum MismatchKind = iota
	// KindCarry indicates the carry-out output diverged.
	KindCarry
)

// String returns the output name for the kind.
func (k MismatchKind) String() string {
	switch k {
	case KindSum:
		return "sum"
	case KindCarry:
		return "c_out"
	default:
		return fmt.Sprintf("MismatchKind(%d)", int(k))
	}
}

// MismatchError reports one observed-vs-expected divergence on a single DUT
// output.
type MismatchError struct {
	Kind MismatchKind
	Got  uint64
	Want uint64
}

// Error implements the error interface.
func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s mismatch: got %d, expected %d", e.Kind, e.Got, e.Want)
}

// Check compares an observed result against the expected result from the
// reference model. It returns nil when both outputs match, and otherwise an
// error joining one *MismatchError per diverging output.
func Check(observed, expected refmodel.Result) error {
	var errs []error
	if observed.Sum != expected.Sum {
		errs = append(errs, &MismatchError{Kind: KindSum, Got: observed.Sum, Want: expected.Sum})
	}
	if observed.Cout != expected.Cout {
		errs = append(errs, &MismatchError{Kind: KindCarry, Got: observed.Cout, Want: expected.Cout})
	}
	return errors.Join(errs...)
}

// IsMismatch reports whether err is, or wraps, a mismatch. Uses errors.As so
// it sees through joined and wrapped errors.
func IsMismatch(err error) bool {
	var me *MismatchError
	return errors.As(err, &me)
}
