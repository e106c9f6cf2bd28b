// Package dut defines the capability contract the verification harness
// consumes from a device under test.
//
// The harness treats the DUT as a black box: it writes named input signals,
// advances simulated time by one quantum so combinational outputs settle, and
// reads named output signals. Signal access is resolved once, at run start,
// from a typed role enumeration to the device's physical port names; the
// drive/read loop never touches stringly-typed lookups it has not validated.
package dut

import (
	"context"
	"fmt"
)

// Role is a logical signal role on an N-bit adder.
type Role int

const (
	// RoleA is the first operand input.
	RoleA Role = iota
	// RoleB is the second operand input.
	RoleB
	// RoleCIn is the carry-in input bit.
	RoleCIn
	// RoleSum is the truncated sum output.
	RoleSum
	// RoleCOut is the carry-out output bit.
	RoleCOut
)

// roleNames are the canonical logical names, also used as the default
// physical port names when a configuration does not remap them.
var roleNames = map[Role]string{
	RoleA:    "a",
	RoleB:    "b",
	RoleCIn:  "c_in",
	RoleSum:  "sum",
	RoleCOut: "c_out",
}

// Roles lists every logical role in a fixed order.
var Roles = []Role{RoleA, RoleB, RoleCIn, RoleSum, RoleCOut}

// String returns the logical name of the role.
func (r Role) String() string {
	if n, ok := roleNames[r]; ok {
		return n
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// Device is the signal-level capability surface of a simulated circuit.
//
// Write applies a value to a named input port; the value becomes visible to
// the circuit at the next time advance, so all writes issued within one
// quantum are applied atomically. Read returns the current settled value of a
// named output port. Parameter reads a declared elaboration parameter (the
// harness reads the width parameter exactly once, at run start).
type Device interface {
	Write(port string, value uint64) error
	Read(port string) (uint64, error)
	Parameter(name string) (uint64, error)
}

// Scheduler advances simulated time. Settle suspends the caller until one
// simulated-time quantum has elapsed, after which combinational outputs
// driven before the call are stable. It is the harness's sole suspension
// point; ctx cancellation maps an external simulation abort onto an error.
type Scheduler interface {
	Settle(ctx context.Context) error
}

// Ports holds the physical port name for each logical role, resolved once
// per run from configuration.
type Ports struct {
	A    string
	B    string
	CIn  string
	Sum  string
	COut string
}

// DefaultPorts returns the identity mapping: each role bound to its logical
// name.
func DefaultPorts() Ports {
	return Ports{
		A:    roleNames[RoleA],
		B:    roleNames[RoleB],
		CIn:  roleNames[RoleCIn],
		Sum:  roleNames[RoleSum],
		COut: roleNames[RoleCOut],
	}
}

// ResolvePorts builds a Ports value from a logical-name to physical-name
// mapping. Roles absent from the mapping keep their logical name; keys that
// are not logical roles, and empty or duplicate physical names, are rejected
// so a typo in configuration fails before the first vector is driven.
func ResolvePorts(mapping map[string]string) (Ports, error) {
	byLogical := make(map[string]Role, len(roleNames))
	for r, n := range roleNames {
		byLogical[n] = r
	}

	resolved := make(map[Role]string, len(roleNames))
	for r, n := range roleNames {
		resolved[r] = n
	}
	for logical, physical := range mapping {
		r, ok := byLogical[logical]
		if !ok {
			return Ports{}, fmt.Errorf("unknown signal role %q: roles are a, b, c_in, sum, c_out", logical)
		}
		if physical == "" {
			return Ports{}, fmt.Errorf("role %q mapped to an empty port name", logical)
		}
		resolved[r] = physical
	}

	seen := make(map[string]Role, len(resolved))
	for _, r := range Roles {
		n := resolved[r]
		if prev, dup := seen[n]; dup {
			return Ports{}, fmt.Errorf("roles %q and %q both mapped to port %q", prev, r, n)
		}
		seen[n] = r
	}

	return Ports{
		A:    resolved[RoleA],
		B:    resolved[RoleB],
		CIn:  resolved[RoleCIn],
		Sum:  resolved[RoleSum],
		COut: resolved[RoleCOut],
	}, nil
}
