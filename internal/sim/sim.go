// Package sim provides in-process simulated adder devices for the
// verification harness.
//
// A device keeps two signal frames, like a discrete-event simulator: writes
// land in a pending frame and only become the circuit's inputs when simulated
// time advances. Outputs are recomputed at that same instant. A vector driven
// across several Write calls is therefore applied atomically with respect to
// simulated time, and the device never exposes a partially updated state.
package sim

import (
	"context"
	"fmt"

	"github.com/verilab/addercheck/internal/dut"
	"github.com/verilab/addercheck/internal/refmodel"
)

// Adder is a simulated N-bit adder implementing both the dut.Device and
// dut.Scheduler capabilities. It is combinational: outputs are a pure
// function of the inputs present when Settle runs.
type Adder struct {
	arch  Arch
	width int
	ports dut.Ports
	add   addFunc

	pending map[string]uint64 // inputs written this quantum
	inputs  map[string]uint64 // inputs latched at the last settle
	outputs map[string]uint64 // settled outputs
	now     uint64            // elapsed simulated-time quanta
}

// New creates a simulated adder. A zero Ports value binds the device's port
// names to the logical defaults (a, b, c_in, sum, c_out).
func New(arch Arch, width int, ports dut.Ports) (*Adder, error) {
	if _, err := ParseArch(string(arch)); err != nil {
		return nil, err
	}
	if width < 1 || width > refmodel.MaxWidth {
		return nil, &refmodel.WidthError{Width: width}
	}
	if ports == (dut.Ports{}) {
		ports = dut.DefaultPorts()
	}

	a := &Adder{
		arch:    arch,
		width:   width,
		ports:   ports,
		add:     arch.addFunc(),
		pending: make(map[string]uint64, 3),
		inputs:  make(map[string]uint64, 3),
		outputs: make(map[string]uint64, 2),
	}
	for _, p := range []string{ports.A, ports.B, ports.CIn} {
		a.pending[p] = 0
		a.inputs[p] = 0
	}
	a.settle()
	return a, nil
}

// Arch returns the device's architecture.
func (a *Adder) Arch() Arch { return a.arch }

// Now returns the number of simulated-time quanta elapsed since construction.
func (a *Adder) Now() uint64 { return a.now }

// Write stages a value on a named input port. Values wider than the port are
// truncated, as wires in hardware truncate. The write takes effect at the
// next Settle.
func (a *Adder) Write(port string, value uint64) error {
	if _, ok := a.pending[port]; !ok {
		return fmt.Errorf("no input port %q on %s adder", port, a.arch)
	}
	mask := refmodel.Mask(a.width)
	if port == a.ports.CIn {
		mask = 1
	}
	a.pending[port] = value & mask
	return nil
}

// Read returns the settled value of a named output port.
func (a *Adder) Read(port string) (uint64, error) {
	v, ok := a.outputs[port]
	if !ok {
		return 0, fmt.Errorf("no output port %q on %s adder", port, a.arch)
	}
	return v, nil
}

// Parameter returns a declared elaboration parameter. Adders declare a
// single parameter, N, the bit width.
func (a *Adder) Parameter(name string) (uint64, error) {
	if name != "N" {
		return 0, fmt.Errorf("no parameter %q on %s adder", name, a.arch)
	}
	return uint64(a.width), nil
}

// Settle advances simulated time by one quantum: pending input writes are
// latched and the combinational outputs recomputed. Implements
// dut.Scheduler.
func (a *Adder) Settle(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("simulation aborted: %w", err)
	}
	a.settle()
	return nil
}

func (a *Adder) settle() {
	for p, v := range a.pending {
		a.inputs[p] = v
	}
	sum, cout := a.add(a.inputs[a.ports.A], a.inputs[a.ports.B], a.inputs[a.ports.CIn], a.width)
	a.outputs[a.ports.Sum] = sum
	a.outputs[a.ports.COut] = cout
	a.now++
}
