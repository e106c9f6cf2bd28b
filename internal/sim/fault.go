package sim

import "github.com/verilab/addercheck/internal/dut"

// Faulty wraps a device and corrupts its outputs on read. It exists to
// exercise the harness's mismatch path: a verification harness that has never
// seen a failing circuit is itself unverified.
//
// Writes and parameters pass through untouched, so a Faulty device behaves
// like its wrapped device in every way except the outputs it reports.
type Faulty struct {
	dut.Device

	// SumXor is XOR-ed into every sum read. Zero leaves the sum intact.
	SumXor uint64

	// StuckCOut, when non-nil, pins the carry-out read to its value.
	StuckCOut *uint64

	// SumPort and COutPort name the output ports to corrupt. Empty names
	// default to the logical names.
	SumPort  string
	COutPort string
}

// Read returns the wrapped device's output with the configured corruption
// applied.
func (f *Faulty) Read(port string) (uint64, error) {
	v, err := f.Device.Read(port)
	if err != nil {
		return 0, err
	}
	sumPort, coutPort := f.SumPort, f.COutPort
	if sumPort == "" {
		sumPort = dut.DefaultPorts().Sum
	}
	if coutPort == "" {
		coutPort = dut.DefaultPorts().COut
	}
	switch port {
	case sumPort:
		v ^= f.SumXor
	case coutPort:
		if f.StuckCOut != nil {
			v = *f.StuckCOut
		}
	}
	return v, nil
}
