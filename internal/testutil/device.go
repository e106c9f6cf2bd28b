package testutil

import (
	"context"
	"fmt"
)

// FakeDevice is a scriptable dut.Device and dut.Scheduler for harness tests.
//
// It records every write and settle in order, so tests can assert the
// protocol's drive-before-settle discipline, and it serves reads from a
// per-port queue of scripted values, so tests can make the "circuit" produce
// any output they need, correct or not.
type FakeDevice struct {
	// WidthN is returned for the N parameter.
	WidthN uint64

	// Writes records (port, value) pairs in call order.
	Writes []PortWrite

	// Settles counts Settle calls.
	Settles int

	// Ops records the full call sequence as "write a=1", "settle",
	// "read sum" strings, for ordering assertions.
	Ops []string

	// Outputs queues scripted read values per port. Reads pop from the
	// front; an empty queue is a test scripting error.
	Outputs map[string][]uint64

	// FailWrite, FailSettle, and FailRead force the matching operation to
	// fail, for exercising error propagation.
	FailWrite  error
	FailSettle error
	FailRead   error
}

// PortWrite is one recorded Write call.
type PortWrite struct {
	Port  string
	Value uint64
}

// NewFakeDevice creates a fake device reporting the given width.
func NewFakeDevice(width uint64) *FakeDevice {
	return &FakeDevice{WidthN: width, Outputs: make(map[string][]uint64)}
}

// Queue appends scripted read values for a port.
func (d *FakeDevice) Queue(port string, values ...uint64) {
	d.Outputs[port] = append(d.Outputs[port], values...)
}

// Write implements dut.Device.
func (d *FakeDevice) Write(port string, value uint64) error {
	if d.FailWrite != nil {
		return d.FailWrite
	}
	d.Writes = append(d.Writes, PortWrite{Port: port, Value: value})
	d.Ops = append(d.Ops, fmt.Sprintf("write %s=%d", port, value))
	return nil
}

// Read implements dut.Device, popping the next scripted value for the port.
func (d *FakeDevice) Read(port string) (uint64, error) {
	if d.FailRead != nil {
		return 0, d.FailRead
	}
	queue := d.Outputs[port]
	if len(queue) == 0 {
		return 0, fmt.Errorf("no scripted output for port %q", port)
	}
	d.Outputs[port] = queue[1:]
	d.Ops = append(d.Ops, "read "+port)
	return queue[0], nil
}

// Parameter implements dut.Device.
func (d *FakeDevice) Parameter(name string) (uint64, error) {
	if name != "N" {
		return 0, fmt.Errorf("no parameter %q", name)
	}
	return d.WidthN, nil
}

// Settle implements dut.Scheduler.
func (d *FakeDevice) Settle(ctx context.Context) error {
	if d.FailSettle != nil {
		return d.FailSettle
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	d.Settles++
	d.Ops = append(d.Ops, "settle")
	return nil
}
