// Package config loads device-under-test specifications.
//
// A DUT spec is a CUE file declaring the adder's name, its architecture, the
// bit width, and the mapping from logical signal roles to the device's
// physical port names:
//
//	name:  "rca"
//	arch:  "rca"
//	width: 8
//	ports: {
//		a:     "a"
//		b:     "b"
//		c_in:  "c_in"
//		sum:   "sum"
//		c_out: "c_out"
//	}
//
// A config is supplied once per run and is read-only thereafter. Width 0
// means "sweep": the run picks a width from DefaultWidths using its own
// seeded random source, so the choice is reproducible from the run seed
// rather than a side effect of process start.
package config

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/verilab/addercheck/internal/dut"
	"github.com/verilab/addercheck/internal/refmodel"
)

// DefaultWidths is the width sweep used when a spec leaves width unset.
var DefaultWidths = []int{4, 8, 16, 32}

// Config describes one device under test.
type Config struct {
	// Name identifies the DUT in reports and run records.
	Name string `json:"name"`

	// Arch names the simulated adder architecture to instantiate
	// (behavioral, rca, cla, ksa).
	Arch string `json:"arch"`

	// Width is the adder bit width N. Zero selects a width from
	// DefaultWidths at run start.
	Width int `json:"width"`

	// Ports maps logical roles (a, b, c_in, sum, c_out) to the device's
	// physical port names. Missing roles keep their logical name.
	Ports map[string]string `json:"ports"`
}

// Load reads and validates a CUE DUT spec from path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read DUT spec: %w", err)
	}
	return Parse(path, data)
}

// Parse compiles CUE source into a validated Config. The filename is used
// only for error positions.
func Parse(filename string, data []byte) (*Config, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("failed to compile DUT spec %s: %w", filename, err)
	}

	var cfg Config
	if err := value.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode DUT spec %s: %w", filename, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid DUT spec %s: %w", filename, err)
	}
	return &cfg, nil
}

// Validate checks the config for use in a run.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if c.Arch == "" {
		return fmt.Errorf("arch is required")
	}
	if c.Width < 0 || c.Width > refmodel.MaxWidth {
		return &refmodel.WidthError{Width: c.Width}
	}
	if _, err := c.ResolvePorts(); err != nil {
		return err
	}
	return nil
}

// ResolvePorts resolves the logical-role mapping into typed port bindings.
func (c *Config) ResolvePorts() (dut.Ports, error) {
	return dut.ResolvePorts(c.Ports)
}
