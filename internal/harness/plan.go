package harness

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/verilab/addercheck/internal/config"
	"github.com/verilab/addercheck/internal/coverage"
	"github.com/verilab/addercheck/internal/refmodel"
	"github.com/verilab/addercheck/internal/sim"
	"github.com/verilab/addercheck/internal/stimulus"
)

// DefaultSeed is used when a plan omits an explicit seed, keeping plan runs
// reproducible by default. Operators wanting fresh stimulus set a seed.
const DefaultSeed = 1

// Plan is a declarative test plan: which DUT to verify, how much stimulus to
// drive, and what to do with coverage. Plans are YAML files:
//
//	name: rca_smoke
//	description: "Smoke test for the ripple-carry adder"
//	dut: ../duts/rca.cue
//	vectors: 100
//	seed: 42
//	directed:
//	  - { a: 7, b: 12, c_in: 0 }
//	coverage:
//	  save: rca_smoke.cov.json
type Plan struct {
	// Name uniquely identifies this plan.
	Name string `yaml:"name"`

	// Description explains what this plan exercises.
	Description string `yaml:"description,omitempty"`

	// DUT is the path to the CUE DUT spec, relative to the plan file.
	DUT string `yaml:"dut"`

	// Vectors is how many random vectors to drive after the directed ones.
	Vectors int `yaml:"vectors"`

	// Seed seeds the stimulus generator (and the width sweep, for specs
	// that leave width unset). Zero means DefaultSeed.
	Seed int64 `yaml:"seed,omitempty"`

	// Directed lists vectors driven, in order, before the random stimulus.
	Directed []DirectedVector `yaml:"directed,omitempty"`

	// Coverage controls coverage persistence around the run.
	Coverage *CoveragePlan `yaml:"coverage,omitempty"`
}

// DirectedVector is an explicitly chosen stimulus vector in a plan.
type DirectedVector struct {
	A   uint64 `yaml:"a"`
	B   uint64 `yaml:"b"`
	CIn uint64 `yaml:"c_in"`
}

// CoveragePlan controls coverage persistence for a plan run. Paths are
// relative to the plan file.
type CoveragePlan struct {
	// Load seeds the run's tracker from a saved coverage file before the
	// run starts.
	Load string `yaml:"load,omitempty"`

	// Merge lists coverage files merged into the tracker after the run.
	Merge []string `yaml:"merge,omitempty"`

	// Save writes the final tracker to this path after the run (and after
	// any merges).
	Save string `yaml:"save,omitempty"`
}

// LoadPlan reads and validates a plan file. Relative paths inside the plan
// are resolved against the plan file's directory. Unknown YAML fields are
// rejected so a typo fails loudly instead of silently dropping a directive.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}

	var plan Plan
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&plan); err != nil {
		return nil, fmt.Errorf("failed to parse plan %s: %w", path, err)
	}

	base := filepath.Dir(path)
	if plan.DUT != "" && !filepath.IsAbs(plan.DUT) {
		plan.DUT = filepath.Join(base, plan.DUT)
	}
	if plan.Coverage != nil {
		if plan.Coverage.Load != "" && !filepath.IsAbs(plan.Coverage.Load) {
			plan.Coverage.Load = filepath.Join(base, plan.Coverage.Load)
		}
		if plan.Coverage.Save != "" && !filepath.IsAbs(plan.Coverage.Save) {
			plan.Coverage.Save = filepath.Join(base, plan.Coverage.Save)
		}
		for i, m := range plan.Coverage.Merge {
			if !filepath.IsAbs(m) {
				plan.Coverage.Merge[i] = filepath.Join(base, m)
			}
		}
	}

	if err := validatePlan(&plan); err != nil {
		return nil, fmt.Errorf("invalid plan %s: %w", path, err)
	}
	return &plan, nil
}

func validatePlan(p *Plan) error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.DUT == "" {
		return fmt.Errorf("dut is required")
	}
	if _, err := os.Stat(p.DUT); err != nil {
		return fmt.Errorf("dut spec not found: %s", p.DUT)
	}
	if p.Vectors < 0 {
		return fmt.Errorf("vectors must be non-negative")
	}
	if p.Vectors == 0 && len(p.Directed) == 0 {
		return fmt.Errorf("plan drives no vectors: set vectors or directed")
	}
	if p.Seed < 0 {
		return fmt.Errorf("seed must be non-negative")
	}
	for i, d := range p.Directed {
		if d.CIn > 1 {
			return fmt.Errorf("directed[%d]: c_in must be 0 or 1, got %d", i, d.CIn)
		}
	}
	return nil
}

// plannedSource yields a plan's directed vectors first, then fills the rest
// of each request from the random generator.
type plannedSource struct {
	directed []stimulus.Vector
	gen      *stimulus.Generator
}

// Generate implements StimulusSource.
func (s *plannedSource) Generate(count int) []stimulus.Vector {
	if count < 1 {
		return nil
	}
	vectors := make([]stimulus.Vector, 0, count)
	n := len(s.directed)
	if n > count {
		n = count
	}
	vectors = append(vectors, s.directed[:n]...)
	s.directed = s.directed[n:]
	return append(vectors, s.gen.Generate(count-len(vectors))...)
}

// RunPlan executes a plan end to end: load the DUT spec, instantiate the
// simulated device, seed the stimulus generator, apply the coverage
// directives, and drive the run.
func RunPlan(ctx context.Context, plan *Plan, opts *Options) (*Result, error) {
	cfg, err := config.Load(plan.DUT)
	if err != nil {
		return nil, err
	}

	seed := plan.Seed
	if seed == 0 {
		seed = DefaultSeed
	}
	rng := rand.New(rand.NewSource(seed))

	width := cfg.Width
	if width == 0 {
		width = config.DefaultWidths[rng.Intn(len(config.DefaultWidths))]
	}

	arch, err := sim.ParseArch(cfg.Arch)
	if err != nil {
		return nil, fmt.Errorf("DUT spec %s: %w", plan.DUT, err)
	}
	ports, err := cfg.ResolvePorts()
	if err != nil {
		return nil, fmt.Errorf("DUT spec %s: %w", plan.DUT, err)
	}
	dev, err := sim.New(arch, width, ports)
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate %s DUT: %w", cfg.Name, err)
	}

	gen, err := stimulus.NewGenerator(width, rng)
	if err != nil {
		return nil, err
	}

	directed := make([]stimulus.Vector, len(plan.Directed))
	mask := refmodel.Mask(width)
	for i, d := range plan.Directed {
		if d.A > mask || d.B > mask {
			return nil, fmt.Errorf("directed[%d]: operands (a=%d, b=%d) do not fit in %d bits", i, d.A, d.B, width)
		}
		directed[i] = stimulus.Vector{A: d.A, B: d.B, Cin: d.CIn}
	}

	o := opts.withDefaults()
	if plan.Coverage != nil && plan.Coverage.Load != "" {
		if err := o.Coverage.Load(plan.Coverage.Load); err != nil {
			return nil, err
		}
	}

	orch, err := New(cfg, dev, dev, &plannedSource{directed: directed, gen: gen}, &o)
	if err != nil {
		return nil, err
	}

	result, runErr := orch.Run(ctx, len(directed)+plan.Vectors)
	if runErr != nil {
		return result, runErr
	}

	if plan.Coverage != nil {
		for _, path := range plan.Coverage.Merge {
			other := coverage.NewTracker()
			if err := other.Load(path); err != nil {
				return result, err
			}
			o.Coverage.Merge(other)
		}
		if plan.Coverage.Save != "" {
			if err := o.Coverage.Save(plan.Coverage.Save); err != nil {
				return result, err
			}
		}
	}

	return result, nil
}
