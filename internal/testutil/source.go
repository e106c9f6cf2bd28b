// Package testutil provides deterministic test doubles for the verification
// harness: a scripted stimulus source and a scriptable device. Tests built on
// them produce identical traces on every run, which is what makes golden
// snapshot comparison possible.
package testutil

import "github.com/verilab/addercheck/internal/stimulus"

// ScriptedSource replays a fixed vector sequence. Unlike the random
// generator it is consumed: each Generate call hands out the next vectors of
// the script, and a request past the end returns only what remains.
type ScriptedSource struct {
	vectors []stimulus.Vector
}

// NewScriptedSource creates a source that yields the given vectors in order.
func NewScriptedSource(vectors ...stimulus.Vector) *ScriptedSource {
	return &ScriptedSource{vectors: vectors}
}

// Generate implements harness.StimulusSource.
func (s *ScriptedSource) Generate(count int) []stimulus.Vector {
	if count < 1 {
		return nil
	}
	if count > len(s.vectors) {
		count = len(s.vectors)
	}
	out := s.vectors[:count]
	s.vectors = s.vectors[count:]
	return out
}

// Remaining returns how many scripted vectors have not been handed out.
func (s *ScriptedSource) Remaining() int {
	return len(s.vectors)
}
