package sim

import (
	"fmt"

	"github.com/verilab/addercheck/internal/refmodel"
)

// Arch selects the adder micro-architecture a simulated device implements.
//
// All architectures compute the same function; they differ in how the carry
// chain is formed, mirroring the RTL variants this harness is meant to
// verify. Having structurally different implementations is what makes the
// check non-tautological: the reference model adds with machine arithmetic,
// the devices add with gate-level carry logic.
type Arch string

const (
	// ArchBehavioral adds with plain machine arithmetic.
	ArchBehavioral Arch = "behavioral"
	// ArchRCA ripples the carry bit by bit through full adders.
	ArchRCA Arch = "rca"
	// ArchCLA computes block carries from generate/propagate lookahead terms.
	ArchCLA Arch = "cla"
	// ArchKSA forms all carries with a Kogge-Stone parallel prefix tree.
	ArchKSA Arch = "ksa"
)

// Archs lists the supported architectures.
var Archs = []Arch{ArchBehavioral, ArchRCA, ArchCLA, ArchKSA}

// ParseArch validates an architecture name.
func ParseArch(name string) (Arch, error) {
	for _, a := range Archs {
		if string(a) == name {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown adder architecture %q: must be one of %v", name, Archs)
}

// addFunc computes (sum, c_out) from masked operands and a carry-in bit.
type addFunc func(a, b, cin uint64, width int) (sum, cout uint64)

func (ar Arch) addFunc() addFunc {
	switch ar {
	case ArchRCA:
		return rippleCarryAdd
	case ArchCLA:
		return lookaheadAdd
	case ArchKSA:
		return koggeStoneAdd
	default:
		return behavioralAdd
	}
}

func behavioralAdd(a, b, cin uint64, width int) (uint64, uint64) {
	total := a + b + cin
	return total & refmodel.Mask(width), total >> uint(width)
}

// rippleCarryAdd chains one full adder per bit position, carry rippling from
// the least significant bit upward.
func rippleCarryAdd(a, b, cin uint64, width int) (uint64, uint64) {
	var sum uint64
	carry := cin & 1
	for i := 0; i < width; i++ {
		ai := (a >> uint(i)) & 1
		bi := (b >> uint(i)) & 1
		s := ai ^ bi ^ carry
		carry = ai&bi | ai&carry | bi&carry
		sum |= s << uint(i)
	}
	return sum, carry
}

// lookaheadAdd computes carries four bits at a time from generate and
// propagate terms, the way a 4-bit-block carry-lookahead adder does, with the
// block carry-out fed into the next block.
func lookaheadAdd(a, b, cin uint64, width int) (uint64, uint64) {
	var sum uint64
	carry := cin & 1
	for base := 0; base < width; base += 4 {
		n := width - base
		if n > 4 {
			n = 4
		}
		var g, p [4]uint64
		for i := 0; i < n; i++ {
			ai := (a >> uint(base+i)) & 1
			bi := (b >> uint(base+i)) & 1
			g[i] = ai & bi
			p[i] = ai ^ bi
		}
		// c[i+1] = g[i] | p[i]&c[i] within the block
		c := carry
		for i := 0; i < n; i++ {
			sum |= (p[i] ^ c) << uint(base+i)
			c = g[i] | p[i]&c
		}
		carry = c
	}
	return sum, carry
}

// koggeStoneAdd forms the complete carry vector with a Kogge-Stone parallel
// prefix over bitwise generate/propagate words.
func koggeStoneAdd(a, b, cin uint64, width int) (uint64, uint64) {
	mask := refmodel.Mask(width)
	g := a & b
	p := a ^ b

	// Treat carry-in as a generate at a virtual bit -1 by folding it into
	// bit 0's terms before the prefix sweep.
	g |= p & cin & 1

	gk, pk := g, p
	for dist := 1; dist < width; dist <<= 1 {
		gk = gk | pk&(gk<<uint(dist))
		pk = pk & (pk << uint(dist))
	}

	// gk[i] is now the carry out of bit i; carries into each bit are gk
	// shifted up with cin entering at bit 0.
	carries := (gk<<1 | cin&1) & mask
	sum := (p ^ carries) & mask
	cout := (gk >> uint(width-1)) & 1
	return sum, cout
}
