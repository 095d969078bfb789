package netblock

import (
	"fmt"
	"net/netip"
	"slices"
)

// InvalidInputError reports allocation input that violates a precondition:
// a reservation outside the supernet, or a requested prefix that does not
// fit inside it.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "invalid allocation input: " + e.Reason
}

// ExhaustionError reports that a supernet has no free block of the
// requested prefix length left.
type ExhaustionError struct {
	Supernet  Block
	PrefixLen int
}

func (e *ExhaustionError) Error() string {
	return fmt.Sprintf("supernet %s has no free /%d block", e.Supernet, e.PrefixLen)
}

// Allocate returns the lowest-addressed block of the requested prefix
// length that lies fully inside supernet and overlaps none of the existing
// reservations. The result is deterministic: it does not depend on the
// order or duplication of entries in existing. When every candidate slot
// conflicts, Allocate returns *ExhaustionError.
func Allocate(supernet Block, existing []Block, prefixLen int) (Block, error) {
	if !supernet.IsValid() {
		return Block{}, &InvalidInputError{Reason: "supernet is not a valid IPv4 block"}
	}
	if prefixLen < supernet.Bits() || prefixLen > 32 {
		return Block{}, &InvalidInputError{Reason: fmt.Sprintf(
			"prefix /%d does not fit inside supernet %s", prefixLen, supernet)}
	}
	for _, r := range existing {
		if !supernet.Contains(r) {
			return Block{}, &InvalidInputError{Reason: fmt.Sprintf(
				"reservation %s lies outside supernet %s", r, supernet)}
		}
	}

	// Sorting a copy makes the scan independent of input order and lets it
	// jump past conflicting reservations instead of testing every slot.
	taken := slices.Clone(existing)
	slices.SortFunc(taken, Block.Compare)

	step := uint64(1) << (32 - prefixLen)
	base := supernet.firstValue()
	end := base + supernet.Size()

	cand := base
	idx := 0
	for cand < end {
		for idx < len(taken) && taken[idx].endValue() <= cand {
			idx++
		}
		if idx == len(taken) || taken[idx].firstValue() >= cand+step {
			// cand is step-aligned within the supernet, so its host bits
			// are already zero.
			return Block{prefix: netip.PrefixFrom(addrFromValue(cand), prefixLen)}, nil
		}
		// Jump past the conflicting reservation, back onto the candidate
		// grid. This returns the same block a slot-by-slot scan would.
		next := taken[idx].endValue()
		cand = base + (next-base+step-1)/step*step
		idx++
	}

	return Block{}, &ExhaustionError{Supernet: supernet, PrefixLen: prefixLen}
}
