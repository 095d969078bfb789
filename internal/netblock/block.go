package netblock

import (
	"encoding/binary"
	"fmt"
	"net/netip"
)

// Block is an IPv4 CIDR block in canonical form: the address is the
// network address for the prefix length (host bits zero). The zero value
// is not a valid block.
type Block struct {
	prefix netip.Prefix
}

// Parse converts CIDR notation into a Block. The address is canonicalized
// to the network address, so "10.0.0.7/24" parses to 10.0.0.0/24. IPv6
// input is rejected.
func Parse(s string) (Block, error) {
	p, err := netip.ParsePrefix(s)
	if err != nil {
		return Block{}, fmt.Errorf("invalid CIDR %q: %w", s, err)
	}
	return FromPrefix(p)
}

// MustParse is Parse for literals known to be valid. It panics on error.
func MustParse(s string) Block {
	b, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return b
}

// FromPrefix builds a Block from a parsed prefix, canonicalizing the
// address. IPv6 prefixes are rejected.
func FromPrefix(p netip.Prefix) (Block, error) {
	if !p.IsValid() {
		return Block{}, fmt.Errorf("invalid prefix %q", p)
	}
	if !p.Addr().Is4() {
		return Block{}, fmt.Errorf("only IPv4 blocks are supported, got %q", p)
	}
	return Block{prefix: p.Masked()}, nil
}

// IsValid reports whether b holds a parsed block. The zero value reports false.
func (b Block) IsValid() bool {
	return b.prefix.IsValid()
}

// Addr returns the network address.
func (b Block) Addr() netip.Addr {
	return b.prefix.Addr()
}

// Bits returns the prefix length.
func (b Block) Bits() int {
	return b.prefix.Bits()
}

// Prefix returns the underlying netip.Prefix.
func (b Block) Prefix() netip.Prefix {
	return b.prefix
}

// Size returns the number of addresses the block covers.
func (b Block) Size() uint64 {
	if !b.IsValid() {
		return 0
	}
	return uint64(1) << (32 - b.prefix.Bits())
}

// Contains reports whether other lies fully inside b.
func (b Block) Contains(other Block) bool {
	return b.IsValid() && other.IsValid() &&
		b.prefix.Bits() <= other.prefix.Bits() &&
		b.prefix.Contains(other.prefix.Addr())
}

// Overlaps reports whether the two blocks share at least one address.
// Containment and partial overlap both count.
func (b Block) Overlaps(other Block) bool {
	return b.prefix.Overlaps(other.prefix)
}

// Compare orders blocks by numeric base address, then by prefix length
// (larger blocks first). It returns -1, 0, or 1.
func (b Block) Compare(other Block) int {
	if c := b.prefix.Addr().Compare(other.prefix.Addr()); c != 0 {
		return c
	}
	switch {
	case b.prefix.Bits() < other.prefix.Bits():
		return -1
	case b.prefix.Bits() > other.prefix.Bits():
		return 1
	}
	return 0
}

// String returns the block in CIDR notation.
func (b Block) String() string {
	return b.prefix.String()
}

// MarshalText implements encoding.TextMarshaler so blocks serialize as
// CIDR strings in JSON and YAML documents.
func (b Block) MarshalText() ([]byte, error) {
	if !b.IsValid() {
		return nil, fmt.Errorf("cannot marshal zero block")
	}
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Block) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// firstValue returns the numeric value of the first address in the block.
func (b Block) firstValue() uint64 {
	return addrValue(b.prefix.Addr())
}

// endValue returns the numeric value one past the last address. Using the
// exclusive end keeps the arithmetic overflow-free at 255.255.255.255.
func (b Block) endValue() uint64 {
	return b.firstValue() + b.Size()
}

func addrValue(a netip.Addr) uint64 {
	raw := a.As4()
	return uint64(binary.BigEndian.Uint32(raw[:]))
}

func addrFromValue(v uint64) netip.Addr {
	var raw [4]byte
	// #nosec G115
	binary.BigEndian.PutUint32(raw[:], uint32(v))
	return netip.AddrFrom4(raw)
}
