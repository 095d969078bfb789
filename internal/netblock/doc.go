// Package netblock models IPv4 CIDR blocks and first-fit allocation
// inside a supernet.
//
// [Block] is an immutable value type: the address is always the canonical
// network address for its prefix length, so two blocks covering the same
// range compare equal. [Allocate] carves the lowest-addressed free block
// of a requested prefix length out of a supernet, honoring existing
// reservations. Only IPv4 is supported.
package netblock
