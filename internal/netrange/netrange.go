package netrange

import (
	"errors"
	"fmt"
	"iter"
	"net/netip"
	"strings"
)

// ErrInvalidRange is returned when a subnet descriptor cannot be scanned.
// This covers malformed CIDR notation, non-IPv4 prefixes, and prefixes
// that admit no usable host (/31 and /32 under the network/broadcast
// exclusion rule). It is a fatal, pre-scan error: no work is dispatched.
var ErrInvalidRange = errors.New("invalid scan range")

// Range is an immutable, parsed IPv4 subnet.
// It produces the usable host addresses of the subnet on demand.
type Range struct {
	prefix netip.Prefix
	first  netip.Addr
	last   netip.Addr
	count  int
}

// Parse parses a CIDR subnet descriptor (e.g. "192.168.1.0/24") into a Range.
// The address part may be any address inside the subnet; it is masked to
// the network address. Returns an error wrapping ErrInvalidRange if the
// descriptor is malformed, not IPv4, or admits no usable host.
func Parse(cidr string) (*Range, error) {
	prefix, err := netip.ParsePrefix(strings.TrimSpace(cidr))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRange, err)
	}
	if !prefix.Addr().Is4() {
		return nil, fmt.Errorf("%w: %s is not an IPv4 subnet", ErrInvalidRange, cidr)
	}

	prefix = prefix.Masked()
	bits := prefix.Bits()

	// A /31 leaves zero addresses once network and broadcast are excluded.
	if bits > 30 {
		return nil, fmt.Errorf("%w: /%d admits no usable hosts", ErrInvalidRange, bits)
	}

	network := prefix.Addr().As4()
	base := uint32(network[0])<<24 | uint32(network[1])<<16 | uint32(network[2])<<8 | uint32(network[3])
	broadcast := base | (1<<(32-bits) - 1)

	return &Range{
		prefix: prefix,
		first:  addrFromUint32(base + 1),
		last:   addrFromUint32(broadcast - 1),
		count:  int(broadcast-base) - 1,
	}, nil
}

// Count returns the number of usable hosts in the range.
func (r *Range) Count() int {
	return r.count
}

// All returns a lazy, restartable iterator over the usable hosts in
// ascending numeric order. Each call to All starts a fresh iteration.
func (r *Range) All() iter.Seq[netip.Addr] {
	return func(yield func(netip.Addr) bool) {
		for addr := r.first; addr.Compare(r.last) <= 0; addr = addr.Next() {
			if !yield(addr) {
				return
			}
		}
	}
}

// Hosts materializes the full host list.
// Convenient for callers that need the slice (the scan engine crosses
// it with the port matrix up front to fix the total work-unit count).
func (r *Range) Hosts() []netip.Addr {
	hosts := make([]netip.Addr, 0, r.count)
	for addr := range r.All() {
		hosts = append(hosts, addr)
	}
	return hosts
}

// Contains reports whether addr is a usable host inside the range.
func (r *Range) Contains(addr netip.Addr) bool {
	return addr.Is4() && addr.Compare(r.first) >= 0 && addr.Compare(r.last) <= 0
}

// String returns the masked CIDR form of the range.
func (r *Range) String() string {
	return r.prefix.String()
}

func addrFromUint32(v uint32) netip.Addr {
	return netip.AddrFrom4([4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
}
