package probe

import (
	"fmt"
	"net/netip"
	"slices"

	"github.com/DapperHoldings/streamhunter/internal/model"
)

// Matrix is the static mapping of protocol to candidate ports.
// It is loaded once at startup and never mutated afterwards; every scan
// derives its work-unit sequence from the same matrix, which fixes the
// total unit count and makes progress percentages reproducible.
//
// A port may serve more than one protocol: 1935 is probed for both HLS
// (media servers often expose manifests there) and the RTMP handshake.
type Matrix struct {
	ports map[model.Protocol][]uint16
}

// DefaultMatrix returns the matrix of conventional streaming ports.
func DefaultMatrix() *Matrix {
	m, err := NewMatrix(map[model.Protocol][]uint16{
		model.ProtocolRTSP: {554, 8554},
		model.ProtocolHLS:  {1935, 8080, 8081},
		model.ProtocolDASH: {80, 8080},
		model.ProtocolRTMP: {1935, 1936},
	})
	if err != nil {
		// The table above is a compile-time constant; a failure here is a bug.
		panic(err)
	}
	return m
}

// NewMatrix builds a Matrix from a protocol-to-ports table.
// Ports are sorted ascending and deduplicated per protocol. Every declared
// protocol must map to at least one port.
func NewMatrix(ports map[model.Protocol][]uint16) (*Matrix, error) {
	normalized := make(map[model.Protocol][]uint16, len(ports))
	for protocol, list := range ports {
		if !protocol.Valid() {
			return nil, fmt.Errorf("matrix: invalid protocol %d", int(protocol))
		}
		if len(list) == 0 {
			return nil, fmt.Errorf("matrix: protocol %s has no ports", protocol)
		}
		sorted := slices.Clone(list)
		slices.Sort(sorted)
		sorted = slices.Compact(sorted)
		for _, port := range sorted {
			if port == 0 {
				return nil, fmt.Errorf("matrix: protocol %s has port 0", protocol)
			}
		}
		normalized[protocol] = sorted
	}
	if len(normalized) == 0 {
		return nil, fmt.Errorf("matrix: no protocols configured")
	}
	return &Matrix{ports: normalized}, nil
}

// Protocols returns the configured protocols in declaration order.
func (m *Matrix) Protocols() []model.Protocol {
	protocols := make([]model.Protocol, 0, len(m.ports))
	for _, p := range model.Protocols() {
		if _, ok := m.ports[p]; ok {
			protocols = append(protocols, p)
		}
	}
	return protocols
}

// Ports returns the candidate ports for the protocol, ascending.
// The returned slice is a copy.
func (m *Matrix) Ports(protocol model.Protocol) []uint16 {
	return slices.Clone(m.ports[protocol])
}

// ProtocolsFor returns every protocol probed on the given port,
// in declaration order.
func (m *Matrix) ProtocolsFor(port uint16) []model.Protocol {
	var protocols []model.Protocol
	for _, p := range m.Protocols() {
		if slices.Contains(m.ports[p], port) {
			protocols = append(protocols, p)
		}
	}
	return protocols
}

// UnitsPerHost returns the number of work units generated per host.
func (m *Matrix) UnitsPerHost() int {
	n := 0
	for _, list := range m.ports {
		n += len(list)
	}
	return n
}

// WorkUnits crosses the host list with the matrix.
// Order is (host ascending as given, protocol declaration order, port
// ascending); len(result) == len(hosts) * UnitsPerHost().
func (m *Matrix) WorkUnits(hosts []netip.Addr) []model.WorkUnit {
	units := make([]model.WorkUnit, 0, len(hosts)*m.UnitsPerHost())
	for _, host := range hosts {
		for _, protocol := range m.Protocols() {
			for _, port := range m.ports[protocol] {
				units = append(units, model.WorkUnit{
					Host:     host,
					Port:     port,
					Protocol: protocol,
				})
			}
		}
	}
	return units
}
