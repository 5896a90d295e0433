package model

import (
	"net"
	"net/netip"
	"strconv"
	"time"
)

// WorkUnit is the unit of scheduling: one (host, port, protocol) probe task.
// Work units are created by crossing the host list with the port/protocol
// matrix and are consumed exactly once by a prober.
type WorkUnit struct {
	// Host is the IPv4 address to probe. Immutable once enumerated.
	Host netip.Addr

	// Port is the TCP port to probe.
	Port uint16

	// Protocol selects the probe strategy for this unit.
	Protocol Protocol
}

// Addr returns the unit's "host:port" dial address.
func (u WorkUnit) Addr() string {
	return net.JoinHostPort(u.Host.String(), strconv.Itoa(int(u.Port)))
}

// String returns a human-readable form used in logs.
func (u WorkUnit) String() string {
	return u.Protocol.String() + "://" + u.Addr()
}

// Stream is a confirmed streaming endpoint discovered during a scan.
type Stream struct {
	// URL is the protocol-correct stream URI
	// (e.g. rtsp://192.168.1.10:554/stream).
	// Streams are deduplicated by exact URL string equality.
	URL string `json:"url"`

	// Protocol is the protocol that confirmed the endpoint.
	Protocol Protocol `json:"protocol"`

	// Host is the endpoint's IPv4 address.
	Host string `json:"host"`

	// Port is the endpoint's TCP port.
	Port uint16 `json:"port"`

	// FoundAt is the time the probe confirmed the endpoint.
	FoundAt time.Time `json:"found_at"`
}
