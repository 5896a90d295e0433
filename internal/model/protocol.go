package model

import (
	"fmt"
	"strings"
)

// Protocol identifies one of the streaming protocols the scanner probes for.
//
// Design decision: We use a closed integer enumeration rather than free-form
// strings because:
//  1. The protocol set is fixed; there is no runtime extension
//  2. A switch over Protocol values can be checked for exhaustiveness
//  3. Invalid values are detectable via Valid()
type Protocol int

// Supported protocols, in declaration order.
// Work units are generated in this order, which fixes scan determinism
// and the total work-unit count for a given host list.
const (
	// ProtocolRTSP is the Real Time Streaming Protocol (default port 554).
	ProtocolRTSP Protocol = iota

	// ProtocolHLS is HTTP Live Streaming, detected via .m3u8 manifests.
	ProtocolHLS

	// ProtocolDASH is MPEG-DASH, detected via .mpd manifests.
	ProtocolDASH

	// ProtocolRTMP is the Real Time Messaging Protocol (default port 1935).
	ProtocolRTMP
)

// Protocols returns all supported protocols in declaration order.
// The returned slice is a fresh copy; callers may modify it.
func Protocols() []Protocol {
	return []Protocol{ProtocolRTSP, ProtocolHLS, ProtocolDASH, ProtocolRTMP}
}

// String returns the lowercase protocol name (e.g., "rtsp").
func (p Protocol) String() string {
	switch p {
	case ProtocolRTSP:
		return "rtsp"
	case ProtocolHLS:
		return "hls"
	case ProtocolDASH:
		return "dash"
	case ProtocolRTMP:
		return "rtmp"
	default:
		return fmt.Sprintf("protocol(%d)", int(p))
	}
}

// Scheme returns the URI scheme used when constructing stream URLs.
// HLS and DASH streams are served over plain HTTP manifests.
func (p Protocol) Scheme() string {
	switch p {
	case ProtocolHLS, ProtocolDASH:
		return "http"
	default:
		return p.String()
	}
}

// Valid reports whether p is one of the declared protocol constants.
func (p Protocol) Valid() bool {
	return p >= ProtocolRTSP && p <= ProtocolRTMP
}

// ParseProtocol converts a protocol name to a Protocol value.
// Matching is case-insensitive. It returns an error for unknown names,
// which is used to reject bad keys in the ports-override config file.
func ParseProtocol(name string) (Protocol, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "rtsp":
		return ProtocolRTSP, nil
	case "hls":
		return ProtocolHLS, nil
	case "dash":
		return ProtocolDASH, nil
	case "rtmp":
		return ProtocolRTMP, nil
	default:
		return 0, fmt.Errorf("unknown protocol %q (supported: rtsp, hls, dash, rtmp)", name)
	}
}

// MarshalText implements encoding.TextMarshaler so Protocol values
// serialize as names in JSON reports and database rows.
func (p Protocol) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid protocol %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Protocol) UnmarshalText(text []byte) error {
	parsed, err := ParseProtocol(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
