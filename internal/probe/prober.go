package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strings"
	"syscall"
	"time"

	"golang.org/x/net/proxy"

	"github.com/DapperHoldings/streamhunter/internal/model"
)

// DefaultTimeout is the default per-probe timeout.
// LAN round trips are short; three seconds tolerates slow embedded
// devices (IP cameras, set-top boxes) without stalling the scan.
const DefaultTimeout = 3 * time.Second

// ErrorKind classifies non-fatal probe failures.
// All kinds are final for the unit within one scan run; no unit is retried.
type ErrorKind int

const (
	// ErrorNone means the probe resolved without a network fault
	// (the endpoint was either found or cleanly absent).
	ErrorNone ErrorKind = iota

	// ErrorTimeout means the connect or handshake exceeded the per-probe timeout.
	ErrorTimeout

	// ErrorConnectionRefused means the host actively refused the connection.
	ErrorConnectionRefused

	// ErrorUnreachableHost means no route to the host or network.
	ErrorUnreachableHost

	// ErrorProtocolMismatch means the port accepted the connection but the
	// handshake data was malformed or belonged to another protocol.
	ErrorProtocolMismatch
)

// String returns the error kind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrorNone:
		return "none"
	case ErrorTimeout:
		return "timeout"
	case ErrorConnectionRefused:
		return "connection refused"
	case ErrorUnreachableHost:
		return "unreachable host"
	case ErrorProtocolMismatch:
		return "protocol mismatch"
	default:
		return fmt.Sprintf("error(%d)", int(k))
	}
}

// Result is the outcome of probing one (host, port) pair for one protocol.
// Exactly one Result exists per work unit.
type Result struct {
	// Protocol is the probed protocol.
	Protocol model.Protocol

	// Host is the probed address.
	Host netip.Addr

	// Port is the probed TCP port.
	Port uint16

	// Found reports whether the handshake confirmed a streaming endpoint.
	Found bool

	// URL is the protocol-correct stream URI. Set only when Found is true.
	URL string

	// ErrKind records the failure class for NotFound outcomes.
	// ErrorNone with Found=false means a clean negative (e.g. HTTP 404).
	ErrKind ErrorKind
}

// NewResult creates a Result for the given unit with no detection.
func NewResult(protocol model.Protocol, host netip.Addr, port uint16) *Result {
	return &Result{
		Protocol: protocol,
		Host:     host,
		Port:     port,
	}
}

// Stream converts a Found result into a model.Stream record.
// It panics if called on a result that found nothing; callers gate on Found.
func (r *Result) Stream(foundAt time.Time) model.Stream {
	if !r.Found {
		panic("probe: Stream called on a result with no detection")
	}
	return model.Stream{
		URL:      r.URL,
		Protocol: r.Protocol,
		Host:     r.Host.String(),
		Port:     r.Port,
		FoundAt:  foundAt,
	}
}

// Prober resolves one work unit to a Result via a protocol-specific
// handshake. Implementations must respect context cancellation and must
// bound every probe with their configured timeout.
//
// Design decision: We use an interface rather than a concrete type because:
//  1. Handshakes differ vastly between protocols
//  2. Allows for stub probers in engine tests
//  3. The engine can treat all protocols uniformly
type Prober interface {
	// Probe performs the handshake against (host, port).
	// Network faults are recorded in the Result, not returned; the error
	// return is reserved for programming errors and is normally nil.
	Probe(ctx context.Context, host netip.Addr, port uint16) (*Result, error)

	// Protocol returns the protocol this prober detects.
	Protocol() model.Protocol

	// DefaultPorts returns the conventional ports for this protocol.
	DefaultPorts() []uint16
}

// Registry maps each protocol to its prober.
type Registry map[model.Protocol]Prober

// NewRegistry builds a Registry from the given probers.
// A later prober for the same protocol replaces an earlier one.
func NewRegistry(probers ...Prober) Registry {
	r := make(Registry, len(probers))
	for _, p := range probers {
		r[p.Protocol()] = p
	}
	return r
}

// For returns the prober registered for the protocol.
func (r Registry) For(protocol model.Protocol) (Prober, bool) {
	p, ok := r[protocol]
	return p, ok
}

// Classify maps a network error to its ErrorKind.
// Unrecognized errors classify as unreachable: the host did not take part
// in a handshake, so the unit is a clean negative rather than a mismatch.
func Classify(err error) ErrorKind {
	if err == nil {
		return ErrorNone
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorTimeout
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return ErrorConnectionRefused
	}
	if errors.Is(err, syscall.EHOSTUNREACH) || errors.Is(err, syscall.ENETUNREACH) {
		return ErrorUnreachableHost
	}

	// Some platforms surface refusal without a wrapped errno.
	if strings.Contains(err.Error(), "refused") {
		return ErrorConnectionRefused
	}

	return ErrorUnreachableHost
}

// dialContext dials a connection respecting context cancellation.
//
// Design decision: We accept a proxy.Dialer rather than net.Dialer because
// probers take an injected dialer (direct by default, SOCKS5 when scanning
// through a jump host), and proxy.Dialer is the common interface both
// satisfy. When the dialer also implements DialContext we use it directly;
// otherwise the dial runs in a goroutine so cancellation is still honored.
func dialContext(ctx context.Context, dialer proxy.Dialer, network, address string) (net.Conn, error) {
	if cd, ok := dialer.(proxy.ContextDialer); ok {
		return cd.DialContext(ctx, network, address)
	}

	type dialResult struct {
		conn net.Conn
		err  error
	}

	resultCh := make(chan dialResult, 1)

	go func() {
		conn, err := dialer.Dial(network, address)
		resultCh <- dialResult{conn, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case result := <-resultCh:
		return result.conn, result.err
	}
}
