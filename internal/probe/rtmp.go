package probe

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"net"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/proxy"

	"github.com/DapperHoldings/streamhunter/internal/model"
)

const (
	// rtmpVersion is the only RTMP version in real-world use.
	rtmpVersion = 0x03

	// rtmpHandshakeSize is the size of the C1/S1 handshake payload.
	rtmpHandshakeSize = 1536
)

// DefaultRTMPApp is the application path guess used in reported URLs.
// The handshake proves an RTMP server exists; it says nothing about the
// application layout, so the URL's path is a conventional guess.
const DefaultRTMPApp = "live"

// RTMPProber detects RTMP servers by completing the first handshake step:
// it sends C0+C1 and accepts the endpoint once S0 arrives with a valid
// version byte.
type RTMPProber struct {
	// dialer establishes the TCP connection. Direct by default.
	dialer proxy.Dialer

	// timeout bounds the connect plus handshake exchange.
	timeout time.Duration

	// app is the application path used in reported URLs.
	app string
}

// RTMPOption configures an RTMPProber.
type RTMPOption func(*RTMPProber)

// WithRTMPTimeout sets the per-probe timeout.
func WithRTMPTimeout(timeout time.Duration) RTMPOption {
	return func(p *RTMPProber) {
		p.timeout = timeout
	}
}

// WithRTMPApp sets the application path guess used in reported URLs.
// The leading slash is optional.
func WithRTMPApp(app string) RTMPOption {
	return func(p *RTMPProber) {
		p.app = strings.TrimPrefix(app, "/")
	}
}

// NewRTMPProber creates an RTMP prober using the given dialer.
func NewRTMPProber(dialer proxy.Dialer, opts ...RTMPOption) *RTMPProber {
	p := &RTMPProber{
		dialer:  dialer,
		timeout: DefaultTimeout,
		app:     DefaultRTMPApp,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Protocol returns the probed protocol.
func (p *RTMPProber) Protocol() model.Protocol {
	return model.ProtocolRTMP
}

// DefaultPorts returns the conventional RTMP ports.
func (p *RTMPProber) DefaultPorts() []uint16 {
	return []uint16{1935, 1936}
}

// Probe connects to (host, port), sends the C0+C1 handshake, and reads S0.
// A version byte of 3 confirms the endpoint; anything else is a mismatch.
func (p *RTMPProber) Probe(ctx context.Context, host netip.Addr, port uint16) (*Result, error) {
	result := NewResult(model.ProtocolRTMP, host, port)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	addr := net.JoinHostPort(host.String(), strconv.Itoa(int(port)))
	conn, err := dialContext(ctx, p.dialer, "tcp", addr)
	if err != nil {
		result.ErrKind = Classify(err)
		return result, nil
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			result.ErrKind = ErrorProtocolMismatch
			return result, nil
		}
	}

	if _, err := conn.Write(buildC0C1()); err != nil {
		result.ErrKind = Classify(err)
		return result, nil
	}

	s0 := make([]byte, 1)
	if _, err := io.ReadFull(conn, s0); err != nil {
		if kind := Classify(err); kind == ErrorTimeout {
			result.ErrKind = ErrorTimeout
		} else {
			result.ErrKind = ErrorProtocolMismatch
		}
		return result, nil
	}

	if s0[0] != rtmpVersion {
		result.ErrKind = ErrorProtocolMismatch
		return result, nil
	}

	result.Found = true
	result.URL = fmt.Sprintf("rtmp://%s/%s", addr, p.app)
	return result, nil
}

// buildC0C1 assembles the client half of the first handshake step:
// one version byte followed by 1536 bytes of timestamp, zero, and random
// filler. Servers only validate the version, so the filler content is
// irrelevant beyond being present.
func buildC0C1() []byte {
	msg := make([]byte, 1+rtmpHandshakeSize)
	msg[0] = rtmpVersion
	// Bytes 1-8 are timestamp and a zero field; already zero.
	_, _ = rand.Read(msg[9:])
	return msg
}
