package probe

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/proxy"

	"github.com/DapperHoldings/streamhunter/internal/model"
)

// DefaultRTSPPath is the well-known stream path used to build the OPTIONS
// request and the reported URL. Real device layouts vary wildly (cameras
// use /live, /ch01, /av0_0, ...); OPTIONS does not require the path to
// exist, so one conventional default is enough for existence detection.
const DefaultRTSPPath = "stream"

// RTSPProber detects RTSP servers by sending an OPTIONS request and
// reading the status line.
//
// Design decision: We use raw TCP rather than an RTSP library because:
//  1. We only need the status line, not session negotiation
//  2. A server is confirmed by any well-formed RTSP response
//  3. Minimizes dependencies for a four-line exchange
type RTSPProber struct {
	// dialer establishes the TCP connection. Direct by default.
	dialer proxy.Dialer

	// timeout bounds the connect plus handshake exchange.
	timeout time.Duration

	// path is the stream path used in the request and reported URL.
	path string
}

// RTSPOption configures an RTSPProber.
type RTSPOption func(*RTSPProber)

// WithRTSPTimeout sets the per-probe timeout.
func WithRTSPTimeout(timeout time.Duration) RTSPOption {
	return func(p *RTSPProber) {
		p.timeout = timeout
	}
}

// WithRTSPPath sets the stream path probed and reported.
// The leading slash is optional.
func WithRTSPPath(path string) RTSPOption {
	return func(p *RTSPProber) {
		p.path = strings.TrimPrefix(path, "/")
	}
}

// NewRTSPProber creates an RTSP prober using the given dialer.
func NewRTSPProber(dialer proxy.Dialer, opts ...RTSPOption) *RTSPProber {
	p := &RTSPProber{
		dialer:  dialer,
		timeout: DefaultTimeout,
		path:    DefaultRTSPPath,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Protocol returns the probed protocol.
func (p *RTSPProber) Protocol() model.Protocol {
	return model.ProtocolRTSP
}

// DefaultPorts returns the conventional RTSP ports.
func (p *RTSPProber) DefaultPorts() []uint16 {
	return []uint16{554, 8554}
}

// Probe connects to (host, port), sends an OPTIONS request, and classifies
// the first response line. Any recognized RTSP status line counts as Found:
// even a 401 or 454 proves an RTSP speaker is listening.
func (p *RTSPProber) Probe(ctx context.Context, host netip.Addr, port uint16) (*Result, error) {
	result := NewResult(model.ProtocolRTSP, host, port)

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

	url := fmt.Sprintf("rtsp://%s/%s", addr, p.path)
	request := fmt.Sprintf("OPTIONS %s RTSP/1.0\r\nCSeq: 1\r\n\r\n", url)
	if _, err := conn.Write([]byte(request)); err != nil {
		result.ErrKind = Classify(err)
		return result, nil
	}

	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		if kind := Classify(err); kind == ErrorTimeout {
			result.ErrKind = ErrorTimeout
		} else {
			// Connected but hung up or spoke something else.
			result.ErrKind = ErrorProtocolMismatch
		}
		return result, nil
	}

	if !isRTSPStatusLine(line) {
		result.ErrKind = ErrorProtocolMismatch
		return result, nil
	}

	result.Found = true
	result.URL = url
	return result, nil
}

// isRTSPStatusLine reports whether line is a well-formed RTSP status line,
// e.g. "RTSP/1.0 200 OK".
func isRTSPStatusLine(line string) bool {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "RTSP/1.0 ") && !strings.HasPrefix(line, "RTSP/1.1 ") {
		return false
	}

	fields := strings.Fields(line)
	if len(fields) < 2 || len(fields[1]) != 3 {
		return false
	}
	code, err := strconv.Atoi(fields[1])
	return err == nil && code >= 100 && code <= 599
}
