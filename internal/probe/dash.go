package probe

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/DapperHoldings/streamhunter/internal/model"
)

// DefaultDASHPaths are the conventional MPD manifest locations tried in
// order. Like the HLS paths, these are configurable heuristics.
var DefaultDASHPaths = []string{
	"stream/manifest.mpd",
	"live/manifest.mpd",
	"dash/manifest.mpd",
	"manifest.mpd",
}

// dashContentType is the MPEG-DASH manifest media type.
const dashContentType = "application/dash+xml"

// DASHProber detects MPEG-DASH endpoints by fetching conventional .mpd
// manifest paths. It shares the HTTP strategy (and client) of the HLS
// prober; only the classification differs.
type DASHProber struct {
	client      *http.Client
	timeout     time.Duration
	paths       []string
	maxManifest int64
}

// DASHOption configures a DASHProber.
type DASHOption func(*DASHProber)

// WithDASHTimeout sets the per-probe timeout.
func WithDASHTimeout(timeout time.Duration) DASHOption {
	return func(p *DASHProber) {
		p.timeout = timeout
	}
}

// WithDASHPaths replaces the manifest paths tried during a probe.
// Empty input keeps the defaults.
func WithDASHPaths(paths []string) DASHOption {
	return func(p *DASHProber) {
		if len(paths) > 0 {
			p.paths = normalizePaths(paths)
		}
	}
}

// NewDASHProber creates a DASH prober using the given HTTP client.
func NewDASHProber(client *http.Client, opts ...DASHOption) *DASHProber {
	p := &DASHProber{
		client:      client,
		timeout:     DefaultTimeout,
		paths:       DefaultDASHPaths,
		maxManifest: 64 * 1024,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Protocol returns the probed protocol.
func (p *DASHProber) Protocol() model.Protocol {
	return model.ProtocolDASH
}

// DefaultPorts returns the conventional DASH ports.
func (p *DASHProber) DefaultPorts() []uint16 {
	return []uint16{80, 8080}
}

// Probe fetches each manifest path until one classifies as an MPD document.
// Success requires a 2xx status plus either an MPD XML root element or the
// DASH manifest content type.
func (p *DASHProber) Probe(ctx context.Context, host netip.Addr, port uint16) (*Result, error) {
	result := NewResult(model.ProtocolDASH, host, port)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	addr := net.JoinHostPort(host.String(), strconv.Itoa(int(port)))
	for _, path := range p.paths {
		url := fmt.Sprintf("http://%s/%s", addr, path)

		body, contentType, status, err := fetchManifest(ctx, p.client, url, p.maxManifest)
		if err != nil {
			result.ErrKind = Classify(err)
			return result, nil
		}
		if status < 200 || status >= 300 {
			continue
		}

		if isDASHManifest(body, contentType) {
			result.Found = true
			result.URL = url
			return result, nil
		}

		result.ErrKind = ErrorProtocolMismatch
	}

	return result, nil
}

// isDASHManifest classifies a response as an MPD document: the body must
// begin with an MPD root element (optionally preceded by an XML
// declaration), or the content type must be application/dash+xml.
func isDASHManifest(body []byte, contentType string) bool {
	if strings.Contains(strings.ToLower(contentType), dashContentType) {
		return true
	}

	trimmed := bytes.TrimSpace(body)
	if bytes.HasPrefix(trimmed, []byte("<?xml")) {
		if end := bytes.Index(trimmed, []byte("?>")); end != -1 {
			trimmed = bytes.TrimSpace(trimmed[end+2:])
		}
	}
	return bytes.HasPrefix(trimmed, []byte("<MPD"))
}
