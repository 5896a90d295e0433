package probe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/DapperHoldings/streamhunter/internal/model"
)

// DefaultHLSPaths are the conventional manifest locations tried in order.
// These are reference heuristics, not protocol law; override them via
// configuration when a deployment uses a different layout.
var DefaultHLSPaths = []string{
	"stream/index.m3u8",
	"live/index.m3u8",
	"hls/index.m3u8",
	"live/playlist.m3u8",
}

// hlsContentTypes are the manifest media types that confirm HLS even when
// the body marker is missing.
var hlsContentTypes = []string{
	"application/vnd.apple.mpegurl",
	"application/x-mpegurl",
	"audio/mpegurl",
}

// hlsMarker is the mandatory first tag of an HLS playlist.
var hlsMarker = []byte("#EXTM3U")

// HLSProber detects HLS endpoints by fetching conventional manifest paths.
//
// Design decision: We require an external http.Client rather than creating
// one internally because:
//  1. Transport configuration (dialer, timeouts) stays in one place
//  2. Connection pooling can be shared with the DASH prober
//  3. Tests can inject an httptest client
type HLSProber struct {
	// client issues the manifest requests.
	client *http.Client

	// timeout bounds the whole unit: all paths share one budget.
	timeout time.Duration

	// paths are the manifest paths tried in order, without leading slash.
	paths []string

	// maxManifest limits how much of a response body is read for
	// classification. Manifests are small; 64KB is generous.
	maxManifest int64
}

// HLSOption configures an HLSProber.
type HLSOption func(*HLSProber)

// WithHLSTimeout sets the per-probe timeout.
func WithHLSTimeout(timeout time.Duration) HLSOption {
	return func(p *HLSProber) {
		p.timeout = timeout
	}
}

// WithHLSPaths replaces the manifest paths tried during a probe.
// Empty input keeps the defaults.
func WithHLSPaths(paths []string) HLSOption {
	return func(p *HLSProber) {
		if len(paths) > 0 {
			p.paths = normalizePaths(paths)
		}
	}
}

// NewHLSProber creates an HLS prober using the given HTTP client.
func NewHLSProber(client *http.Client, opts ...HLSOption) *HLSProber {
	p := &HLSProber{
		client:      client,
		timeout:     DefaultTimeout,
		paths:       DefaultHLSPaths,
		maxManifest: 64 * 1024,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Protocol returns the probed protocol.
func (p *HLSProber) Protocol() model.Protocol {
	return model.ProtocolHLS
}

// DefaultPorts returns the conventional HLS ports.
func (p *HLSProber) DefaultPorts() []uint16 {
	return []uint16{1935, 8080, 8081}
}

// Probe fetches each manifest path until one classifies as an HLS playlist.
// Success requires a 2xx status plus either the #EXTM3U body marker or an
// HLS manifest content type.
func (p *HLSProber) Probe(ctx context.Context, host netip.Addr, port uint16) (*Result, error) {
	result := NewResult(model.ProtocolHLS, host, port)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	addr := net.JoinHostPort(host.String(), strconv.Itoa(int(port)))
	for _, path := range p.paths {
		url := fmt.Sprintf("http://%s/%s", addr, path)

		body, contentType, status, err := fetchManifest(ctx, p.client, url, p.maxManifest)
		if err != nil {
			result.ErrKind = Classify(err)
			// A dead port fails identically for every path; stop early.
			return result, nil
		}
		if status < 200 || status >= 300 {
			continue
		}

		if isHLSManifest(body, contentType) {
			result.Found = true
			result.URL = url
			return result, nil
		}

		// Served something on a manifest path, but not a playlist.
		result.ErrKind = ErrorProtocolMismatch
	}

	return result, nil
}

// isHLSManifest classifies a response as an HLS playlist.
func isHLSManifest(body []byte, contentType string) bool {
	if bytes.HasPrefix(bytes.TrimSpace(body), hlsMarker) {
		return true
	}
	ct := strings.ToLower(contentType)
	for _, want := range hlsContentTypes {
		if strings.Contains(ct, want) {
			return true
		}
	}
	return false
}

// fetchManifest GETs url and returns up to maxBody bytes of the response.
// Shared by the HLS and DASH probers.
func fetchManifest(ctx context.Context, client *http.Client, url string, maxBody int64) (body []byte, contentType string, status int, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", 0, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", 0, err
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, "", 0, err
	}

	return body, resp.Header.Get("Content-Type"), resp.StatusCode, nil
}

// normalizePaths strips leading slashes and drops empty entries.
func normalizePaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, path := range paths {
		path = strings.TrimPrefix(strings.TrimSpace(path), "/")
		if path != "" {
			out = append(out, path)
		}
	}
	return out
}
