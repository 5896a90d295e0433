package discovery

import (
	"context"
	"fmt"
	"net/netip"
	"slices"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceDomain is the mDNS domain (typically "local.").
	ServiceDomain = "local."

	// DefaultBrowseTimeout is the default window to wait for mDNS answers.
	// Most responders answer within a few seconds; ten catches stragglers.
	DefaultBrowseTimeout = 10 * time.Second
)

// DefaultServices are the DNS-SD service types browsed for streaming hosts.
// RTSP cameras advertise _rtsp._tcp directly; HLS/DASH servers and many
// set-top boxes show up under the generic _http._tcp.
func DefaultServices() []string {
	return []string{"_rtsp._tcp", "_http._tcp"}
}

// Browser discovers streaming-capable hosts via mDNS.
type Browser struct {
	services []string
	timeout  time.Duration
}

// BrowserOption configures a Browser.
type BrowserOption func(*Browser)

// WithBrowseTimeout sets the browse window for each discovery run.
func WithBrowseTimeout(timeout time.Duration) BrowserOption {
	return func(b *Browser) {
		if timeout > 0 {
			b.timeout = timeout
		}
	}
}

// WithServices replaces the DNS-SD service types to browse.
func WithServices(services []string) BrowserOption {
	return func(b *Browser) {
		if len(services) > 0 {
			b.services = services
		}
	}
}

// NewBrowser creates a Browser with default settings.
func NewBrowser(opts ...BrowserOption) *Browser {
	b := &Browser{
		services: DefaultServices(),
		timeout:  DefaultBrowseTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Hosts browses all configured service types within a single window and
// returns the deduplicated, sorted IPv4 addresses of the responders. The
// window lasts until the timeout elapses or ctx is cancelled, whichever
// comes first; addresses collected up to that point are returned.
func (b *Browser) Hosts(ctx context.Context) ([]netip.Addr, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	var (
		mu   sync.Mutex
		seen = make(map[netip.Addr]struct{})
		done = make([]chan struct{}, 0, len(b.services))
	)

	for _, service := range b.services {
		resolver, err := zeroconf.NewResolver(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
		}

		// zeroconf closes the channel when the browse context ends,
		// so the collector goroutine always terminates.
		entries := make(chan *zeroconf.ServiceEntry)
		collected := make(chan struct{})
		done = append(done, collected)
		go func() {
			defer close(collected)
			for entry := range entries {
				if addr, ok := parseEntry(entry); ok {
					mu.Lock()
					seen[addr] = struct{}{}
					mu.Unlock()
				}
			}
		}()

		if err := resolver.Browse(ctx, service, ServiceDomain, entries); err != nil {
			return nil, fmt.Errorf("failed to browse for %s services: %w", service, err)
		}
	}

	<-ctx.Done()
	for _, collected := range done {
		<-collected
	}

	hosts := make([]netip.Addr, 0, len(seen))
	for addr := range seen {
		hosts = append(hosts, addr)
	}
	slices.SortFunc(hosts, netip.Addr.Compare)

	return hosts, nil
}

// parseEntry extracts the first usable IPv4 address from a service entry.
// IPv6-only responders are skipped because the scan matrix targets IPv4 LANs.
func parseEntry(entry *zeroconf.ServiceEntry) (netip.Addr, bool) {
	if entry == nil {
		return netip.Addr{}, false
	}
	for _, ip := range entry.AddrIPv4 {
		addr, ok := netip.AddrFromSlice(ip)
		if !ok {
			continue
		}
		addr = addr.Unmap()
		if addr.Is4() {
			return addr, true
		}
	}
	return netip.Addr{}, false
}
