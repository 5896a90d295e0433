package discovery

import (
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

// TestParseEntry tests extraction of scan candidates from mDNS answers.
func TestParseEntry(t *testing.T) {
	t.Parallel()

	t.Run("ipv4 responder", func(t *testing.T) {
		t.Parallel()

		entry := &zeroconf.ServiceEntry{
			AddrIPv4: []net.IP{net.ParseIP("192.168.1.50")},
		}

		addr, ok := parseEntry(entry)
		if !ok {
			t.Fatal("expected entry to parse")
		}
		if want := netip.MustParseAddr("192.168.1.50"); addr != want {
			t.Errorf("expected %s, got %s", want, addr)
		}
	})

	t.Run("first ipv4 wins when several are advertised", func(t *testing.T) {
		t.Parallel()

		entry := &zeroconf.ServiceEntry{
			AddrIPv4: []net.IP{
				net.ParseIP("10.0.0.7"),
				net.ParseIP("192.168.1.7"),
			},
		}

		addr, ok := parseEntry(entry)
		if !ok {
			t.Fatal("expected entry to parse")
		}
		if want := netip.MustParseAddr("10.0.0.7"); addr != want {
			t.Errorf("expected %s, got %s", want, addr)
		}
	})

	t.Run("ipv6-only responder is skipped", func(t *testing.T) {
		t.Parallel()

		entry := &zeroconf.ServiceEntry{
			AddrIPv6: []net.IP{net.ParseIP("fe80::1")},
		}

		if _, ok := parseEntry(entry); ok {
			t.Error("expected ipv6-only entry to be skipped")
		}
	})

	t.Run("entry without addresses is skipped", func(t *testing.T) {
		t.Parallel()

		if _, ok := parseEntry(&zeroconf.ServiceEntry{}); ok {
			t.Error("expected empty entry to be skipped")
		}
	})

	t.Run("nil entry is skipped", func(t *testing.T) {
		t.Parallel()

		if _, ok := parseEntry(nil); ok {
			t.Error("expected nil entry to be skipped")
		}
	})
}

// TestNewBrowser tests option handling.
func TestNewBrowser(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		b := NewBrowser()
		if b.timeout != DefaultBrowseTimeout {
			t.Errorf("expected default timeout, got %v", b.timeout)
		}
		if len(b.services) != 2 {
			t.Errorf("expected 2 default services, got %v", b.services)
		}
	})

	t.Run("options override defaults", func(t *testing.T) {
		t.Parallel()

		b := NewBrowser(
			WithBrowseTimeout(2*time.Second),
			WithServices([]string{"_rtsp._tcp"}),
		)
		if b.timeout != 2*time.Second {
			t.Errorf("expected 2s timeout, got %v", b.timeout)
		}
		if len(b.services) != 1 || b.services[0] != "_rtsp._tcp" {
			t.Errorf("unexpected services: %v", b.services)
		}
	})

	t.Run("zero timeout is ignored", func(t *testing.T) {
		t.Parallel()

		b := NewBrowser(WithBrowseTimeout(0))
		if b.timeout != DefaultBrowseTimeout {
			t.Errorf("expected default timeout, got %v", b.timeout)
		}
	})

	t.Run("empty service list is ignored", func(t *testing.T) {
		t.Parallel()

		b := NewBrowser(WithServices(nil))
		if len(b.services) != 2 {
			t.Errorf("expected default services, got %v", b.services)
		}
	})
}
