package probe

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strconv"
	"testing"
	"time"
)

// testAddr extracts the netip address and port from a listener.
func testAddr(t *testing.T, addr net.Addr) (netip.Addr, uint16) {
	t.Helper()

	tcpAddr, ok := addr.(*net.TCPAddr)
	if !ok {
		t.Fatalf("expected *net.TCPAddr, got %T", addr)
	}
	ap := tcpAddr.AddrPort()
	return ap.Addr().Unmap(), ap.Port()
}

// closedPort returns the address of a port that was just released, so
// connecting to it is refused.
func closedPort(t *testing.T) (netip.Addr, uint16) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve port: %v", err)
	}
	host, port := testAddr(t, ln.Addr())
	_ = ln.Close()
	return host, port
}

// TestRTSPProber tests RTSP handshake classification.
func TestRTSPProber(t *testing.T) {
	t.Parallel()

	t.Run("recognized status line is found", func(t *testing.T) {
		t.Parallel()

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("failed to listen: %v", err)
		}
		defer ln.Close()

		go func() {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
			buf := make([]byte, 512)
			_, _ = conn.Read(buf)
			_, _ = conn.Write([]byte("RTSP/1.0 200 OK\r\nCSeq: 1\r\nPublic: OPTIONS, DESCRIBE\r\n\r\n"))
		}()

		host, port := testAddr(t, ln.Addr())
		prober := NewRTSPProber(&net.Dialer{}, WithRTSPPath("live"))

		result, err := prober.Probe(context.Background(), host, port)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Found {
			t.Fatalf("expected found, got error kind %s", result.ErrKind)
		}
		if result.URL != "rtsp://"+result.Host.String()+":"+itoa(port)+"/live" {
			t.Errorf("unexpected URL %q", result.URL)
		}
	})

	t.Run("unauthorized still proves an RTSP speaker", func(t *testing.T) {
		t.Parallel()

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("failed to listen: %v", err)
		}
		defer ln.Close()

		go func() {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
			buf := make([]byte, 512)
			_, _ = conn.Read(buf)
			_, _ = conn.Write([]byte("RTSP/1.0 401 Unauthorized\r\nCSeq: 1\r\n\r\n"))
		}()

		host, port := testAddr(t, ln.Addr())
		prober := NewRTSPProber(&net.Dialer{})

		result, err := prober.Probe(context.Background(), host, port)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Found {
			t.Errorf("expected found for 401 response, got error kind %s", result.ErrKind)
		}
	})

	t.Run("non-RTSP response is a protocol mismatch", func(t *testing.T) {
		t.Parallel()

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("failed to listen: %v", err)
		}
		defer ln.Close()

		go func() {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
			buf := make([]byte, 512)
			_, _ = conn.Read(buf)
			_, _ = conn.Write([]byte("SSH-2.0-OpenSSH_9.6\r\n"))
		}()

		host, port := testAddr(t, ln.Addr())
		prober := NewRTSPProber(&net.Dialer{})

		result, err := prober.Probe(context.Background(), host, port)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Found {
			t.Error("expected not found")
		}
		if result.ErrKind != ErrorProtocolMismatch {
			t.Errorf("expected protocol mismatch, got %s", result.ErrKind)
		}
	})

	t.Run("refused connection classifies as connection refused", func(t *testing.T) {
		t.Parallel()

		host, port := closedPort(t)
		prober := NewRTSPProber(&net.Dialer{}, WithRTSPTimeout(time.Second))

		result, err := prober.Probe(context.Background(), host, port)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Found {
			t.Error("expected not found")
		}
		if result.ErrKind != ErrorConnectionRefused {
			t.Errorf("expected connection refused, got %s", result.ErrKind)
		}
	})

	t.Run("silent server classifies as timeout", func(t *testing.T) {
		t.Parallel()

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("failed to listen: %v", err)
		}
		defer ln.Close()

		go func() {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			// Hold the connection open without responding.
			defer conn.Close()
			time.Sleep(2 * time.Second)
		}()

		host, port := testAddr(t, ln.Addr())
		prober := NewRTSPProber(&net.Dialer{}, WithRTSPTimeout(200*time.Millisecond))

		start := time.Now()
		result, err := prober.Probe(context.Background(), host, port)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.ErrKind != ErrorTimeout {
			t.Errorf("expected timeout, got %s", result.ErrKind)
		}
		if elapsed := time.Since(start); elapsed > time.Second {
			t.Errorf("probe exceeded its timeout budget: %s", elapsed)
		}
	})
}

// TestHLSProber tests HLS manifest classification.
func TestHLSProber(t *testing.T) {
	t.Parallel()

	t.Run("EXTM3U manifest is found", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/live/index.m3u8" {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write([]byte("#EXTM3U\n#EXT-X-VERSION:3\n#EXT-X-STREAM-INF:BANDWIDTH=1280000\nchunk.m3u8\n"))
		}))
		defer server.Close()

		host, port := testAddr(t, server.Listener.Addr())
		prober := NewHLSProber(&http.Client{})

		result, err := prober.Probe(context.Background(), host, port)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Found {
			t.Fatalf("expected found, got error kind %s", result.ErrKind)
		}
		wantSuffix := "/live/index.m3u8"
		if len(result.URL) < len(wantSuffix) || result.URL[len(result.URL)-len(wantSuffix):] != wantSuffix {
			t.Errorf("expected URL ending in %q, got %q", wantSuffix, result.URL)
		}
	})

	t.Run("content type alone confirms a manifest", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		host, port := testAddr(t, server.Listener.Addr())
		prober := NewHLSProber(&http.Client{})

		result, err := prober.Probe(context.Background(), host, port)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Found {
			t.Errorf("expected found, got error kind %s", result.ErrKind)
		}
	})

	t.Run("404 everywhere is a clean not-found", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.NotFoundHandler())
		defer server.Close()

		host, port := testAddr(t, server.Listener.Addr())
		prober := NewHLSProber(&http.Client{})

		result, err := prober.Probe(context.Background(), host, port)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Found {
			t.Error("expected not found")
		}
		if result.ErrKind != ErrorNone {
			t.Errorf("expected no error kind, got %s", result.ErrKind)
		}
	})

	t.Run("HTML on a manifest path is a protocol mismatch", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("<html><body>admin panel</body></html>"))
		}))
		defer server.Close()

		host, port := testAddr(t, server.Listener.Addr())
		prober := NewHLSProber(&http.Client{})

		result, err := prober.Probe(context.Background(), host, port)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Found {
			t.Error("expected not found")
		}
		if result.ErrKind != ErrorProtocolMismatch {
			t.Errorf("expected protocol mismatch, got %s", result.ErrKind)
		}
	})

	t.Run("custom paths replace the defaults", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/cam/feed.m3u8" {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write([]byte("#EXTM3U\n"))
		}))
		defer server.Close()

		host, port := testAddr(t, server.Listener.Addr())
		prober := NewHLSProber(&http.Client{}, WithHLSPaths([]string{"/cam/feed.m3u8"}))

		result, err := prober.Probe(context.Background(), host, port)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Found {
			t.Errorf("expected found via custom path, got error kind %s", result.ErrKind)
		}
	})
}

// TestDASHProber tests MPD manifest classification.
func TestDASHProber(t *testing.T) {
	t.Parallel()

	t.Run("MPD document is found", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/stream/manifest.mpd" {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>` + "\n" +
				`<MPD xmlns="urn:mpeg:dash:schema:mpd:2011" type="dynamic"></MPD>`))
		}))
		defer server.Close()

		host, port := testAddr(t, server.Listener.Addr())
		prober := NewDASHProber(&http.Client{})

		result, err := prober.Probe(context.Background(), host, port)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Found {
			t.Fatalf("expected found, got error kind %s", result.ErrKind)
		}
	})

	t.Run("dash content type confirms without body", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/dash+xml")
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		host, port := testAddr(t, server.Listener.Addr())
		prober := NewDASHProber(&http.Client{})

		result, err := prober.Probe(context.Background(), host, port)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Found {
			t.Errorf("expected found, got error kind %s", result.ErrKind)
		}
	})

	t.Run("plain XML without MPD root is a mismatch", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<?xml version="1.0"?><rss version="2.0"></rss>`))
		}))
		defer server.Close()

		host, port := testAddr(t, server.Listener.Addr())
		prober := NewDASHProber(&http.Client{})

		result, err := prober.Probe(context.Background(), host, port)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Found {
			t.Error("expected not found")
		}
		if result.ErrKind != ErrorProtocolMismatch {
			t.Errorf("expected protocol mismatch, got %s", result.ErrKind)
		}
	})
}

// TestRTMPProber tests the C0/C1 handshake exchange.
func TestRTMPProber(t *testing.T) {
	t.Parallel()

	t.Run("S0 version 3 is found", func(t *testing.T) {
		t.Parallel()

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("failed to listen: %v", err)
		}
		defer ln.Close()

		go func() {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
			// Consume C0+C1 before answering, as a real server would.
			if _, err := io.ReadFull(conn, make([]byte, 1+rtmpHandshakeSize)); err != nil {
				return
			}
			s0s1 := make([]byte, 1+rtmpHandshakeSize)
			s0s1[0] = rtmpVersion
			_, _ = conn.Write(s0s1)
		}()

		host, port := testAddr(t, ln.Addr())
		prober := NewRTMPProber(&net.Dialer{}, WithRTMPApp("broadcast"))

		result, err := prober.Probe(context.Background(), host, port)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Found {
			t.Fatalf("expected found, got error kind %s", result.ErrKind)
		}
		if result.URL != "rtmp://"+result.Host.String()+":"+itoa(port)+"/broadcast" {
			t.Errorf("unexpected URL %q", result.URL)
		}
	})

	t.Run("wrong version byte is a mismatch", func(t *testing.T) {
		t.Parallel()

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("failed to listen: %v", err)
		}
		defer ln.Close()

		go func() {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
			_, _ = io.ReadFull(conn, make([]byte, 1+rtmpHandshakeSize))
			_, _ = conn.Write([]byte{0x48}) // 'H', an HTTP server answering
		}()

		host, port := testAddr(t, ln.Addr())
		prober := NewRTMPProber(&net.Dialer{})

		result, err := prober.Probe(context.Background(), host, port)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Found {
			t.Error("expected not found")
		}
		if result.ErrKind != ErrorProtocolMismatch {
			t.Errorf("expected protocol mismatch, got %s", result.ErrKind)
		}
	})

	t.Run("immediate close is a mismatch, not a crash", func(t *testing.T) {
		t.Parallel()

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("failed to listen: %v", err)
		}
		defer ln.Close()

		go func() {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}()

		host, port := testAddr(t, ln.Addr())
		prober := NewRTMPProber(&net.Dialer{}, WithRTMPTimeout(time.Second))

		result, err := prober.Probe(context.Background(), host, port)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Found {
			t.Error("expected not found")
		}
	})
}

// TestClassify tests dial error classification.
func TestClassify(t *testing.T) {
	t.Parallel()

	if Classify(nil) != ErrorNone {
		t.Error("nil error must classify as none")
	}
	if Classify(context.DeadlineExceeded) != ErrorTimeout {
		t.Error("deadline exceeded must classify as timeout")
	}

	host, port := closedPort(t)
	_, err := (&net.Dialer{Timeout: time.Second}).Dial("tcp", net.JoinHostPort(host.String(), itoa(port)))
	if err == nil {
		t.Skip("reserved port was reused; cannot produce a refused connection")
	}
	if Classify(err) != ErrorConnectionRefused {
		t.Errorf("expected connection refused, got %s", Classify(err))
	}
}

func itoa(port uint16) string {
	return strconv.Itoa(int(port))
}
