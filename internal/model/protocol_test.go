package model

import (
	"encoding/json"
	"testing"
)

// TestProtocol tests the Protocol enumeration.
func TestProtocol(t *testing.T) {
	t.Parallel()

	t.Run("declaration order is rtsp, hls, dash, rtmp", func(t *testing.T) {
		t.Parallel()

		got := Protocols()
		want := []Protocol{ProtocolRTSP, ProtocolHLS, ProtocolDASH, ProtocolRTMP}
		if len(got) != len(want) {
			t.Fatalf("expected %d protocols, got %d", len(want), len(got))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("position %d: expected %s, got %s", i, want[i], got[i])
			}
		}
	})

	t.Run("String returns lowercase names", func(t *testing.T) {
		t.Parallel()

		if ProtocolRTSP.String() != "rtsp" {
			t.Errorf("expected 'rtsp', got %q", ProtocolRTSP.String())
		}
		if ProtocolHLS.String() != "hls" {
			t.Errorf("expected 'hls', got %q", ProtocolHLS.String())
		}
		if Protocol(99).String() != "protocol(99)" {
			t.Errorf("unexpected string for invalid protocol: %q", Protocol(99).String())
		}
	})

	t.Run("Scheme maps manifest protocols to http", func(t *testing.T) {
		t.Parallel()

		if ProtocolHLS.Scheme() != "http" {
			t.Errorf("expected 'http', got %q", ProtocolHLS.Scheme())
		}
		if ProtocolDASH.Scheme() != "http" {
			t.Errorf("expected 'http', got %q", ProtocolDASH.Scheme())
		}
		if ProtocolRTSP.Scheme() != "rtsp" {
			t.Errorf("expected 'rtsp', got %q", ProtocolRTSP.Scheme())
		}
		if ProtocolRTMP.Scheme() != "rtmp" {
			t.Errorf("expected 'rtmp', got %q", ProtocolRTMP.Scheme())
		}
	})

	t.Run("ParseProtocol is case-insensitive", func(t *testing.T) {
		t.Parallel()

		p, err := ParseProtocol("RTSP")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p != ProtocolRTSP {
			t.Errorf("expected ProtocolRTSP, got %s", p)
		}

		if _, err := ParseProtocol("webrtc"); err == nil {
			t.Error("expected error for unknown protocol")
		}
	})

	t.Run("marshals as name in JSON", func(t *testing.T) {
		t.Parallel()

		data, err := json.Marshal(ProtocolDASH)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != `"dash"` {
			t.Errorf("expected %q, got %q", `"dash"`, string(data))
		}

		var p Protocol
		if err := json.Unmarshal([]byte(`"rtmp"`), &p); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p != ProtocolRTMP {
			t.Errorf("expected ProtocolRTMP, got %s", p)
		}

		if _, err := json.Marshal(Protocol(42)); err == nil {
			t.Error("expected error marshaling invalid protocol")
		}
	})
}

// TestScanStatus tests status serialization.
func TestScanStatus(t *testing.T) {
	t.Parallel()

	t.Run("round-trips through text", func(t *testing.T) {
		t.Parallel()

		data, err := ScanCancelled.MarshalText()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var s ScanStatus
		if err := s.UnmarshalText(data); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s != ScanCancelled {
			t.Errorf("expected ScanCancelled, got %s", s)
		}
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		t.Parallel()

		var s ScanStatus
		if err := s.UnmarshalText([]byte("paused")); err == nil {
			t.Error("expected error for unknown status")
		}
	})
}
